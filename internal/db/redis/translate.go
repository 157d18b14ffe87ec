package redis

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/sagar8080/semantic-search-system/internal/db"
	"github.com/sagar8080/semantic-search-system/internal/domain/search/query"
)

// maxFuzziness is the largest Levenshtein distance the query engine supports (%%%term%%%).
const maxFuzziness = 3

// renderText translates a lexical clause tree into FT.SEARCH query syntax (DIALECT 2).
// Field names must already be index attribute names. Nested clauses render as their inner
// clause because JSON array paths are indexed flattened.
func renderText(c query.Clause) (string, error) {
	switch q := c.(type) {
	case *query.Match:
		return renderMatch(q.Field, q.Text, q.Fuzziness, q.Boost), nil

	case *query.MultiMatch:
		parts := make([]string, 0, len(q.Fields))
		for _, f := range q.Fields {
			parts = append(parts, renderMatch(f.Field, q.Text, q.Fuzziness, f.Boost))
		}
		return union(parts), nil

	case *query.Term:
		return fmt.Sprintf("@%s:{%s}", q.Field, escapeTag(q.Value)), nil

	case *query.Nested:
		return renderText(q.Query)

	case *query.Bool:
		var filters, should []string
		for _, f := range q.Filter {
			r, err := renderText(f)
			if err != nil {
				return "", err
			}
			if r != "" {
				filters = append(filters, r)
			}
		}
		for _, sc := range q.Should {
			r, err := renderText(sc)
			if err != nil {
				return "", err
			}
			should = append(should, r)
		}
		g := union(should)
		if g == "" && len(q.Should) > 0 {
			// No should clause can match, so neither can the bool.
			return "", nil
		}
		if g != "" {
			filters = append(filters, g)
		}
		return strings.Join(filters, " "), nil

	case *query.DateRange:
		lo, hi := "-inf", "+inf"
		if q.From != nil {
			lo = strconv.FormatInt(q.From.Unix(), 10)
		}
		if q.To != nil {
			hi = strconv.FormatInt(q.To.Unix(), 10)
		}
		return fmt.Sprintf("@%s:[%s %s]", q.Field, lo, hi), nil

	case *query.KNN, *query.Hybrid:
		return "", fmt.Errorf("%w: %T inside a lexical query", db.ErrUnsupportedQuery, c)
	}
	return "", fmt.Errorf("%w: %T", db.ErrUnsupportedQuery, c)
}

// renderMatch renders OR-of-tokens on one TEXT attribute. Text without searchable
// tokens renders as "" and is dropped by the enclosing clause.
func renderMatch(field, text string, fuzziness int, boost float64) string {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return ""
	}

	fuzz := strings.Repeat("%", min(max(fuzziness, 0), maxFuzziness))
	for i, tok := range tokens {
		tokens[i] = fuzz + tok + fuzz
	}

	expr := fmt.Sprintf("@%s:(%s)", field, strings.Join(tokens, "|"))
	if boost != 0 && boost != 1 {
		expr = fmt.Sprintf("(%s) => { $weight: %s; }", expr, strconv.FormatFloat(boost, 'g', -1, 64))
	}
	return expr
}

func union(parts []string) string {
	nonEmpty := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	switch len(nonEmpty) {
	case 0:
		return ""
	case 1:
		return nonEmpty[0]
	default:
		return "(" + strings.Join(nonEmpty, " | ") + ")"
	}
}

// tokenize splits text on anything that is not a letter or digit and lowercases the result,
// so no token needs query-syntax escaping.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// tagSpecial are the characters the query engine treats as syntax inside a TAG value.
const tagSpecial = ",.<>{}[]\"':;!@#$%^&*()-+=~|/\\"

// escapeTag backslash-escapes syntax characters and whitespace in a TAG value.
func escapeTag(v string) string {
	var b strings.Builder
	b.Grow(len(v) + 8)
	for _, r := range v {
		if unicode.IsSpace(r) || strings.ContainsRune(tagSpecial, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
