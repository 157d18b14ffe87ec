// Package expansion rewrites a search query into alternate phrasings with a completion provider.
package expansion

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sagar8080/semantic-search-system/internal/domain"
)

// MaxAlternates caps the phrasings kept from one completion.
const MaxAlternates = 5

const systemPrompt = "You rewrite search queries for a search engine over government press releases. " +
	"Given a user query, reply with 3 to 5 alternative phrasings or keyword combinations that would find " +
	"relevant documents. Put each on its own line. Do not repeat the original query. " +
	"Do not number the lines and do not add any other text."

// listMarker matches a leading bullet ("-", "*", "+", "•") or enumeration ("1.", "2)", "(3)", "a.").
var listMarker = regexp.MustCompile(`^(?:[-*+•]+|\(?\d{1,3}[.)]|\(\d{1,3}\)|\(?[A-Za-z][.)])\s+`)

const quoteChars = "\"'`“”‘’"

// Expander produces the Expanded Term Set for a query.
type Expander struct {
	completer domain.Completer
	timeout   time.Duration
	logger    *zap.Logger
}

// New creates an expander. timeout bounds the completion call; 0 means no extra bound.
func New(c domain.Completer, timeout time.Duration, logger *zap.Logger) *Expander {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Expander{completer: c, timeout: timeout, logger: logger}
}

// Expand returns the query followed by up to MaxAlternates alternates.
// It never fails: any provider problem degrades to []string{query}.
func (e *Expander) Expand(ctx context.Context, query string) []string {
	if strings.TrimSpace(query) == "" || e.completer == nil {
		return []string{query}
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	res, err := e.completer.Complete(ctx, query, domain.CompletionOptions{
		System:      systemPrompt,
		MaxTokens:   200,
		Temperature: domain.Temperature(0.3),
	})
	if err != nil {
		e.logger.Warn("Query expansion failed, using original query", zap.String("query", query), zap.Error(err))
		return []string{query}
	}

	alternates := ParseAlternates(res.Text, query)
	if len(alternates) == 0 {
		e.logger.Warn("Query expansion returned no usable alternates", zap.String("query", query))
	}
	return append([]string{query}, alternates...)
}

// ParseAlternates extracts alternate phrasings from a completion, one per line.
// List markers and surrounding quotes are stripped; blank lines, echoes of the original
// query and duplicates (all case-insensitive) are dropped; at most MaxAlternates are kept.
func ParseAlternates(text, query string) []string {
	seen := map[string]bool{strings.ToLower(strings.TrimSpace(query)): true}
	var out []string

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = listMarker.ReplaceAllString(line, "")
		line = strings.TrimSpace(strings.Trim(line, quoteChars))
		if line == "" {
			continue
		}
		key := strings.ToLower(line)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, line)
		if len(out) == MaxAlternates {
			break
		}
	}
	return out
}
