package semsearch

import (
	"time"

	"github.com/sagar8080/semantic-search-system/internal/domain/document"
	"github.com/sagar8080/semantic-search-system/internal/domain/search/mode"
	"github.com/sagar8080/semantic-search-system/internal/domain/search/request"
	"github.com/sagar8080/semantic-search-system/internal/domain/search/result"
	answeruc "github.com/sagar8080/semantic-search-system/internal/usecase/answer"
)

// SearchMode selects the retrieval recipe.
type SearchMode string

// Search mode constants.
const (
	ModeSimple   SearchMode = "simple"
	ModeAdvanced SearchMode = "advanced"
	ModePro      SearchMode = "pro"
)

// Annotation is an extracted entity or topic.
type Annotation struct {
	Text  string
	Label string
}

// Document is one press release.
type Document struct {
	ID          string
	Title       string
	Content     string
	Summary     string
	PublishedAt time.Time // zero when unknown
	URL         string
	Entities    []Annotation
	Topics      []Annotation
	Embedding   []float32
}

// SearchOptions tunes a search. Zero values select the defaults: pro mode, k=5,
// fuzziness 0 for simple and 1 otherwise, no date bounds.
type SearchOptions struct {
	Mode      SearchMode
	K         int
	Fuzziness *int
	From      *time.Time
	To        *time.Time
	Expand    bool
	Rerank    bool
}

// Result is a single ranked hit. A score is nil when the recipe did not produce it.
type Result struct {
	Document        Document
	Score           *float64
	NormalizedScore *float64
	RelevanceScore  *float64
}

// Source is a document an answer was grounded on.
type Source struct {
	ID          string
	Title       string
	URL         string
	PublishedAt string
}

// Answer is a synthesized reply to a question.
type Answer struct {
	ID          string
	Text        string
	Sources     []Source
	WebFallback bool // fewer than three knowledge-base documents qualified
	Degraded    bool // the completion provider failed and Text is an apology
}

func (o SearchOptions) toRequest(query string) (request.Request, error) {
	return request.New(request.Params{
		Query:     query,
		Mode:      mode.Mode(o.Mode),
		K:         o.K,
		Fuzziness: o.Fuzziness,
		From:      o.From,
		To:        o.To,
		Expand:    o.Expand,
		Rerank:    o.Rerank,
	})
}

func toDomainDocument(d *Document) document.Document {
	return document.Document{
		ID:          d.ID,
		Title:       d.Title,
		Content:     d.Content,
		Summary:     d.Summary,
		PublishedAt: d.PublishedAt,
		URL:         d.URL,
		Entities:    toDomainAnnotations(d.Entities),
		Topics:      toDomainAnnotations(d.Topics),
		Embedding:   d.Embedding,
	}
}

func fromDomainDocument(d *document.Document) Document {
	return Document{
		ID:          d.ID,
		Title:       d.Title,
		Content:     d.Content,
		Summary:     d.Summary,
		PublishedAt: d.PublishedAt,
		URL:         d.URL,
		Entities:    fromDomainAnnotations(d.Entities),
		Topics:      fromDomainAnnotations(d.Topics),
		Embedding:   d.Embedding,
	}
}

func toDomainAnnotations(in []Annotation) []document.Annotation {
	if len(in) == 0 {
		return nil
	}
	out := make([]document.Annotation, len(in))
	for i, a := range in {
		out[i] = document.Annotation{Text: a.Text, Label: a.Label}
	}
	return out
}

func fromDomainAnnotations(in []document.Annotation) []Annotation {
	if len(in) == 0 {
		return nil
	}
	out := make([]Annotation, len(in))
	for i, a := range in {
		out[i] = Annotation{Text: a.Text, Label: a.Label}
	}
	return out
}

func fromCandidates(cs []result.Candidate) []Result {
	out := make([]Result, len(cs))
	for i := range cs {
		d := cs[i].Document()
		r := Result{Document: fromDomainDocument(&d)}
		if v, ok := cs[i].Score(); ok {
			r.Score = &v
		}
		if v, ok := cs[i].NormalizedScore(); ok {
			r.NormalizedScore = &v
		}
		if v, ok := cs[i].RelevanceScore(); ok {
			r.RelevanceScore = &v
		}
		out[i] = r
	}
	return out
}

func fromAnswer(a *answeruc.Answer) Answer {
	sources := make([]Source, len(a.Sources))
	for i, s := range a.Sources {
		sources[i] = Source{ID: s.ID, Title: s.Title, URL: s.URL, PublishedAt: s.PublishedAt}
	}
	return Answer{
		ID:          a.ID,
		Text:        a.Text,
		Sources:     sources,
		WebFallback: a.WebFallback,
		Degraded:    a.Degraded,
	}
}
