package document

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Logical field names. Query builders, the index schema and the HTTP layer all use these;
// storage adapters map them onto their own attribute names.
const (
	FieldTitle       = "title"
	FieldContent     = "content"
	FieldSummary     = "summary"
	FieldPublishedAt = "published_at"
	FieldURL         = "url"
	FieldEmbedding   = "embedding"

	PathEntities = "entities"
	PathTopics   = "topics"

	FieldEntitiesText    = "entities.text"
	FieldEntitiesKeyword = "entities.text.keyword"
	FieldTopicsText      = "topics.text"
	FieldTopicsKeyword   = "topics.text.keyword"
)

// DateLayout is the publication date format.
const DateLayout = "2006-01-02"

// Annotation is an LLM-extracted entity or topic.
type Annotation struct {
	Text  string
	Label string
}

// Document is one press release as stored in the index. The retrieval core only reads it.
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

// RankText is the text a relevance model compares against a query:
// the title followed by the summary, or the content when the summary is empty.
func (d *Document) RankText() string {
	body := strings.TrimSpace(d.Summary)
	if body == "" {
		body = strings.TrimSpace(d.Content)
	}
	title := strings.TrimSpace(d.Title)

	switch {
	case title == "":
		return body
	case body == "":
		return title
	default:
		return title + "\n" + body
	}
}

// PublishedDate returns the publication date as YYYY-MM-DD, or "" when unknown.
func (d *Document) PublishedDate() string {
	if d.PublishedAt.IsZero() {
		return ""
	}
	return d.PublishedAt.Format(DateLayout)
}

// Validate checks a document before it is written to an index of the given vector dimension.
func (d *Document) Validate(dim int) error {
	if d.ID == "" {
		return errors.New("document ID is required")
	}
	if strings.TrimSpace(d.Title) == "" && strings.TrimSpace(d.Content) == "" {
		return errors.New("title or content is required")
	}
	if len(d.Embedding) > 0 && len(d.Embedding) != dim {
		return fmt.Errorf("embedding has %d dimensions, index expects %d", len(d.Embedding), dim)
	}
	return nil
}

// ParseDate parses a YYYY-MM-DD date in UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return t, nil
}
