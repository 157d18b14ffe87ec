package search

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sagar8080/semantic-search-system/internal/domain/document"
)

// docJSON is the stored JSON shape of a document.
type docJSON struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Content     string           `json:"content"`
	Summary     string           `json:"summary"`
	PublishedAt string           `json:"published_at,omitempty"`
	PublishedTS int64            `json:"published_ts,omitempty"`
	URL         string           `json:"url,omitempty"`
	Entities    []annotationJSON `json:"entities"`
	Topics      []annotationJSON `json:"topics"`
	Embedding   []float32        `json:"embedding,omitempty"`
}

type annotationJSON struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

func docToJSON(d *document.Document) ([]byte, error) {
	row := docJSON{
		ID:        d.ID,
		Title:     d.Title,
		Content:   d.Content,
		Summary:   d.Summary,
		URL:       d.URL,
		Entities:  annotationsToJSON(d.Entities),
		Topics:    annotationsToJSON(d.Topics),
		Embedding: d.Embedding,
	}
	if !d.PublishedAt.IsZero() {
		row.PublishedAt = d.PublishedDate()
		row.PublishedTS = d.PublishedAt.Unix()
	}
	data, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("marshal document %s: %w", d.ID, err)
	}
	return data, nil
}

// docFromJSON hydrates a document from a stored value. RedisJSON returns
// "$" paths wrapped in an array, so both shapes are accepted.
// The embedding is kept only when withVector is set.
func docFromJSON(data []byte, withVector bool) (document.Document, error) {
	var row docJSON
	if len(data) > 0 && data[0] == '[' {
		var rows []docJSON
		if err := json.Unmarshal(data, &rows); err != nil {
			return document.Document{}, fmt.Errorf("unmarshal document: %w", err)
		}
		if len(rows) == 0 {
			return document.Document{}, fmt.Errorf("unmarshal document: empty array")
		}
		row = rows[0]
	} else if err := json.Unmarshal(data, &row); err != nil {
		return document.Document{}, fmt.Errorf("unmarshal document: %w", err)
	}

	d := document.Document{
		ID:       row.ID,
		Title:    row.Title,
		Content:  row.Content,
		Summary:  row.Summary,
		URL:      row.URL,
		Entities: annotationsFromJSON(row.Entities),
		Topics:   annotationsFromJSON(row.Topics),
	}
	switch {
	case row.PublishedAt != "":
		t, err := document.ParseDate(row.PublishedAt)
		if err != nil {
			return document.Document{}, err
		}
		d.PublishedAt = t
	case row.PublishedTS != 0:
		d.PublishedAt = time.Unix(row.PublishedTS, 0).UTC()
	}
	if withVector {
		d.Embedding = row.Embedding
	}
	return d, nil
}

func annotationsToJSON(as []document.Annotation) []annotationJSON {
	out := make([]annotationJSON, len(as))
	for i, a := range as {
		out[i] = annotationJSON{Text: a.Text, Label: a.Label}
	}
	return out
}

func annotationsFromJSON(as []annotationJSON) []document.Annotation {
	if len(as) == 0 {
		return nil
	}
	out := make([]document.Annotation, len(as))
	for i, a := range as {
		out[i] = document.Annotation{Text: a.Text, Label: a.Label}
	}
	return out
}
