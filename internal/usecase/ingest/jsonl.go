package ingest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/sagar8080/semantic-search-system/internal/domain/document"
)

// maxLine bounds one JSONL record; full press release bodies run to a few hundred KiB.
const maxLine = 8 << 20

type annotationRecord struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// record is one line of the import format.
type record struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Content     string             `json:"content"`
	Summary     string             `json:"summary"`
	PublishedAt string             `json:"published_at"`
	URL         string             `json:"url"`
	Entities    []annotationRecord `json:"entities"`
	Topics      []annotationRecord `json:"topics"`
	Embedding   []float32          `json:"embedding"`
}

func (r *record) document() (document.Document, error) {
	d := document.Document{
		ID:        strings.TrimSpace(r.ID),
		Title:     r.Title,
		Content:   r.Content,
		Summary:   r.Summary,
		URL:       r.URL,
		Entities:  annotations(r.Entities),
		Topics:    annotations(r.Topics),
		Embedding: r.Embedding,
	}
	if r.PublishedAt != "" {
		t, err := document.ParseDate(r.PublishedAt)
		if err != nil {
			return document.Document{}, err
		}
		d.PublishedAt = t
	}
	return d, nil
}

func annotations(in []annotationRecord) []document.Annotation {
	if len(in) == 0 {
		return nil
	}
	out := make([]document.Annotation, 0, len(in))
	for _, a := range in {
		if text := strings.TrimSpace(a.Text); text != "" {
			out = append(out, document.Annotation{Text: text, Label: a.Label})
		}
	}
	return out
}

// ReadJSONL decodes one document per line. Blank lines are ignored and undecodable
// lines come back as failures. The error is reserved for read failures.
func ReadJSONL(r io.Reader) ([]document.Document, []Failure, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLine)

	var (
		docs  []document.Document
		bad   []Failure
		lineN int
	)
	for sc.Scan() {
		lineN++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}

		var rec record
		if err := json.Unmarshal(line, &rec); err != nil {
			bad = append(bad, Failure{Line: lineN, Err: fmt.Errorf("decode: %w", err)})
			continue
		}
		d, err := rec.document()
		if err != nil {
			bad = append(bad, Failure{ID: rec.ID, Line: lineN, Err: err})
			continue
		}
		docs = append(docs, d)
	}
	if err := sc.Err(); err != nil {
		return docs, bad, fmt.Errorf("read line %d: %w", lineN+1, err)
	}
	return docs, bad, nil
}
