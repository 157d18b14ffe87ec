package document

import (
	"strings"
	"testing"
	"time"
)

func TestRankText(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
		want string
	}{
		{"title and summary", Document{Title: "Bridge", Summary: "Repairs start", Content: "long"}, "Bridge\nRepairs start"},
		{"summary empty falls back to content", Document{Title: "Bridge", Content: "Full text"}, "Bridge\nFull text"},
		{"whitespace summary counts as empty", Document{Title: "Bridge", Summary: "  ", Content: "Full"}, "Bridge\nFull"},
		{"no title", Document{Summary: "Only summary"}, "Only summary"},
		{"title only", Document{Title: "Only title"}, "Only title"},
		{"nothing usable", Document{Summary: " ", Content: "\n"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.doc.RankText(); got != tt.want {
				t.Errorf("RankText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPublishedDate(t *testing.T) {
	d := Document{PublishedAt: time.Date(2024, 3, 7, 15, 0, 0, 0, time.UTC)}
	if got := d.PublishedDate(); got != "2024-03-07" {
		t.Errorf("expected 2024-03-07, got %q", got)
	}
	if got := (&Document{}).PublishedDate(); got != "" {
		t.Errorf("expected empty date, got %q", got)
	}
}

func TestValidate(t *testing.T) {
	ok := Document{ID: "pr-1", Title: "t", Embedding: make([]float32, 4)}
	if err := ok.Validate(4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	noID := Document{Title: "t"}
	if err := noID.Validate(4); err == nil {
		t.Fatal("expected error for missing ID")
	}

	empty := Document{ID: "pr-2"}
	if err := empty.Validate(4); err == nil {
		t.Fatal("expected error for missing title and content")
	}

	wrongDim := Document{ID: "pr-3", Content: "c", Embedding: make([]float32, 3)}
	err := wrongDim.Validate(4)
	if err == nil || !strings.Contains(err.Error(), "3 dimensions") {
		t.Fatalf("expected dimension error, got %v", err)
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2023-12-31")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Year() != 2023 || got.Month() != time.December || got.Day() != 31 {
		t.Errorf("unexpected date %v", got)
	}
	if _, err := ParseDate("31/12/2023"); err == nil {
		t.Error("expected error for wrong layout")
	}
}
