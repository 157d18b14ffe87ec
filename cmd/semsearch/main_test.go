package main

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagar8080/semantic-search-system/internal/db"
	"github.com/sagar8080/semantic-search-system/internal/domain/document"
	"github.com/sagar8080/semantic-search-system/internal/domain/search/mode"
	"github.com/sagar8080/semantic-search-system/internal/domain/search/request"
	"github.com/sagar8080/semantic-search-system/internal/domain/search/result"
	"github.com/sagar8080/semantic-search-system/internal/usecase/ingest"
)

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()

	names := make([]string, 0)
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "serve")
	assert.Contains(t, names, "search")
	assert.Contains(t, names, "index")
	assert.Contains(t, names, "ingest")
	assert.Contains(t, names, "doc")

	for _, path := range [][]string{
		{"index", "ensure"}, {"index", "stats"}, {"index", "drop"},
		{"doc", "get"}, {"doc", "delete"},
	} {
		c, _, err := root.Find(path)
		require.NoError(t, err)
		assert.Equal(t, path[1], c.Name())
	}

	assert.NotNil(t, root.PersistentFlags().Lookup("env"))
	assert.NotNil(t, root.PersistentFlags().Lookup("log-level"))
}

func TestSearchCmd_RequiresQuery(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"search"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	err := root.Execute()
	require.Error(t, err)
}

func TestSearchCmd_InvalidModeFailsBeforeConnecting(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"search", "--mode", "turbo", "ai", "policy"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid search mode")
}

func TestSearchOptions_Params(t *testing.T) {
	o := &searchOptions{
		mode:      "advanced",
		k:         7,
		fuzziness: 2,
		from:      "2024-01-01",
		to:        "2024-12-31",
		expand:    true,
		rerank:    true,
	}

	p, err := o.params("clean energy", true)
	require.NoError(t, err)

	assert.Equal(t, "clean energy", p.Query)
	assert.Equal(t, mode.Advanced, p.Mode)
	assert.Equal(t, 7, p.K)
	require.NotNil(t, p.Fuzziness)
	assert.Equal(t, 2, *p.Fuzziness)
	require.NotNil(t, p.From)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *p.From)
	require.NotNil(t, p.To)
	assert.True(t, p.Expand)
	assert.True(t, p.Rerank)
}

func TestSearchOptions_ParamsDefaultFuzziness(t *testing.T) {
	o := &searchOptions{mode: "simple", k: request.DefaultK, fuzziness: request.DefaultFuzziness}

	p, err := o.params("grants", false)
	require.NoError(t, err)
	assert.Nil(t, p.Fuzziness)
	assert.Nil(t, p.From)
	assert.Nil(t, p.To)

	req, err := request.New(p)
	require.NoError(t, err)
	assert.Equal(t, 0, req.Fuzziness())
}

func TestSearchOptions_ParamsBadDate(t *testing.T) {
	o := &searchOptions{mode: "pro", k: 5, from: "01/02/2024"}

	_, err := o.params("grants", false)
	require.Error(t, err)
}

func TestPrintResults(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	req, err := request.New(request.Params{Query: "broadband", Mode: mode.Pro, K: 2})
	require.NoError(t, err)

	first := result.New(document.Document{
		ID:          "doc-1",
		Title:       "Broadband expansion announced",
		Summary:     "The department   announced\nnew funding.",
		URL:         "https://example.gov/1",
		PublishedAt: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
	}, 1.4).WithNormalizedScore(87.5).WithRelevanceScore(0.91)
	second := result.New(document.Document{ID: "doc-2"}, 0.3)

	var buf bytes.Buffer
	printResults(&buf, &req, []result.Candidate{first, second})
	out := buf.String()

	assert.Contains(t, out, `"broadband"  mode=pro k=2`)
	assert.Contains(t, out, "[1] Broadband expansion announced  relevance 0.91")
	assert.Contains(t, out, "2024-03-05  https://example.gov/1")
	assert.Contains(t, out, "The department announced new funding.")
	assert.Contains(t, out, "[2] doc-2  raw 0.300")
	assert.Less(t, strings.Index(out, "[1]"), strings.Index(out, "[2]"))
}

func TestPrintResults_Empty(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	req, err := request.New(request.Params{Query: "nothing", Mode: mode.Simple})
	require.NoError(t, err)

	var buf bytes.Buffer
	printResults(&buf, &req, nil)
	assert.Contains(t, buf.String(), "No results found.")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "a b", truncate("  a \n b ", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
	assert.Equal(t, "", truncate("", 5))
}

func noColor(t *testing.T) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
}

func TestIndexDrop_DeleteDocsNeedsConfirmation(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"index", "drop", "--delete-docs"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")
}

func TestIngestCmd_Flags(t *testing.T) {
	cmd := newIngestCmd(&globalOptions{})
	batch := cmd.Flags().Lookup("batch")
	require.NotNil(t, batch)
	assert.Equal(t, fmt.Sprint(ingest.DefaultBatchSize), batch.DefValue)
	require.NotNil(t, cmd.Flags().Lookup("workers"))
	require.NotNil(t, cmd.Flags().Lookup("ensure-index"))
}

func TestPrintReport(t *testing.T) {
	noColor(t)

	failures := make([]ingest.Failure, maxFailuresShown+3)
	for i := range failures {
		failures[i] = ingest.Failure{ID: fmt.Sprintf("pr-%d", i), Err: errors.New("boom")}
	}
	failures[0] = ingest.Failure{Line: 7, Err: errors.New("decode")}

	var buf bytes.Buffer
	printReport(&buf, 40, &ingest.Report{
		Stored:   17,
		Embedded: 12,
		Tokens:   900,
		Failures: failures,
		Elapsed:  1500 * time.Millisecond,
	})
	out := buf.String()

	assert.Contains(t, out, "ingested 17 of 40 records in 1.5s")
	assert.Contains(t, out, "embedded 12 (900 tokens)")
	assert.Contains(t, out, "failed 23")
	assert.Contains(t, out, "line 7: decode")
	assert.Contains(t, out, "... 3 more")
	assert.NotContains(t, out, fmt.Sprintf("pr-%d:", maxFailuresShown))
}

func TestPrintStats(t *testing.T) {
	noColor(t)

	var buf bytes.Buffer
	printStats(&buf, &db.IndexStats{Name: "press-idx", Docs: 1200, PercentIndexed: 0.5, Indexing: true, IndexingFailures: 2})
	out := buf.String()
	assert.Contains(t, out, "press-idx")
	assert.Contains(t, out, "documents  1200")
	assert.Contains(t, out, "indexed    50%")
	assert.Contains(t, out, "state      indexing")
	assert.Contains(t, out, "failures   2")

	buf.Reset()
	printStats(&buf, &db.IndexStats{Name: "press-idx", Docs: 3, PercentIndexed: 1})
	assert.Contains(t, buf.String(), "state      ready")
	assert.NotContains(t, buf.String(), "failures")
}

func TestToJSONDocument(t *testing.T) {
	d := document.Document{
		ID:          "pr-1",
		Title:       "Title",
		PublishedAt: time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC),
		Entities:    []document.Annotation{{Text: "EPA", Label: "ORG"}},
		Embedding:   []float32{1, 2, 3},
	}
	got := toJSONDocument(&d)
	assert.Equal(t, "2023-01-02", got.PublishedAt)
	assert.Equal(t, 3, got.Dimensions)
	assert.Equal(t, []jsonAnnotation{{Text: "EPA", Label: "ORG"}}, got.Entities)
	assert.Empty(t, got.Topics)
}
