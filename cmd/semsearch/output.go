package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/sagar8080/semantic-search-system/internal/db"
	"github.com/sagar8080/semantic-search-system/internal/domain/search/request"
	"github.com/sagar8080/semantic-search-system/internal/domain/search/result"
	"github.com/sagar8080/semantic-search-system/internal/usecase/ingest"
)

const summaryWidth = 160

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	titleColor  = color.New(color.Bold)
	scoreColor  = color.New(color.FgGreen)
	dimColor    = color.New(color.Faint)
	failColor   = color.New(color.FgRed)
)

// printResults writes a ranked, colorized listing of results.
func printResults(w io.Writer, req *request.Request, results []result.Candidate) {
	headerColor.Fprintf(w, "%q  mode=%s k=%d\n", req.Query(), req.Mode(), req.K())
	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}
	fmt.Fprintln(w)

	for i := range results {
		d := results[i].Document()
		title := d.Title
		if title == "" {
			title = d.ID
		}

		fmt.Fprintf(w, "  [%d] ", i+1)
		titleColor.Fprint(w, title)
		fmt.Fprint(w, "  ")
		scoreColor.Fprintln(w, scoreLabel(&results[i]))

		meta := make([]string, 0, 2)
		if date := d.PublishedDate(); date != "" {
			meta = append(meta, date)
		}
		if d.URL != "" {
			meta = append(meta, d.URL)
		}
		if len(meta) > 0 {
			dimColor.Fprintf(w, "      %s\n", strings.Join(meta, "  "))
		}
		if s := truncate(d.Summary, summaryWidth); s != "" {
			fmt.Fprintf(w, "      %s\n", s)
		}
		fmt.Fprintln(w)
	}
}

// scoreLabel prefers the reranker relevance, then the normalized score.
func scoreLabel(c *result.Candidate) string {
	if v, ok := c.RelevanceScore(); ok {
		return fmt.Sprintf("relevance %.2f", v)
	}
	if v, ok := c.NormalizedScore(); ok {
		return fmt.Sprintf("score %.1f", v)
	}
	if v, ok := c.Score(); ok {
		return fmt.Sprintf("raw %.3f", v)
	}
	return ""
}

func truncate(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}

// printReport summarizes an ingest run, listing at most maxFailuresShown failures.
func printReport(w io.Writer, total int, rep *ingest.Report) {
	headerColor.Fprintf(w, "ingested %d of %d records in %s\n", rep.Stored, total, rep.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "  embedded %d (%d tokens)\n", rep.Embedded, rep.Tokens)
	if len(rep.Failures) == 0 {
		return
	}
	failColor.Fprintf(w, "  failed %d\n", len(rep.Failures))
	for i, f := range rep.Failures {
		if i == maxFailuresShown {
			dimColor.Fprintf(w, "    ... %d more\n", len(rep.Failures)-i)
			break
		}
		fmt.Fprintf(w, "    %s\n", f.Error())
	}
}

const maxFailuresShown = 20

func printStats(w io.Writer, st *db.IndexStats) {
	headerColor.Fprintln(w, st.Name)
	fmt.Fprintf(w, "  documents  %d\n", st.Docs)
	fmt.Fprintf(w, "  indexed    %.0f%%\n", st.PercentIndexed*100)
	state := scoreColor.Sprint("ready")
	if !st.Ready() {
		state = dimColor.Sprint("indexing")
	}
	fmt.Fprintf(w, "  state      %s\n", state)
	if st.IndexingFailures > 0 {
		failColor.Fprintf(w, "  failures   %d\n", st.IndexingFailures)
	}
}
