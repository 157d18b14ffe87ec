package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sagar8080/semantic-search-system/internal/domain/document"
	"github.com/sagar8080/semantic-search-system/internal/domain/search/mode"
	"github.com/sagar8080/semantic-search-system/internal/domain/search/request"
	"github.com/sagar8080/semantic-search-system/internal/domain/search/result"
)

type searchOptions struct {
	mode      string
	k         int
	fuzziness int
	from      string
	to        string
	expand    bool
	rerank    bool
	kb        bool
	json      bool
}

func newSearchCmd(opts *globalOptions) *cobra.Command {
	so := &searchOptions{}
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the index from the terminal",
		Long: `Runs one retrieval against the configured index and prints the ranked results.
Modes: simple (entity/topic match), advanced (title/summary + vector), pro (hybrid,
optionally with --expand and --rerank). --kb applies the knowledge-base thresholds.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := so.params(strings.Join(args, " "), cmd.Flags().Changed("fuzziness"))
			if err != nil {
				return err
			}
			req, err := request.New(params)
			if err != nil {
				return err
			}

			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			a, err := buildApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			run := a.search.Search
			if so.kb {
				run = a.search.KB
			}
			results := run(ctx, &req)

			if so.json {
				return printJSON(cmd, results)
			}
			printResults(cmd.OutOrStdout(), &req, results)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&so.mode, "mode", "m", string(mode.Pro), "search mode: simple, advanced, pro")
	f.IntVarP(&so.k, "k", "k", request.DefaultK, "number of results")
	f.IntVar(&so.fuzziness, "fuzziness", request.DefaultFuzziness, "edit distance for fuzzy matching (0-2)")
	f.StringVar(&so.from, "from", "", "earliest publication date (YYYY-MM-DD)")
	f.StringVar(&so.to, "to", "", "latest publication date (YYYY-MM-DD)")
	f.BoolVar(&so.expand, "expand", false, "expand the query with alternate phrasings (pro)")
	f.BoolVar(&so.rerank, "rerank", false, "rerank candidates with the cross-document reranker (pro)")
	f.BoolVar(&so.kb, "kb", false, "apply knowledge-base thresholds")
	f.BoolVar(&so.json, "json", false, "output results as JSON")
	return cmd
}

// params converts flags to request parameters. An unset --fuzziness keeps the mode default.
func (o *searchOptions) params(query string, fuzzinessSet bool) (request.Params, error) {
	m, err := mode.Parse(o.mode)
	if err != nil {
		return request.Params{}, err
	}
	p := request.Params{
		Query:  query,
		Mode:   m,
		K:      o.k,
		Expand: o.expand,
		Rerank: o.rerank,
	}
	if fuzzinessSet {
		fz := o.fuzziness
		p.Fuzziness = &fz
	}
	if o.from != "" {
		t, err := document.ParseDate(o.from)
		if err != nil {
			return request.Params{}, err
		}
		p.From = &t
	}
	if o.to != "" {
		t, err := document.ParseDate(o.to)
		if err != nil {
			return request.Params{}, err
		}
		p.To = &t
	}
	return p, nil
}

type jsonResult struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	URL             string   `json:"url,omitempty"`
	PublishedAt     string   `json:"published_at,omitempty"`
	Score           *float64 `json:"score,omitempty"`
	NormalizedScore *float64 `json:"normalized_score,omitempty"`
	RelevanceScore  *float64 `json:"relevance_score,omitempty"`
}

func printJSON(cmd *cobra.Command, results []result.Candidate) error {
	out := make([]jsonResult, len(results))
	for i := range results {
		d := results[i].Document()
		r := jsonResult{ID: d.ID, Title: d.Title, URL: d.URL, PublishedAt: d.PublishedDate()}
		if v, ok := results[i].Score(); ok {
			r.Score = &v
		}
		if v, ok := results[i].NormalizedScore(); ok {
			r.NormalizedScore = &v
		}
		if v, ok := results[i].RelevanceScore(); ok {
			r.RelevanceScore = &v
		}
		out[i] = r
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
