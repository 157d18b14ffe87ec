// Package rerank is a client for Cohere/Jina-style cross-encoder rerank endpoints.
package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sagar8080/semantic-search-system/internal/domain"
	"github.com/sagar8080/semantic-search-system/internal/metrics"
)

const maxErrorBody = 4 << 10

// Config holds the rerank endpoint settings.
type Config struct {
	URL        string // full endpoint, e.g. https://api.cohere.com/v2/rerank
	APIKey     string
	Model      string
	Provider   string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client implements domain.Ranker over HTTP.
type Client struct {
	url      string
	apiKey   string
	model    string
	provider string
	http     *http.Client
	logger   *zap.Logger
}

type rankRequest struct {
	Model     string   `json:"model,omitempty"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n,omitempty"`
}

type rankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

// NewClient creates a rerank client.
func NewClient(cfg *Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		url:      cfg.URL,
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		provider: cfg.Provider,
		http:     hc,
		logger:   logger,
	}
}

// Rank implements domain.Ranker. Results come back in the provider's order.
func (c *Client) Rank(ctx context.Context, query string, documents []string, topN int) ([]domain.RankedIndex, error) {
	body, err := json.Marshal(rankRequest{Model: c.model, Query: query, Documents: documents, TopN: topN})
	if err != nil {
		return nil, fmt.Errorf("marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.recordFailure("transport_error")
		return nil, fmt.Errorf("rerank request: %w: %w", err, domain.ErrRerankProviderError)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.recordFailure("api_error")
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("rerank API error %d: %s: %w",
			resp.StatusCode, strings.TrimSpace(string(detail)), domain.ErrRerankProviderError)
	}

	var parsed rankResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		c.recordFailure("decode_error")
		return nil, fmt.Errorf("decode rerank response: %w: %w", err, domain.ErrRerankProviderError)
	}

	out := make([]domain.RankedIndex, 0, len(parsed.Results))
	seen := make([]bool, len(documents))
	for _, r := range parsed.Results {
		if r.Index < 0 || r.Index >= len(documents) {
			c.recordFailure("bad_index")
			return nil, fmt.Errorf("rerank result index %d out of range [0,%d): %w",
				r.Index, len(documents), domain.ErrRerankProviderError)
		}
		// First occurrence wins.
		if seen[r.Index] {
			continue
		}
		seen[r.Index] = true
		out = append(out, domain.RankedIndex{Index: r.Index, Score: r.RelevanceScore})
	}

	metrics.ProviderRequestsTotal.WithLabelValues(metrics.KindRerank, c.provider, c.model, "success").Inc()
	metrics.ProviderRequestDuration.WithLabelValues(metrics.KindRerank, c.provider, c.model).Observe(duration.Seconds())

	c.logger.Debug("Rerank request completed",
		zap.String("provider", c.provider),
		zap.Int("documents", len(documents)),
		zap.Int("results", len(out)),
		zap.Duration("duration", duration),
	)
	return out, nil
}

func (c *Client) recordFailure(errorType string) {
	metrics.ProviderRequestsTotal.WithLabelValues(metrics.KindRerank, c.provider, c.model, "error").Inc()
	metrics.ProviderErrorsTotal.WithLabelValues(metrics.KindRerank, c.provider, c.model, errorType).Inc()
}
