package openai

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/sagar8080/semantic-search-system/internal/domain"
	"github.com/sagar8080/semantic-search-system/internal/metrics"
)

// parseAPIError extracts a human-readable error from the API response and wraps it
// with the provider sentinel so callers can classify it with errors.Is.
// A 429 additionally wraps domain.ErrRateLimited.
func parseAPIError(kind string, err error, wrap error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail == "" {
			detail = string(reqErr.Body)
		}
		return fmt.Errorf("%s API error %d: %s: %w", kind, reqErr.HTTPStatusCode, detail, withStatus(wrap, reqErr.HTTPStatusCode))
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s API error %d: %s: %w", kind, apiErr.HTTPStatusCode, apiErr.Message, withStatus(wrap, apiErr.HTTPStatusCode))
	}

	return fmt.Errorf("%s request failed: %w: %w", kind, err, wrap)
}

func withStatus(wrap error, status int) error {
	if status == http.StatusTooManyRequests {
		return errors.Join(wrap, domain.ErrRateLimited)
	}
	return wrap
}

// extractDetail extracts the "detail" field from a JSON error body (Nebius error format).
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}

func recordFailure(kind, provider, model, errorType string) {
	metrics.ProviderRequestsTotal.WithLabelValues(kind, provider, model, "error").Inc()
	metrics.ProviderErrorsTotal.WithLabelValues(kind, provider, model, errorType).Inc()
}

func recordSuccess(kind, provider, model string, d time.Duration, prompt, completion, total int) {
	metrics.ProviderRequestsTotal.WithLabelValues(kind, provider, model, "success").Inc()
	metrics.ProviderRequestDuration.WithLabelValues(kind, provider, model).Observe(d.Seconds())
	if prompt > 0 {
		metrics.ProviderTokensTotal.WithLabelValues(kind, provider, model, "prompt").Add(float64(prompt))
	}
	if completion > 0 {
		metrics.ProviderTokensTotal.WithLabelValues(kind, provider, model, "completion").Add(float64(completion))
	}
	if total > 0 {
		metrics.ProviderTokensTotal.WithLabelValues(kind, provider, model, "total").Add(float64(total))
	}
}
