// Package completion holds decorators over text-completion providers.
package completion

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sagar8080/semantic-search-system/internal/domain"
)

// DefaultBackoff is the pause after a provider rate-limit response.
const DefaultBackoff = 30 * time.Second

// RateLimitConfig holds the token bucket settings for outbound completion calls.
type RateLimitConfig struct {
	RequestsPerSecond float64 // zero or negative disables the bucket
	Burst             int
	Backoff           time.Duration
}

// RateLimited wraps a Completer with a token bucket. After a provider rate-limit response
// further calls wait until the backoff has passed.
type RateLimited struct {
	inner   domain.Completer
	limiter *rate.Limiter
	backoff time.Duration
	logger  *zap.Logger

	mu      sync.Mutex
	retryAt time.Time
	now     func() time.Time
}

// NewRateLimited creates the decorator.
func NewRateLimited(inner domain.Completer, cfg RateLimitConfig, l *zap.Logger) *RateLimited {
	if l == nil {
		l = zap.NewNop()
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = DefaultBackoff
	}
	return &RateLimited{
		inner:   inner,
		limiter: rate.NewLimiter(limit, burst),
		backoff: backoff,
		logger:  l,
		now:     time.Now,
	}
}

// Complete waits for a token and delegates to the inner completer.
func (r *RateLimited) Complete(
	ctx context.Context, prompt string, opts domain.CompletionOptions,
) (domain.CompletionResult, error) {
	if err := r.wait(ctx); err != nil {
		return domain.CompletionResult{}, fmt.Errorf("completion rate limit: %w: %w", domain.ErrRateLimited, err)
	}

	res, err := r.inner.Complete(ctx, prompt, opts)
	if err != nil {
		if errors.Is(err, domain.ErrRateLimited) {
			r.recordRateLimit()
		}
		return domain.CompletionResult{}, err
	}
	return res, nil
}

func (r *RateLimited) wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if d := retryAt.Sub(r.now()); d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	return r.limiter.Wait(ctx)
}

func (r *RateLimited) recordRateLimit() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retryAt = r.now().Add(r.backoff)
	r.logger.Warn("Completion provider rate limited, backing off", zap.Duration("backoff", r.backoff))
}
