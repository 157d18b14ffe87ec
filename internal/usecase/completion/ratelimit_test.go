package completion

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagar8080/semantic-search-system/internal/domain"
)

type fakeCompleter struct {
	err   error
	calls int
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string, _ domain.CompletionOptions) (domain.CompletionResult, error) {
	f.calls++
	if f.err != nil {
		return domain.CompletionResult{}, f.err
	}
	return domain.CompletionResult{Text: "echo: " + prompt}, nil
}

func TestRateLimited_PassesThrough(t *testing.T) {
	inner := &fakeCompleter{}
	c := NewRateLimited(inner, RateLimitConfig{}, nil)

	res, err := c.Complete(context.Background(), "hi", domain.CompletionOptions{})
	require.NoError(t, err)
	assert.Equal(t, "echo: hi", res.Text)
	assert.Equal(t, 1, inner.calls)
}

func TestRateLimited_WaitRespectsContext(t *testing.T) {
	inner := &fakeCompleter{}
	c := NewRateLimited(inner, RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1}, nil)

	_, err := c.Complete(context.Background(), "first", domain.CompletionOptions{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Complete(ctx, "second", domain.CompletionOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, 1, inner.calls)
}

func TestRateLimited_BacksOffAfterProviderLimit(t *testing.T) {
	inner := &fakeCompleter{err: fmt.Errorf("chat: %w", domain.ErrRateLimited)}
	c := NewRateLimited(inner, RateLimitConfig{Backoff: time.Hour}, nil)

	_, err := c.Complete(context.Background(), "q", domain.CompletionOptions{})
	require.ErrorIs(t, err, domain.ErrRateLimited)

	inner.err = nil
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Complete(ctx, "q", domain.CompletionOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, 1, inner.calls, "no call may reach the provider during backoff")
}

func TestRateLimited_BackoffExpires(t *testing.T) {
	inner := &fakeCompleter{err: domain.ErrRateLimited}
	c := NewRateLimited(inner, RateLimitConfig{Backoff: time.Minute}, nil)
	base := time.Now()
	c.now = func() time.Time { return base }

	_, _ = c.Complete(context.Background(), "q", domain.CompletionOptions{})

	c.now = func() time.Time { return base.Add(2 * time.Minute) }
	inner.err = nil
	_, err := c.Complete(context.Background(), "q", domain.CompletionOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestRateLimited_OtherErrorsNoBackoff(t *testing.T) {
	inner := &fakeCompleter{err: domain.ErrCompletionProviderError}
	c := NewRateLimited(inner, RateLimitConfig{Backoff: time.Hour}, nil)

	_, _ = c.Complete(context.Background(), "q", domain.CompletionOptions{})
	_, _ = c.Complete(context.Background(), "q", domain.CompletionOptions{})
	assert.Equal(t, 2, inner.calls)
}
