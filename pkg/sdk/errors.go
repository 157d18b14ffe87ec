package semsearch

import (
	"errors"

	"github.com/sagar8080/semantic-search-system/internal/domain"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound                = domain.ErrNotFound
	ErrInvalidRequest          = domain.ErrInvalidRequest
	ErrVectorDimMismatch       = domain.ErrVectorDimMismatch
	ErrRateLimited             = domain.ErrRateLimited
	ErrEmbeddingProviderError  = domain.ErrEmbeddingProviderError
	ErrCompletionProviderError = domain.ErrCompletionProviderError
	ErrRerankProviderError     = domain.ErrRerankProviderError
)

// ErrCompleterNotConfigured is returned by Answer when no Completer was set.
var ErrCompleterNotConfigured = errors.New("semsearch: completer not configured (use WithCompleter)")
