package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidSchema signals an invalid index schema definition.
	ErrInvalidSchema = errors.New("invalid schema")
	// ErrInvalidRequest signals a query request that failed validation.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")

	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrCompletionProviderError signals a text-completion provider failure.
	ErrCompletionProviderError = errors.New("completion provider error")
	// ErrRerankProviderError signals a reranking provider failure.
	ErrRerankProviderError = errors.New("rerank provider error")
	// ErrEmptyEmbedding signals a provider response without a vector.
	ErrEmptyEmbedding = errors.New("empty embedding")
	// ErrEmptyCompletion signals a provider response without usable text.
	ErrEmptyCompletion = errors.New("empty completion")
)
