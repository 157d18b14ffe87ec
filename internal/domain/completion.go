package domain

import "context"

// Completer turns a prompt into generated text.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts CompletionOptions) (CompletionResult, error)
}

// CompletionOptions tunes a single completion call. Zero values mean provider defaults.
type CompletionOptions struct {
	System      string
	MaxTokens   int
	Temperature *float64
}

// CompletionResult is the generated text plus token usage.
type CompletionResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

// Temperature is a helper for CompletionOptions.Temperature literals.
func Temperature(t float64) *float64 { return &t }
