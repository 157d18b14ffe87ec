package mode

import (
	"fmt"
	"strings"
)

// Mode is the retrieval recipe chosen once per request.
type Mode string

// Search mode constants.
const (
	// Simple is lexical-only matching over nested entities and topics.
	Simple Mode = "simple"
	// Advanced combines a title/summary match with a k-NN clause.
	Advanced Mode = "advanced"
	// Pro is the fused hybrid with optional expansion and reranking.
	Pro Mode = "pro"
)

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Simple || m == Advanced || m == Pro
}

// RequiresEmbedding reports whether the mode needs a query vector.
func (m Mode) RequiresEmbedding() bool {
	return m == Advanced || m == Pro
}

// Parse accepts a mode name case-insensitively. "enhanced" is an alias for Pro.
func Parse(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if m == "enhanced" {
		m = Pro
	}
	if !m.IsValid() {
		return "", fmt.Errorf("invalid search mode: %q", s)
	}
	return m, nil
}
