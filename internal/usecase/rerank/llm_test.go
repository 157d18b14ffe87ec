package rerank

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagar8080/semantic-search-system/internal/domain"
)

type mockCompleter struct {
	text   string
	err    error
	prompt string
}

func (m *mockCompleter) Complete(_ context.Context, prompt string, _ domain.CompletionOptions) (domain.CompletionResult, error) {
	m.prompt = prompt
	return domain.CompletionResult{Text: m.text}, m.err
}

func TestLLMRanker_Rank(t *testing.T) {
	mc := &mockCompleter{text: "```json\n" +
		`{"results":[{"index":1,"score":0.4},{"index":2,"score":0.95},{"index":9,"score":1},{"index":2,"score":0.1}]}` +
		"\n```"}
	l := NewLLMRanker(mc)

	got, err := l.Rank(context.Background(), "bridge repair", []string{"parks", "roads", "bridges"}, 2)
	require.NoError(t, err)
	assert.Equal(t, []domain.RankedIndex{{Index: 2, Score: 0.95}, {Index: 1, Score: 0.4}}, got)
	assert.True(t, strings.Contains(mc.prompt, "[2] bridges"))
	assert.Contains(t, mc.prompt, "Return the 2 most relevant")
}

func TestLLMRanker_Errors(t *testing.T) {
	tests := []struct {
		name string
		mc   *mockCompleter
	}{
		{"completion error", &mockCompleter{err: errors.New("timeout")}},
		{"not json", &mockCompleter{text: "document 2 is best"}},
		{"no valid indices", &mockCompleter{text: `{"results":[{"index":7,"score":0.5}]}`}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewLLMRanker(tc.mc).Rank(context.Background(), "q", []string{"a"}, 1)
			assert.ErrorIs(t, err, domain.ErrRerankProviderError)
		})
	}
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "a b", excerpt("a \n\n b", 10))
	assert.Equal(t, "abc…", excerpt("abcdef", 3))
}
