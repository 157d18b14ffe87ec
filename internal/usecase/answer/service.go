// Package answer synthesizes a chat answer from knowledge-base search results.
package answer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sagar8080/semantic-search-system/internal/domain"
	"github.com/sagar8080/semantic-search-system/internal/domain/search/request"
	"github.com/sagar8080/semantic-search-system/internal/domain/search/result"
	"github.com/sagar8080/semantic-search-system/internal/logger"
)

const (
	// KBResults is how many knowledge-base documents are requested per question.
	KBResults = 5
	// MinKBDocs is the number of knowledge-base documents below which the caller should consult the web.
	MinKBDocs = 3
	// MaxContextDocs caps the documents placed in the prompt.
	MaxContextDocs = 5

	maxTokens      = 2048
	temperature    = 0.3
	excerptLimit   = 1500
	apologyMessage = "Sorry, I encountered an error while generating a response."
)

const systemPrompt = `You answer questions about government press releases.
Use the numbered documents when they are relevant and cite them as [n].
If the documents do not cover the question, say so and answer from general knowledge.`

// Searcher is the knowledge-base search the answer flow runs on.
type Searcher interface {
	KB(ctx context.Context, req *request.Request) []result.Candidate
}

// Source is a document the answer was grounded on.
type Source struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	URL         string `json:"url,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
}

// Answer is the synthesized reply.
type Answer struct {
	ID          string   `json:"id"`
	Text        string   `json:"answer"`
	Sources     []Source `json:"sources"`
	WebFallback bool     `json:"web_fallback"`
	Degraded    bool     `json:"degraded"`
}

// Service answers questions over the knowledge base.
type Service struct {
	search    Searcher
	completer domain.Completer
	timeout   time.Duration
	logger    *zap.Logger
}

// New creates an answer service. timeout bounds the completion call; zero disables it.
func New(search Searcher, completer domain.Completer, timeout time.Duration, l *zap.Logger) *Service {
	if l == nil {
		l = zap.NewNop()
	}
	return &Service{search: search, completer: completer, timeout: timeout, logger: l}
}

// Answer retrieves confident knowledge-base documents and asks the completion provider to answer from them.
// Only an invalid question is an error; provider failures produce an apology with Degraded set.
func (s *Service) Answer(ctx context.Context, question string) (Answer, error) {
	req, err := request.New(request.Params{Query: question, K: KBResults})
	if err != nil {
		return Answer{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	if req.Query() == "" {
		return Answer{}, fmt.Errorf("%w: question is required", domain.ErrInvalidRequest)
	}

	l := logger.FromContextOr(ctx, s.logger)

	docs := s.search.KB(ctx, &req)
	ans := Answer{
		ID:          uuid.NewString(),
		Sources:     sources(docs),
		WebFallback: len(docs) < MinKBDocs,
	}

	if len(docs) == 0 {
		l.Warn("No knowledge-base documents, answering from the prompt alone")
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.completer.Complete(ctx, buildPrompt(req.Query(), docs), domain.CompletionOptions{
		System:      systemPrompt,
		MaxTokens:   maxTokens,
		Temperature: domain.Temperature(temperature),
	})
	if err != nil {
		l.Error("Answer completion failed", zap.String("answer_id", ans.ID), zap.Error(err))
		ans.Text = apologyMessage
		ans.Degraded = true
		return ans, nil
	}

	ans.Text = strings.TrimSpace(res.Text)
	l.Debug("Answer generated",
		zap.String("answer_id", ans.ID),
		zap.Int("documents", len(ans.Sources)),
		zap.Bool("web_fallback", ans.WebFallback),
		zap.Int("completion_tokens", res.CompletionTokens),
	)
	return ans, nil
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func sources(docs []result.Candidate) []Source {
	n := min(len(docs), MaxContextDocs)
	out := make([]Source, 0, n)
	for i := range docs[:n] {
		d := docs[i].Document()
		out = append(out, Source{ID: d.ID, Title: d.Title, URL: d.URL, PublishedAt: d.PublishedDate()})
	}
	return out
}

func buildPrompt(question string, docs []result.Candidate) string {
	var b strings.Builder
	if len(docs) > 0 {
		b.WriteString("Documents:\n\n")
		for i := range docs[:min(len(docs), MaxContextDocs)] {
			d := docs[i].Document()
			fmt.Fprintf(&b, "[%d] %s\n", i+1, strings.TrimSpace(d.Title))
			if date := d.PublishedDate(); date != "" {
				fmt.Fprintf(&b, "Published: %s\n", date)
			}
			if sum := strings.TrimSpace(d.Summary); sum != "" {
				fmt.Fprintf(&b, "Summary: %s\n", sum)
			}
			if body := excerpt(d.Content, excerptLimit); body != "" {
				fmt.Fprintf(&b, "Content: %s\n", body)
			}
			b.WriteString("\n")
		}
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}

func excerpt(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
