// Package ingest loads press releases into the index: documents without a vector are
// embedded in batches, then written one by one. A bad document is reported and skipped;
// it never stops the run.
package ingest

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sagar8080/semantic-search-system/internal/domain"
	"github.com/sagar8080/semantic-search-system/internal/domain/document"
)

const (
	DefaultBatchSize = 32
	DefaultWorkers   = 4

	// maxEmbedRunes keeps a single input under common 8k-token provider limits.
	maxEmbedRunes = 8000
)

// Writer persists a document, replacing any previous version.
type Writer interface {
	Put(ctx context.Context, d *document.Document) error
}

// Config tunes a run. Zero values select the defaults.
type Config struct {
	Dimensions int
	BatchSize  int
	Workers    int
}

// Failure is a document that was not stored. Line is set for input that never became a document.
type Failure struct {
	ID   string
	Line int
	Err  error
}

func (f Failure) Error() string {
	if f.ID == "" {
		return fmt.Sprintf("line %d: %v", f.Line, f.Err)
	}
	return fmt.Sprintf("%s: %v", f.ID, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// Report summarizes a run.
type Report struct {
	Stored   int
	Embedded int
	Tokens   int
	Failures []Failure
	Elapsed  time.Duration
}

func (r *Report) merge(o Report) {
	r.Stored += o.Stored
	r.Embedded += o.Embedded
	r.Tokens += o.Tokens
	r.Failures = append(r.Failures, o.Failures...)
}

func (r *Report) fail(d *document.Document, err error) {
	r.Failures = append(r.Failures, Failure{ID: d.ID, Err: err})
}

// Service runs ingestion.
type Service struct {
	embedder domain.Embedder
	writer   Writer
	cfg      Config
	logger   *zap.Logger
}

// New creates the service. embedder must be the document-side embedder, without any query
// instruction. With a nil embedder, documents lacking a vector are stored lexical-only.
func New(embedder domain.Embedder, writer Writer, cfg Config, logger *zap.Logger) *Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{embedder: embedder, writer: writer, cfg: cfg, logger: logger}
}

// Run stores docs, filling in missing embeddings in place. The error is non-nil only
// when ctx ends before every batch was attempted; the report is valid either way.
func (s *Service) Run(ctx context.Context, docs []document.Document) (Report, error) {
	start := time.Now()
	var rep Report

	valid := make([]*document.Document, 0, len(docs))
	for i := range docs {
		d := &docs[i]
		if err := d.Validate(s.cfg.Dimensions); err != nil {
			rep.fail(d, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err))
			continue
		}
		valid = append(valid, d)
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(s.cfg.Workers)
	for batch := range slices.Chunk(valid, s.cfg.BatchSize) {
		g.Go(func() error {
			part := s.runBatch(ctx, batch)
			mu.Lock()
			rep.merge(part)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	slices.SortFunc(rep.Failures, func(a, b Failure) int {
		return cmp.Or(cmp.Compare(a.Line, b.Line), cmp.Compare(a.ID, b.ID))
	})
	rep.Elapsed = time.Since(start)

	s.logger.Info("Ingest finished",
		zap.Int("documents", len(docs)),
		zap.Int("stored", rep.Stored),
		zap.Int("embedded", rep.Embedded),
		zap.Int("failed", len(rep.Failures)),
		zap.Int("tokens", rep.Tokens),
		zap.Duration("elapsed", rep.Elapsed),
	)
	if err := ctx.Err(); err != nil {
		return rep, fmt.Errorf("ingest interrupted: %w", err)
	}
	return rep, nil
}

func (s *Service) runBatch(ctx context.Context, batch []*document.Document) Report {
	var rep Report
	if err := ctx.Err(); err != nil {
		for _, d := range batch {
			rep.fail(d, err)
		}
		return rep
	}

	ready := s.embedMissing(ctx, batch, &rep)
	for _, d := range ready {
		if err := s.writer.Put(ctx, d); err != nil {
			s.logger.Warn("Failed to store document", zap.String("id", d.ID), zap.Error(err))
			rep.fail(d, err)
			continue
		}
		rep.Stored++
	}
	return rep
}

// embedMissing returns the documents of batch that now carry a vector.
func (s *Service) embedMissing(ctx context.Context, batch []*document.Document, rep *Report) []*document.Document {
	ready := make([]*document.Document, 0, len(batch))
	var need []*document.Document
	for _, d := range batch {
		if len(d.Embedding) > 0 {
			ready = append(ready, d)
		} else {
			need = append(need, d)
		}
	}
	if len(need) == 0 {
		return ready
	}
	if s.embedder == nil {
		return batch
	}

	texts := make([]string, len(need))
	for i, d := range need {
		texts[i] = embedText(d)
	}

	results, errs := s.embed(ctx, texts)
	for i, d := range need {
		err := errs[i]
		if err == nil {
			err = results[i].Check(s.cfg.Dimensions)
		}
		if err != nil {
			s.logger.Warn("Failed to embed document", zap.String("id", d.ID), zap.Error(err))
			rep.fail(d, fmt.Errorf("embed: %w", err))
			continue
		}
		d.Embedding = results[i].Embedding
		rep.Embedded++
		rep.Tokens += results[i].TotalTokens
		ready = append(ready, d)
	}
	return ready
}

// embed uses one batch call when the provider supports it, otherwise one call per text.
// errs[i] is the error for texts[i].
func (s *Service) embed(ctx context.Context, texts []string) ([]domain.EmbeddingResult, []error) {
	results := make([]domain.EmbeddingResult, len(texts))
	errs := make([]error, len(texts))

	if b, ok := s.embedder.(domain.BatchEmbedder); ok {
		out, err := b.EmbedBatch(ctx, texts)
		if err == nil && len(out) != len(texts) {
			err = fmt.Errorf("got %d embeddings for %d texts: %w", len(out), len(texts), domain.ErrEmbeddingProviderError)
		}
		if err != nil {
			for i := range errs {
				errs[i] = err
			}
			return results, errs
		}
		return out, errs
	}

	for i, text := range texts {
		results[i], errs[i] = s.embedder.Embed(ctx, text)
	}
	return results, errs
}

func embedText(d *document.Document) string {
	text := d.RankText()
	if r := []rune(text); len(r) > maxEmbedRunes {
		return string(r[:maxEmbedRunes])
	}
	return text
}
