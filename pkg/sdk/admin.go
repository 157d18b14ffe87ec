package semsearch

import (
	"context"

	domdoc "github.com/sagar8080/semantic-search-system/internal/domain/document"
	searchrepo "github.com/sagar8080/semantic-search-system/internal/repository/search"
	"github.com/sagar8080/semantic-search-system/internal/usecase/ingest"
)

// IndexStats describes the document index.
type IndexStats struct {
	Documents      int64
	PercentIndexed float64 // 0..1
	Indexing       bool
	Failures       int64
}

// Ready reports whether background indexing has caught up.
func (s IndexStats) Ready() bool {
	return !s.Indexing && s.PercentIndexed >= 1
}

// PutFailure is a document PutMany did not store.
type PutFailure struct {
	ID  string
	Err error
}

// PutReport summarizes PutMany.
type PutReport struct {
	Stored   int
	Embedded int
	Failed   []PutFailure
}

// BatchOptions tunes PutMany. Zero values select 32 documents per batch and 4 concurrent
// batches, so the Embedder must be safe for concurrent use.
type BatchOptions struct {
	BatchSize int
	Workers   int
}

// Delete removes a document. It returns ErrNotFound when the document does not exist.
func (c *Client) Delete(ctx context.Context, id string) (err error) {
	defer c.obs.track("delete")(&err)
	return c.docs.Delete(ctx, id)
}

// PutMany stores docs concurrently, embedding those without a vector in batches when an
// Embedder is configured. Individual failures are reported, not returned; the error is
// set only when ctx ends first.
func (c *Client) PutMany(ctx context.Context, docs []Document, opts BatchOptions) (rep PutReport, err error) {
	defer c.obs.track("put_many")(&err)

	domDocs := make([]domdoc.Document, len(docs))
	for i := range docs {
		domDocs[i] = toDomainDocument(&docs[i])
	}

	svc := ingest.New(c.embedder, c.docs, ingest.Config{
		Dimensions: c.cfg.vectorDimensions,
		BatchSize:  opts.BatchSize,
		Workers:    opts.Workers,
	}, c.cfg.logger)

	res, err := svc.Run(ctx, domDocs)
	rep = PutReport{Stored: res.Stored, Embedded: res.Embedded}
	for _, f := range res.Failures {
		rep.Failed = append(rep.Failed, PutFailure{ID: f.ID, Err: f.Err})
	}
	return rep, err
}

// Stats reads the document count and indexing progress. It returns ErrNotFound before EnsureIndex.
func (c *Client) Stats(ctx context.Context) (st IndexStats, err error) {
	defer c.obs.track("stats")(&err)

	s, err := searchrepo.IndexStats(ctx, c.index, c.cfg.index)
	if err != nil {
		return IndexStats{}, err
	}
	return IndexStats{
		Documents:      s.Docs,
		PercentIndexed: s.PercentIndexed,
		Indexing:       s.Indexing,
		Failures:       s.IndexingFailures,
	}, nil
}

// DropIndex removes the index, and every stored document too when deleteDocs is set.
func (c *Client) DropIndex(ctx context.Context, deleteDocs bool) (err error) {
	defer c.obs.track("drop_index")(&err)

	return searchrepo.DropIndex(ctx, c.index, c.cfg.index, deleteDocs)
}
