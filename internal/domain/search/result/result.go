package result

import "github.com/sagar8080/semantic-search-system/internal/domain/document"

// Candidate is a document hit plus its query-relative scores.
// Scores only mean something inside the request that produced them.
type Candidate struct {
	doc         document.Document
	score       float64
	hasScore    bool
	normalized  float64
	hasNorm     bool
	relevance   float64
	hasRelevant bool
}

// New creates a candidate carrying the store's raw relevance score.
func New(doc document.Document, score float64) Candidate {
	return Candidate{doc: doc, score: score, hasScore: true}
}

// NewUnscored creates a candidate without a raw score.
func NewUnscored(doc document.Document) Candidate {
	return Candidate{doc: doc}
}

// ID returns the document identifier.
func (c *Candidate) ID() string { return c.doc.ID }

// Document returns the hit's document.
func (c *Candidate) Document() document.Document { return c.doc }

// Score returns the raw store score and whether one is present.
func (c *Candidate) Score() (float64, bool) { return c.score, c.hasScore }

// NormalizedScore returns the [1,100] display score and whether one is attached.
func (c *Candidate) NormalizedScore() (float64, bool) { return c.normalized, c.hasNorm }

// RelevanceScore returns the reranker's [0,1] score and whether one is attached.
func (c *Candidate) RelevanceScore() (float64, bool) { return c.relevance, c.hasRelevant }

// WithNormalizedScore returns a copy with the normalized score attached.
func (c Candidate) WithNormalizedScore(v float64) Candidate {
	c.normalized = v
	c.hasNorm = true
	return c
}

// WithRelevanceScore returns a copy with the reranker score attached.
func (c Candidate) WithRelevanceScore(v float64) Candidate {
	c.relevance = v
	c.hasRelevant = true
	return c
}
