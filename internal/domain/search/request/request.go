package request

import (
	"fmt"
	"strings"
	"time"

	"github.com/sagar8080/semantic-search-system/internal/domain/search/mode"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength   = 4096
	DefaultK         = 5
	MaxK             = 100
	DefaultFuzziness = 1
	MaxFuzziness     = 2
)

// Params is the raw, unvalidated input of a search.
type Params struct {
	Query     string
	Mode      mode.Mode
	K         int
	Fuzziness *int // nil selects the mode default
	From      *time.Time
	To        *time.Time
	Expand    bool
	Rerank    bool
}

// Request is a validated search query. An empty query is valid here:
// the orchestrator answers it with an empty result list.
type Request struct {
	query      string
	searchMode mode.Mode
	k          int
	fuzziness  int
	from       *time.Time
	to         *time.Time
	expand     bool
	rerank     bool
}

// New validates and normalizes search parameters.
// Defaults: mode=pro, k=5, fuzziness=0 for simple and 1 otherwise. k is clamped to MaxK.
func New(p Params) (Request, error) {
	q := strings.TrimSpace(p.Query)
	if len(q) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}

	m := p.Mode
	if m == "" {
		m = mode.Pro
	}
	if !m.IsValid() {
		return Request{}, fmt.Errorf("invalid search mode: %q", m)
	}

	k := p.K
	if k < 0 {
		return Request{}, fmt.Errorf("k must be positive")
	}
	if k == 0 {
		k = DefaultK
	}
	if k > MaxK {
		k = MaxK
	}

	fuzziness := DefaultFuzziness
	if m == mode.Simple {
		fuzziness = 0
	}
	if p.Fuzziness != nil {
		fuzziness = *p.Fuzziness
	}
	if fuzziness < 0 || fuzziness > MaxFuzziness {
		return Request{}, fmt.Errorf("fuzziness must be between 0 and %d", MaxFuzziness)
	}

	if p.From != nil && p.To != nil && p.From.After(*p.To) {
		return Request{}, fmt.Errorf("start date must not be after end date")
	}

	return Request{
		query:      q,
		searchMode: m,
		k:          k,
		fuzziness:  fuzziness,
		from:       p.From,
		to:         p.To,
		expand:     p.Expand,
		rerank:     p.Rerank,
	}, nil
}

// Query returns the trimmed search query text.
func (r *Request) Query() string { return r.query }

// Mode returns the retrieval mode.
func (r *Request) Mode() mode.Mode { return r.searchMode }

// K returns the maximum number of results to return.
func (r *Request) K() int { return r.k }

// Fuzziness returns the maximum edit distance for fuzzy matches.
func (r *Request) Fuzziness() int { return r.fuzziness }

// From returns the inclusive lower publication date bound, or nil.
func (r *Request) From() *time.Time { return r.from }

// To returns the inclusive upper publication date bound, or nil.
func (r *Request) To() *time.Time { return r.to }

// HasDateRange reports whether either date bound is set.
func (r *Request) HasDateRange() bool { return r.from != nil || r.to != nil }

// Expand reports whether LLM query expansion is requested.
func (r *Request) Expand() bool { return r.expand }

// Rerank reports whether reranking is requested.
func (r *Request) Rerank() bool { return r.rerank }
