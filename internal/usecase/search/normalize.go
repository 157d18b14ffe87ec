package search

import "github.com/sagar8080/semantic-search-system/internal/domain/search/result"

// Normalized score bounds.
const (
	MinNormalizedScore = 1.0
	MaxNormalizedScore = 100.0
)

// Normalize attaches a normalized score in [1,100] to every candidate by min-max rescaling the
// raw scores of this result set. Order is preserved. Scores are only comparable within one set.
//
// A candidate without a raw score gets 1. When every raw score is equal the set gets 100
// (scores > 0) or 1 (scores == 0).
func Normalize(cands []result.Candidate) []result.Candidate {
	if len(cands) == 0 {
		return cands
	}

	lo, hi := 0.0, 0.0
	scored := 0
	for i := range cands {
		s, ok := cands[i].Score()
		if !ok {
			continue
		}
		if scored == 0 || s < lo {
			lo = s
		}
		if scored == 0 || s > hi {
			hi = s
		}
		scored++
	}

	out := make([]result.Candidate, len(cands))
	for i := range cands {
		s, ok := cands[i].Score()
		var n float64
		switch {
		case !ok:
			n = MinNormalizedScore
		case hi == lo && hi > 0:
			n = MaxNormalizedScore
		case hi == lo:
			n = MinNormalizedScore
		default:
			n = MinNormalizedScore + (s-lo)/(hi-lo)*(MaxNormalizedScore-MinNormalizedScore)
			n = min(max(n, MinNormalizedScore), MaxNormalizedScore)
		}
		out[i] = cands[i].WithNormalizedScore(n)
	}
	return out
}
