package db

import (
	"fmt"
	"math"
	"sort"
)

// Normalization rescales one leg's score distribution before combination.
type Normalization string

// Supported normalization techniques.
const (
	NormalizeMinMax Normalization = "min_max"
	NormalizeL2     Normalization = "l2"
)

// Combination merges the normalized per-leg scores of a document.
type Combination string

// Supported combination techniques.
const (
	CombineArithmeticMean Combination = "arithmetic_mean"
	CombineGeometricMean  Combination = "geometric_mean"
	CombineHarmonicMean   Combination = "harmonic_mean"
	CombineRRF            Combination = "rrf"
)

// rrfK is the Reciprocal Rank Fusion constant (standard value from Cormack et al. 2009).
const rrfK = 60

// Fusion is the hybrid score pipeline, fixed when the store is constructed.
// Every technique except rrf yields fused scores in [0,1]; rrf is rescaled into (0,1].
type Fusion struct {
	Normalization Normalization
	Combination   Combination
	Weights       []float64 // per leg; empty means equal weights
}

// DefaultFusion is min-max normalization with arithmetic-mean combination.
func DefaultFusion() Fusion {
	return Fusion{Normalization: NormalizeMinMax, Combination: CombineArithmeticMean}
}

// Validate checks the technique names and weights.
func (f Fusion) Validate() error {
	switch f.Normalization {
	case NormalizeMinMax, NormalizeL2:
	default:
		return fmt.Errorf("unknown normalization technique %q", f.Normalization)
	}
	switch f.Combination {
	case CombineArithmeticMean, CombineGeometricMean, CombineHarmonicMean, CombineRRF:
	default:
		return fmt.Errorf("unknown combination technique %q", f.Combination)
	}
	for _, w := range f.Weights {
		if w < 0 || math.IsNaN(w) {
			return fmt.Errorf("fusion weights must be non-negative")
		}
	}
	return nil
}

func (f Fusion) weight(leg int) float64 {
	if leg < len(f.Weights) {
		return f.Weights[leg]
	}
	return 1
}

// Fuse merges ranked legs into one list ordered by fused score, truncated to size.
// A document missing from a leg scores 0 in that leg. Ties keep first-seen order.
func (f Fusion) Fuse(legs [][]SearchEntry, size int) []SearchEntry {
	type fused struct {
		entry  SearchEntry
		scores []float64
		ranks  []int
		order  int
	}

	merged := make(map[string]*fused)
	var order []string

	for li, leg := range legs {
		norm := f.normalize(leg)
		for rank, e := range leg {
			d, ok := merged[e.Key]
			if !ok {
				d = &fused{
					entry:  e,
					scores: make([]float64, len(legs)),
					ranks:  make([]int, len(legs)),
					order:  len(order),
				}
				merged[e.Key] = d
				order = append(order, e.Key)
			}
			d.scores[li] = norm[rank]
			d.ranks[li] = rank + 1
		}
	}

	out := make([]SearchEntry, 0, len(merged))
	for _, key := range order {
		d := merged[key]
		e := d.entry
		e.Score = f.combine(d.scores, d.ranks)
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })

	if size > 0 && len(out) > size {
		out = out[:size]
	}
	return out
}

func (f Fusion) normalize(leg []SearchEntry) []float64 {
	out := make([]float64, len(leg))
	if len(leg) == 0 {
		return out
	}

	switch f.Normalization {
	case NormalizeL2:
		var sum float64
		for _, e := range leg {
			sum += e.Score * e.Score
		}
		if sum == 0 {
			return out
		}
		norm := math.Sqrt(sum)
		for i, e := range leg {
			out[i] = e.Score / norm
		}
	default:
		lo, hi := leg[0].Score, leg[0].Score
		for _, e := range leg[1:] {
			lo = min(lo, e.Score)
			hi = max(hi, e.Score)
		}
		for i, e := range leg {
			if hi == lo {
				out[i] = 1
				continue
			}
			out[i] = (e.Score - lo) / (hi - lo)
		}
	}
	return out
}

func (f Fusion) combine(scores []float64, ranks []int) float64 {
	var num, den float64

	switch f.Combination {
	case CombineGeometricMean:
		for i, s := range scores {
			if s <= 0 {
				continue
			}
			num += f.weight(i) * math.Log(s)
			den += f.weight(i)
		}
		if den == 0 {
			return 0
		}
		return math.Exp(num / den)

	case CombineHarmonicMean:
		for i, s := range scores {
			if s <= 0 {
				continue
			}
			num += f.weight(i)
			den += f.weight(i) / s
		}
		if den == 0 {
			return 0
		}
		return num / den

	case CombineRRF:
		// score(d) = sum of w_i/(k + rank_i(d)), divided by its maximum sum(w_i)/(k+1).
		for i, r := range ranks {
			den += f.weight(i)
			if r == 0 {
				continue
			}
			num += f.weight(i) / float64(rrfK+r)
		}
		if den == 0 {
			return 0
		}
		return num / (den / float64(rrfK+1))

	default:
		for i, s := range scores {
			num += f.weight(i) * s
			den += f.weight(i)
		}
		if den == 0 {
			return 0
		}
		return num / den
	}
}

// SumScores merges legs by adding raw scores per document, the way a boolean
// should clause accumulates the scores of its matching sub-clauses.
func SumScores(legs [][]SearchEntry, size int) []SearchEntry {
	merged := make(map[string]int)
	var out []SearchEntry

	for _, leg := range legs {
		for _, e := range leg {
			if i, ok := merged[e.Key]; ok {
				out[i].Score += e.Score
				continue
			}
			merged[e.Key] = len(out)
			out = append(out, e)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })

	if size > 0 && len(out) > size {
		out = out[:size]
	}
	return out
}
