// Package matchup picks the next pair of items to compare.
//
// Samplers are stateless: every call is a pure function of its Input and
// the caller's random source.
package matchup

import (
	"math"
	"math/rand"
)

// MinWeight floors every sampling weight.
const MinWeight = 1e-9

// Matchup is a pair of distinct item positions presented for comparison.
type Matchup struct {
	Left  int `json:"left_index"`
	Right int `json:"right_index"`
}

// Matches reports whether m pairs a and b, in either order.
func (m Matchup) Matches(a, b int) bool {
	return (m.Left == a && m.Right == b) || (m.Left == b && m.Right == a)
}

// Valid reports whether m is a usable matchup for n items.
func (m Matchup) Valid(n int) bool {
	return m.Left != m.Right && m.Left >= 0 && m.Right >= 0 && m.Left < n && m.Right < n
}

// Input carries the state a sampler reads. Totals may be nil, in which case
// per-item match counts are derived from Wins.
type Input struct {
	Abilities []float64
	Wins      [][]uint32
	Totals    []uint32
	Previous  *Matchup
}

// Sampler selects the next matchup. ok is false when no matchup exists.
type Sampler interface {
	Sample(rng *rand.Rand, in Input) (m Matchup, ok bool)
}

// WeightedIndex draws an index with probability proportional to its weight.
// Non-finite or non-positive weights are replaced by MinWeight; if every
// weight is unusable the draw fails.
func WeightedIndex(rng *rand.Rand, weights []float64) (int, bool) {
	if len(weights) == 0 {
		return 0, false
	}
	usable := false
	for _, w := range weights {
		if isUsable(w) {
			usable = true
			break
		}
	}
	if !usable {
		return 0, false
	}

	total := 0.0
	for _, w := range weights {
		total += sanitize(w)
	}
	if !isUsable(total) {
		return 0, false
	}

	target := rng.Float64() * total
	acc := 0.0
	for i, w := range weights {
		acc += sanitize(w)
		if target < acc {
			return i, true
		}
	}
	return len(weights) - 1, true
}

func isUsable(w float64) bool {
	return w > 0 && !math.IsInf(w, 0) && !math.IsNaN(w)
}

func sanitize(w float64) float64 {
	if isUsable(w) {
		return w
	}
	return MinWeight
}

// pairCount returns the undirected number of comparisons between i and j,
// widened so stored counts near the uint32 limit cannot wrap.
func pairCount(wins [][]uint32, i, j int) uint64 {
	return uint64(cell(wins, i, j)) + uint64(cell(wins, j, i))
}

func cell(wins [][]uint32, i, j int) uint32 {
	if i < 0 || i >= len(wins) || j < 0 || j >= len(wins[i]) {
		return 0
	}
	return wins[i][j]
}

// itemTotal returns the cached total for i when present, else the sum of
// row i and column i excluding the diagonal.
func itemTotal(in Input, i int) uint64 {
	if i < len(in.Totals) {
		return uint64(in.Totals[i])
	}
	var total uint64
	for j := range in.Wins {
		if j != i {
			total += pairCount(in.Wins, i, j)
		}
	}
	return total
}

// ForState returns the uniform sampler when no ability data exists yet and
// the informative sampler otherwise.
func ForState(abilities []float64) Sampler {
	if len(abilities) == 0 {
		return Uniform{}
	}
	return Informative{}
}

// ByName resolves a configured sampler name: "informative", "uniform" or
// "auto". Unknown names fall back to informative.
func ByName(name string, abilities []float64) Sampler {
	switch name {
	case "uniform":
		return Uniform{}
	case "auto":
		return ForState(abilities)
	default:
		return Informative{}
	}
}
