package matchup

import (
	"math"
	"math/rand"
)

// Informative sampler constants.
const (
	TopBiasPower      = 0.15
	ProximityAlpha    = 4.0
	RecentPairPenalty = 0.35
	WilsonZ           = 1.96
)

// Informative favours under-measured items for the first pick and close,
// fresh opponents for the second.
type Informative struct{}

// Sample implements Sampler.
func (Informative) Sample(rng *rand.Rand, in Input) (Matchup, bool) {
	count := min(len(in.Abilities), len(in.Wins))
	if count < 2 {
		return Matchup{}, false
	}

	left, ok := WeightedIndex(rng, firstWeights(in, count))
	if !ok {
		return Matchup{}, false
	}

	candidates := opponents(in.Wins, left, count)
	if len(candidates) == 0 {
		return Matchup{}, false
	}

	weights := make([]float64, len(candidates))
	for k, j := range candidates {
		gap := math.Abs(ability(in.Abilities, left) - ability(in.Abilities, j))
		proximity := math.Exp(-ProximityAlpha * gap)
		freshness := 1.0 / (1.0 + float64(pairCount(in.Wins, left, j)))
		strength := ability(in.Abilities, j)

		w := strength * proximity * freshness
		if in.Previous != nil && in.Previous.Matches(left, j) {
			w *= RecentPairPenalty
		}
		weights[k] = math.Max(w, MinWeight)
	}

	var right int
	if k, ok := WeightedIndex(rng, weights); ok {
		right = candidates[k]
	} else {
		right = candidates[rng.Intn(len(candidates))]
	}
	return Matchup{Left: left, Right: right}, true
}

// firstWeights combines a mild ability bias with an uncertainty bias.
func firstWeights(in Input, count int) []float64 {
	total := 0.0
	for i := 0; i < count; i++ {
		total += ability(in.Abilities, i)
	}
	total = math.Max(total, MinWeight)
	opponents := float64(count - 1)

	weights := make([]float64, count)
	for i := 0; i < count; i++ {
		abilityBias := math.Pow(ability(in.Abilities, i)/total, TopBiasPower)
		confidence := Confidence(itemTotal(in, i), opponents)
		uncertainty := math.Max(1-confidence, MinWeight)
		weights[i] = math.Max(abilityBias*uncertainty, MinWeight)
	}
	return weights
}

// Confidence is a Wilson-style estimate of how well an item with matches
// recorded comparisons is measured against opponents possible opponents.
// It is 0 for unplayed items and approaches 1 as coverage grows.
func Confidence(matches uint64, opponents float64) float64 {
	if matches < 1 || opponents <= 1 {
		return 0
	}
	m := float64(matches)
	variance := math.Sqrt(0.25 / m)
	coverage := math.Sqrt(math.Max(opponents-m, 0) / (opponents - 1))
	interval := WilsonZ * variance * coverage
	c := math.Min(math.Max(1-interval, 0), 1)
	return c * c
}

// opponents returns the items never compared with left, or every other
// item when all have been compared.
func opponents(wins [][]uint32, left, count int) []int {
	fresh := make([]int, 0, count-1)
	all := make([]int, 0, count-1)
	for j := 0; j < count; j++ {
		if j == left {
			continue
		}
		if pairCount(wins, left, j) == 0 {
			fresh = append(fresh, j)
		}
		all = append(all, j)
	}
	if len(fresh) > 0 {
		return fresh
	}
	return all
}

// ability returns abilities[i] floored at MinWeight; non-finite values also
// map to the floor.
func ability(abilities []float64, i int) float64 {
	a := abilities[i]
	if !isUsable(a) || a < MinWeight {
		return MinWeight
	}
	return a
}
