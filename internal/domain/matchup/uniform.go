package matchup

import "math/rand"

// Uniform pairs items uniformly at random, ignoring abilities and history.
// With three or more items it never repeats the previous pair.
type Uniform struct{}

// Sample implements Sampler.
func (Uniform) Sample(rng *rand.Rand, in Input) (Matchup, bool) {
	count := uniformCount(in)
	if count < 2 {
		return Matchup{}, false
	}

	left := rng.Intn(count)
	excluded := -1
	if count >= 3 && in.Previous != nil {
		switch left {
		case in.Previous.Left:
			excluded = in.Previous.Right
		case in.Previous.Right:
			excluded = in.Previous.Left
		}
	}

	if excluded >= count || excluded == left {
		excluded = -1
	}

	// Draw from the other items, skipping left and the excluded partner by
	// shifting the drawn slot past them in ascending order.
	slots := count - 1
	if excluded >= 0 {
		slots--
	}
	pick := rng.Intn(slots)
	skip := []int{left, excluded}
	if excluded >= 0 && excluded < left {
		skip[0], skip[1] = excluded, left
	}
	for _, s := range skip {
		if s >= 0 && pick >= s {
			pick++
		}
	}
	return Matchup{Left: left, Right: pick}, true
}

// uniformCount uses whichever of abilities or wins is populated, and the
// shorter of the two when both are.
func uniformCount(in Input) int {
	switch {
	case len(in.Abilities) == 0:
		return len(in.Wins)
	case len(in.Wins) == 0:
		return len(in.Abilities)
	default:
		return min(len(in.Abilities), len(in.Wins))
	}
}
