// Package ranking implements the pairwise strength model.
//
// Each item holds one positive ability. The probability that item i is
// preferred over item j is ability[i] / (ability[i] + ability[j]) (the
// Bradley-Terry model). Abilities are estimated from a win matrix with the
// minorization-maximization update and kept normalised to sum to one.
package ranking

import (
	"fmt"
	"math"
)

// Model constants.
const (
	// MinAbility is the floor applied to every ability.
	MinAbility = 1e-6

	displayBase         = 1000.0
	defaultDisplayScale = 100.0
	epsilon             = 0x1p-52
)

// Model holds one ability per item, in win-matrix order.
type Model struct {
	abilities    []float64
	displayScale float64
}

// New returns a model with count items and a uniform prior.
func New(count int, opts ...Option) *Model {
	if count < 0 {
		count = 0
	}
	m := &Model{
		abilities:    make([]float64, count),
		displayScale: defaultDisplayScale,
	}
	for i := range m.abilities {
		m.abilities[i] = 1.0
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// FromAbilities adopts values, clamping every entry to MinAbility.
// The slice is copied.
func FromAbilities(values []float64, opts ...Option) *Model {
	m := New(0, opts...)
	if len(values) == 0 {
		return m
	}
	m.abilities = make([]float64, len(values))
	for i, v := range values {
		m.abilities[i] = floor(v)
	}
	return m
}

// Len returns the number of items in the model.
func (m *Model) Len() int { return len(m.abilities) }

// Abilities returns a copy of the ability vector.
func (m *Model) Abilities() []float64 {
	return append([]float64(nil), m.abilities...)
}

// Ability returns the raw ability of item i, or 0 when i is out of range.
func (m *Model) Ability(i int) float64 {
	if i < 0 || i >= len(m.abilities) {
		return 0
	}
	return m.abilities[i]
}

// EnsureLength grows or truncates the ability vector to exactly n entries
// and renormalises it when non-empty. New entries start at 1/n.
func (m *Model) EnsureLength(n int) {
	if n < 0 {
		n = 0
	}
	switch {
	case len(m.abilities) < n:
		fill := 1.0
		if n > 0 {
			fill = 1.0 / float64(n)
		}
		for len(m.abilities) < n {
			m.abilities = append(m.abilities, fill)
		}
	case len(m.abilities) > n:
		m.abilities = m.abilities[:n]
	}
	if len(m.abilities) > 0 {
		Normalize(m.abilities)
	}
}

// ExpectedOutcome returns the predicted probability that item i beats item j.
func (m *Model) ExpectedOutcome(i, j int) float64 {
	if len(m.abilities) == 0 {
		return 0.5
	}
	ai := floor(m.Ability(i))
	aj := floor(m.Ability(j))
	return ai / (ai + aj)
}

// Fit runs a fixed number of minorization-maximization passes over wins.
// wins[i][j] is the number of times item i beat item j. The model is resized
// to len(wins) first. Each pass reads the previous pass's abilities and the
// result is renormalised before the next pass. Items without wins keep their
// ability for that pass.
func (m *Model) Fit(wins [][]uint32, iterations int) error {
	n := len(wins)
	if n == 0 || iterations <= 0 {
		return nil
	}
	for i, row := range wins {
		if len(row) != n {
			return fmt.Errorf("row %d has %d columns, want %d: %w", i, len(row), n, ErrDimensionMismatch)
		}
	}
	m.EnsureLength(n)

	current := append([]float64(nil), m.abilities...)
	totalWins := make([]float64, n)
	for i, row := range wins {
		for j, w := range row {
			if i != j {
				totalWins[i] += float64(w)
			}
		}
	}

	for iter := 0; iter < iterations; iter++ {
		updated := append([]float64(nil), current...)
		for i := 0; i < n; i++ {
			if totalWins[i] <= 0 {
				continue
			}
			denom := 0.0
			for j := 0; j < n; j++ {
				if i == j {
					continue
				}
				total := uint64(wins[i][j]) + uint64(wins[j][i])
				if total == 0 {
					continue
				}
				denom += float64(total) / (current[i] + current[j] + MinAbility)
			}
			if denom > 0 {
				updated[i] = floor(totalWins[i] / denom)
			}
		}
		Normalize(updated)
		current = updated
	}

	m.abilities = current
	return nil
}

// LogScore returns the natural log of item i's ability. Missing items score 0.
func (m *Model) LogScore(i int) float64 {
	if i < 0 || i >= len(m.abilities) {
		return 0
	}
	return math.Log(m.abilities[i])
}

// DisplayRating maps item i's ability onto a readable scale anchored at 1000.
// The ability is multiplied by the item count so an average item rates 1000
// regardless of list size.
func (m *Model) DisplayRating(i int) float64 {
	ability := 1.0
	if i >= 0 && i < len(m.abilities) {
		ability = m.abilities[i]
	}
	ability = floor(ability)
	count := float64(max(len(m.abilities), 1))
	return math.Max(0, displayBase+m.displayScale*math.Log(ability*count))
}

// Normalize rescales values in place so they sum to one. Each entry is
// floored at MinAbility first. When the sum is negligible every entry is
// reset to 1/n.
func Normalize(values []float64) {
	if len(values) == 0 {
		return
	}
	sum := 0.0
	for _, v := range values {
		sum += floor(v)
	}
	if sum <= epsilon || math.IsNaN(sum) || math.IsInf(sum, 0) {
		uniform := 1.0 / float64(len(values))
		for i := range values {
			values[i] = uniform
		}
		return
	}
	for i, v := range values {
		values[i] = floor(v) / sum
	}
}

// floor clamps v to MinAbility; NaN also maps to the floor.
func floor(v float64) float64 {
	if math.IsNaN(v) || v < MinAbility {
		return MinAbility
	}
	return v
}
