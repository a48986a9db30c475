package ranking_test

import (
	"math"
	"testing"

	ranking "github.com/okian/pairwise/internal/domain/ranking"
	. "github.com/smartystreets/goconvey/convey"
)

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}

func TestModel_New(t *testing.T) {
	Convey("Given a new model with three items", t, func() {
		m := ranking.New(3)

		Convey("Then every ability is equal", func() {
			abilities := m.Abilities()
			So(abilities, ShouldHaveLength, 3)
			So(abilities[0], ShouldEqual, abilities[1])
			So(abilities[1], ShouldEqual, abilities[2])
		})

		Convey("And the expected outcome of any pair is a coin flip", func() {
			So(m.ExpectedOutcome(0, 2), ShouldAlmostEqual, 0.5, 1e-12)
		})
	})

	Convey("Given an empty model", t, func() {
		m := ranking.New(0)

		Convey("Then the expected outcome defaults to 0.5", func() {
			So(m.ExpectedOutcome(0, 1), ShouldEqual, 0.5)
		})

		Convey("And fitting is a no-op", func() {
			So(m.Fit(nil, 10), ShouldBeNil)
			So(m.Len(), ShouldEqual, 0)
		})
	})
}

func TestModel_FromAbilities(t *testing.T) {
	Convey("Given abilities with values below the floor", t, func() {
		m := ranking.FromAbilities([]float64{0.5, 0, -3, math.NaN()})

		Convey("Then every entry is clamped to the floor", func() {
			abilities := m.Abilities()
			So(abilities[0], ShouldEqual, 0.5)
			So(abilities[1], ShouldEqual, ranking.MinAbility)
			So(abilities[2], ShouldEqual, ranking.MinAbility)
			So(abilities[3], ShouldEqual, ranking.MinAbility)
		})
	})

	Convey("Given no abilities", t, func() {
		m := ranking.FromAbilities(nil)

		Convey("Then the model has zero items", func() {
			So(m.Len(), ShouldEqual, 0)
		})
	})

	Convey("Given a caller-owned slice", t, func() {
		values := []float64{0.25, 0.75}
		m := ranking.FromAbilities(values)
		values[0] = 9

		Convey("Then the model does not alias it", func() {
			So(m.Ability(0), ShouldEqual, 0.25)
		})
	})
}

func TestModel_EnsureLength(t *testing.T) {
	Convey("Given a normalised two-item model", t, func() {
		m := ranking.FromAbilities([]float64{0.8, 0.2})

		Convey("When growing to four items", func() {
			m.EnsureLength(4)

			Convey("Then the vector has four entries summing to one", func() {
				So(m.Len(), ShouldEqual, 4)
				So(sum(m.Abilities()), ShouldAlmostEqual, 1.0, 1e-9)
			})

			Convey("And the original ordering is preserved", func() {
				So(m.Ability(0), ShouldBeGreaterThan, m.Ability(1))
			})
		})

		Convey("When truncating to one item", func() {
			m.EnsureLength(1)

			Convey("Then the remaining item holds all the mass", func() {
				So(m.Len(), ShouldEqual, 1)
				So(m.Ability(0), ShouldAlmostEqual, 1.0, 1e-12)
			})
		})

		Convey("When truncating to zero items", func() {
			m.EnsureLength(0)
			So(m.Len(), ShouldEqual, 0)
		})
	})
}

func TestModel_Fit(t *testing.T) {
	Convey("Given a uniform three-item model", t, func() {
		m := ranking.New(3)

		Convey("When item 0 beats item 1 three times", func() {
			wins := [][]uint32{
				{0, 3, 0},
				{0, 0, 0},
				{0, 0, 0},
			}
			err := m.Fit(wins, 10)

			Convey("Then item 0 is stronger than both others", func() {
				So(err, ShouldBeNil)
				So(m.Ability(0), ShouldBeGreaterThan, m.Ability(1))
				So(m.Ability(0), ShouldBeGreaterThan, m.Ability(2))
			})

			Convey("And abilities sum to one", func() {
				So(sum(m.Abilities()), ShouldAlmostEqual, 1.0, 1e-6)
			})

			Convey("And every ability respects the floor", func() {
				for _, a := range m.Abilities() {
					So(a, ShouldBeGreaterThanOrEqualTo, ranking.MinAbility)
				}
			})
		})

		Convey("When five iterations are run on a lopsided record", func() {
			err := m.Fit([][]uint32{{0, 5, 0}, {0, 0, 0}, {0, 0, 0}}, 5)

			Convey("Then normalisation still holds", func() {
				So(err, ShouldBeNil)
				So(sum(m.Abilities()), ShouldAlmostEqual, 1.0, 1e-6)
			})
		})

		Convey("When zero iterations are requested", func() {
			before := m.Abilities()
			So(m.Fit([][]uint32{{0, 1, 0}, {0, 0, 0}, {0, 0, 0}}, 0), ShouldBeNil)

			Convey("Then nothing changes", func() {
				So(m.Abilities(), ShouldResemble, before)
			})
		})

		Convey("When the win matrix is not square", func() {
			err := m.Fit([][]uint32{{0, 1}, {0}}, 3)

			Convey("Then a dimension error is returned", func() {
				So(err, ShouldWrap, ranking.ErrDimensionMismatch)
			})
		})

		Convey("When the matrix is larger than the model", func() {
			wins := [][]uint32{
				{0, 2, 0, 0},
				{1, 0, 0, 0},
				{0, 0, 0, 0},
				{0, 0, 0, 0},
			}
			So(m.Fit(wins, 3), ShouldBeNil)

			Convey("Then the model is resized to match", func() {
				So(m.Len(), ShouldEqual, 4)
				So(sum(m.Abilities()), ShouldAlmostEqual, 1.0, 1e-6)
			})
		})
	})

	Convey("Given identical inputs", t, func() {
		wins := [][]uint32{{0, 4, 1}, {2, 0, 3}, {1, 1, 0}}
		a := ranking.New(3)
		b := ranking.New(3)
		So(a.Fit(wins, 20), ShouldBeNil)
		So(b.Fit(wins, 20), ShouldBeNil)

		Convey("Then fitting is deterministic", func() {
			So(a.Abilities(), ShouldResemble, b.Abilities())
		})
	})

	Convey("Given a pair whose combined count exceeds uint32", t, func() {
		wins := [][]uint32{
			{0, math.MaxUint32, 0},
			{1, 0, 0},
			{0, 0, 0},
		}
		m := ranking.New(3)
		So(m.Fit(wins, 5), ShouldBeNil)

		Convey("Then the pair still counts and the frequent winner leads", func() {
			So(m.Ability(0), ShouldBeGreaterThan, m.Ability(1))
			So(sum(m.Abilities()), ShouldAlmostEqual, 1.0, 1e-6)
		})
	})

	Convey("Given a balanced cycle", t, func() {
		wins := [][]uint32{{0, 2, 0}, {0, 0, 2}, {2, 0, 0}}
		m := ranking.New(3)
		So(m.Fit(wins, 50), ShouldBeNil)

		Convey("Then all items converge to equal strength", func() {
			So(m.Ability(0), ShouldAlmostEqual, 1.0/3, 1e-6)
			So(m.Ability(1), ShouldAlmostEqual, 1.0/3, 1e-6)
			So(m.Ability(2), ShouldAlmostEqual, 1.0/3, 1e-6)
		})
	})
}

func TestModel_Scores(t *testing.T) {
	Convey("Given a normalised two-item model", t, func() {
		m := ranking.FromAbilities([]float64{0.5, 0.5})

		Convey("Then an average item rates at the baseline", func() {
			So(m.DisplayRating(0), ShouldAlmostEqual, 1000.0, 1e-9)
		})

		Convey("And the log score is the natural log of the ability", func() {
			So(m.LogScore(1), ShouldAlmostEqual, math.Log(0.5), 1e-12)
		})

		Convey("And out-of-range lookups fall back to neutral values", func() {
			So(m.LogScore(7), ShouldEqual, 0.0)
			So(m.Ability(-1), ShouldEqual, 0.0)
		})
	})

	Convey("Given a custom display scale", t, func() {
		m := ranking.FromAbilities([]float64{0.75, 0.25}, ranking.WithDisplayScale(400))

		Convey("Then ratings spread with the scale and stay monotonic", func() {
			So(m.DisplayRating(0), ShouldAlmostEqual, 1000+400*math.Log(1.5), 1e-9)
			So(m.DisplayRating(0), ShouldBeGreaterThan, m.DisplayRating(1))
		})
	})

	Convey("Given a nearly zero ability", t, func() {
		m := ranking.FromAbilities([]float64{ranking.MinAbility, 1})

		Convey("Then the display rating never goes negative", func() {
			So(m.DisplayRating(0), ShouldBeGreaterThanOrEqualTo, 0.0)
		})
	})
}

func TestNormalize(t *testing.T) {
	Convey("Given positive values", t, func() {
		values := []float64{1, 3}
		ranking.Normalize(values)

		Convey("Then they are divided by their sum", func() {
			So(values[0], ShouldAlmostEqual, 0.25, 1e-12)
			So(values[1], ShouldAlmostEqual, 0.75, 1e-12)
		})
	})

	Convey("Given values containing infinity", t, func() {
		values := []float64{math.Inf(1), 1}
		ranking.Normalize(values)

		Convey("Then the vector resets to uniform", func() {
			So(values[0], ShouldEqual, 0.5)
			So(values[1], ShouldEqual, 0.5)
		})
	})

	Convey("Given all-zero values", t, func() {
		values := []float64{0, 0, 0, 0}
		ranking.Normalize(values)

		Convey("Then the floor keeps them uniform and non-zero", func() {
			for _, v := range values {
				So(v, ShouldAlmostEqual, 0.25, 1e-12)
			}
		})
	})

	Convey("Given an empty slice", t, func() {
		So(func() { ranking.Normalize(nil) }, ShouldNotPanic)
	})
}
