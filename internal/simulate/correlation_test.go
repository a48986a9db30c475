package simulate

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSpearman(t *testing.T) {
	Convey("Given two orderings", t, func() {
		truth := []string{"a", "b", "c", "d", "e"}

		Convey("Identical orders correlate perfectly", func() {
			So(spearman(truth, truth), ShouldEqual, 1)
		})

		Convey("Reversed orders correlate negatively", func() {
			So(spearman(truth, []string{"e", "d", "c", "b", "a"}), ShouldEqual, -1)
		})

		Convey("One adjacent swap stays strongly positive", func() {
			So(spearman(truth, []string{"b", "a", "c", "d", "e"}), ShouldAlmostEqual, 0.9, 1e-9)
		})

		Convey("Ids missing on one side are ignored", func() {
			So(spearman(truth, []string{"a", "x", "b", "c"}), ShouldEqual, 1)
		})

		Convey("Fewer than two shared ids correlate perfectly", func() {
			So(spearman(truth, []string{"c"}), ShouldEqual, 1)
			So(spearman(nil, nil), ShouldEqual, 1)
		})
	})
}

func TestSamePair(t *testing.T) {
	Convey("Given matchups", t, func() {
		ab := matchupResponse{Left: item{ID: "a"}, Right: item{ID: "b"}}

		So(samePair(ab, ab), ShouldBeTrue)
		So(samePair(ab, matchupResponse{Left: item{ID: "b"}, Right: item{ID: "a"}}), ShouldBeTrue)
		So(samePair(ab, matchupResponse{Left: item{ID: "a"}, Right: item{ID: "c"}}), ShouldBeFalse)
	})
}

func TestConfigValidate(t *testing.T) {
	Convey("Given a simulation config", t, func() {
		cfg := Config{BaseURL: "http://localhost:9080", ListID: "fruits", Votes: 10, Voters: 1}

		Convey("A complete config is valid", func() {
			So(cfg.validate(), ShouldBeNil)
		})

		Convey("Noise outside [0, 1] is rejected", func() {
			cfg.Noise = 1.5
			So(errors.Is(cfg.validate(), ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("Zero voters is rejected", func() {
			cfg.Voters = 0
			So(errors.Is(cfg.validate(), ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("A missing list is rejected", func() {
			cfg.ListID = ""
			So(errors.Is(cfg.validate(), ErrInvalidConfig), ShouldBeTrue)
		})
	})
}
