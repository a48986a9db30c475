// Package reconcile keeps a persisted list state consistent with the item
// sequence the catalog currently serves.
package reconcile

import (
	"math"

	"github.com/okian/pairwise/internal/domain/model"
	"github.com/okian/pairwise/internal/domain/ranking"
)

// Kind describes what Align had to do.
type Kind string

// Alignment kinds.
const (
	KindCreated   Kind = "created"
	KindUnchanged Kind = "unchanged"
	KindRemapped  Kind = "remapped"
)

// Report summarises how an existing state differs from a new id sequence.
type Report struct {
	Kind      Kind
	Kept      []string
	Added     []string
	Removed   []string
	Reordered bool
}

// Align returns a state for ids, carrying over history from existing by
// item identifier. The result never shares memory with existing.
func Align(existing *model.ListState, ids []string) model.ListState {
	state, _ := AlignReport(existing, ids)
	return state
}

// AlignReport is Align plus a description of the changes applied.
func AlignReport(existing *model.ListState, ids []string) (model.ListState, Report) {
	if existing == nil {
		return fresh(ids), Report{Kind: KindCreated, Added: append([]string(nil), ids...)}
	}

	if aligned(existing, ids) {
		out := existing.Clone()
		if !totalsCurrent(out) {
			out.MatchTotals = MatchTotals(out.WinMatrix)
		}
		return out, Report{Kind: KindUnchanged, Kept: append([]string(nil), ids...)}
	}

	report := Diff(existing, ids)
	report.Kind = KindRemapped

	oldIndex := make(map[string]int, len(existing.ItemIDs))
	for i, id := range existing.ItemIDs {
		oldIndex[id] = i
	}

	out := fresh(ids)
	n := len(ids)
	abilities := make([]float64, n)
	for i := range abilities {
		abilities[i] = 1.0 / float64(n)
	}

	for newI, id := range ids {
		oldI, ok := oldIndex[id]
		if !ok {
			continue
		}
		if oldI < len(existing.Abilities) {
			abilities[newI] = max(existing.Abilities[oldI], ranking.MinAbility)
		}
		for newJ, other := range ids {
			oldJ, ok := oldIndex[other]
			if !ok || newI == newJ {
				continue
			}
			out.WinMatrix[newI][newJ] = cell(existing.WinMatrix, oldI, oldJ)
		}
	}

	ranking.Normalize(abilities)
	out.Abilities = abilities
	out.MatchTotals = MatchTotals(out.WinMatrix)
	return out, report
}

// Diff lists the ids kept, added and removed between existing and ids, and
// whether the kept ids changed relative order.
func Diff(existing *model.ListState, ids []string) Report {
	var report Report
	incoming := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		incoming[id] = struct{}{}
	}
	var before []string
	previous := make(map[string]struct{})
	if existing != nil {
		before = existing.ItemIDs
	}
	for _, id := range before {
		previous[id] = struct{}{}
		if _, ok := incoming[id]; !ok {
			report.Removed = append(report.Removed, id)
		}
	}
	for _, id := range ids {
		if _, ok := previous[id]; ok {
			report.Kept = append(report.Kept, id)
		} else {
			report.Added = append(report.Added, id)
		}
	}

	k := 0
	for _, id := range before {
		if _, ok := incoming[id]; !ok {
			continue
		}
		if k < len(report.Kept) && report.Kept[k] != id {
			report.Reordered = true
			break
		}
		k++
	}
	return report
}

// MatchTotals returns, per item, the number of comparisons it took part in,
// saturating at the uint32 limit.
func MatchTotals(wins [][]uint32) []uint32 {
	n := len(wins)
	totals := make([]uint32, n)
	for i := 0; i < n; i++ {
		var sum uint64
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			sum += uint64(cell(wins, i, j)) + uint64(cell(wins, j, i))
		}
		totals[i] = uint32(min(sum, math.MaxUint32))
	}
	return totals
}

func fresh(ids []string) model.ListState {
	n := len(ids)
	state := model.ListState{
		ItemIDs:     append([]string{}, ids...),
		WinMatrix:   make([][]uint32, n),
		Abilities:   make([]float64, n),
		MatchTotals: make([]uint32, n),
	}
	for i := range state.WinMatrix {
		state.WinMatrix[i] = make([]uint32, n)
		state.Abilities[i] = 1.0 / float64(n)
	}
	return state
}

// aligned reports whether existing already matches ids in order and shape.
func aligned(existing *model.ListState, ids []string) bool {
	n := len(ids)
	if len(existing.ItemIDs) != n || len(existing.WinMatrix) != n || len(existing.Abilities) != n {
		return false
	}
	for i, id := range ids {
		if existing.ItemIDs[i] != id || len(existing.WinMatrix[i]) != n {
			return false
		}
	}
	return true
}

func totalsCurrent(state model.ListState) bool {
	if len(state.MatchTotals) != len(state.ItemIDs) {
		return false
	}
	expected := MatchTotals(state.WinMatrix)
	for i, v := range expected {
		if state.MatchTotals[i] != v {
			return false
		}
	}
	return true
}

func cell(wins [][]uint32, i, j int) uint32 {
	if i < 0 || i >= len(wins) || j < 0 || j >= len(wins[i]) {
		return 0
	}
	return wins[i][j]
}
