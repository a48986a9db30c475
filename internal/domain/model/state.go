// Package model contains domain models passed between layers.
package model

// Item is one entry of a list. Only ID takes part in ranking; Label is
// carried through for display.
type Item struct {
	ID    string `json:"id" cbor:"id"`
	Label string `json:"label" cbor:"label"`
}

// ListInfo identifies a list in the catalog index.
type ListInfo struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// List is a loaded list: its identity plus items in catalog order.
type List struct {
	Info  ListInfo
	Items []Item
}

// IDs returns the item identifiers in list order.
func (l List) IDs() []string {
	ids := make([]string, len(l.Items))
	for i, it := range l.Items {
		ids[i] = it.ID
	}
	return ids
}

// ListState is the persisted comparison record of one list.
// WinMatrix[i][j] counts how many times ItemIDs[i] beat ItemIDs[j].
// MatchTotals is a cache derivable from WinMatrix and may be absent.
type ListState struct {
	ItemIDs     []string   `json:"item_ids" cbor:"item_ids"`
	WinMatrix   [][]uint32 `json:"win_matrix" cbor:"win_matrix"`
	Abilities   []float64  `json:"abilities" cbor:"abilities"`
	MatchTotals []uint32   `json:"match_totals,omitempty" cbor:"match_totals,omitempty"`
}

// Len returns the number of items tracked by the state.
func (s ListState) Len() int { return len(s.ItemIDs) }

// IndexOf returns the position of id, or -1.
func (s ListState) IndexOf(id string) int {
	for i, v := range s.ItemIDs {
		if v == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy that shares no slices with s.
func (s ListState) Clone() ListState {
	out := ListState{
		ItemIDs:   append([]string(nil), s.ItemIDs...),
		Abilities: append([]float64(nil), s.Abilities...),
	}
	if s.MatchTotals != nil {
		out.MatchTotals = append([]uint32(nil), s.MatchTotals...)
	}
	if s.WinMatrix != nil {
		out.WinMatrix = make([][]uint32, len(s.WinMatrix))
		for i, row := range s.WinMatrix {
			out.WinMatrix[i] = append([]uint32(nil), row...)
		}
	}
	return out
}

// AppState is the process-wide persisted record.
type AppState struct {
	SelectedListID *string              `json:"selected_list_id,omitempty" cbor:"selected_list_id,omitempty"`
	Lists          map[string]ListState `json:"lists" cbor:"lists"`
}

// NewAppState returns the empty default state.
func NewAppState() AppState {
	return AppState{Lists: make(map[string]ListState)}
}

// Clone returns a deep copy of the app state.
func (a AppState) Clone() AppState {
	out := NewAppState()
	if a.SelectedListID != nil {
		id := *a.SelectedListID
		out.SelectedListID = &id
	}
	for k, v := range a.Lists {
		out.Lists[k] = v.Clone()
	}
	return out
}

// Selected returns the selected list id, if any.
func (a AppState) Selected() (string, bool) {
	if a.SelectedListID == nil || *a.SelectedListID == "" {
		return "", false
	}
	return *a.SelectedListID, true
}

// Select records id as the selected list.
func (a *AppState) Select(id string) {
	a.SelectedListID = &id
}
