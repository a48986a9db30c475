// Package types contains common types used across the application
package types

// Entry represents one row of a list's ranking.
type Entry struct {
	Rank          int     `json:"rank"`
	ItemID        string  `json:"item_id"`
	Label         string  `json:"label"`
	Ability       float64 `json:"ability"`
	LogScore      float64 `json:"log_score"`
	DisplayRating float64 `json:"rating"`
	Matches       uint32  `json:"matches"`
	Wins          uint32  `json:"wins"`
}

// WinRate returns the share of recorded comparisons the item won.
func (e Entry) WinRate() float64 {
	if e.Matches == 0 {
		return 0
	}
	return float64(e.Wins) / float64(e.Matches)
}
