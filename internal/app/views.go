package service

import (
	"github.com/okian/pairwise/internal/domain/matchup"
	"github.com/okian/pairwise/internal/domain/model"
)

// Vote is one submitted comparison outcome.
type Vote struct {
	VoteID   string
	ListID   string
	WinnerID string
	LoserID  string
}

// MatchupView is a matchup resolved to items.
type MatchupView struct {
	ListID string     `json:"list_id"`
	Left   model.Item `json:"left"`
	Right  model.Item `json:"right"`
	// LeftWinProbability is the model's predicted chance that Left wins.
	LeftWinProbability float64 `json:"left_win_probability"`

	pair matchup.Matchup
}

// Pair returns the matchup as item positions.
func (m MatchupView) Pair() matchup.Matchup { return m.pair }

// View describes a selected list.
type View struct {
	List        model.ListInfo `json:"list"`
	Items       []model.Item   `json:"items"`
	Comparisons uint64         `json:"comparisons"`
	Matchup     *MatchupView   `json:"matchup,omitempty"`
}

// VoteResult is returned by RecordVote.
type VoteResult struct {
	VoteID    string       `json:"vote_id"`
	Duplicate bool         `json:"duplicate"`
	Matchup   *MatchupView `json:"matchup,omitempty"`
}
