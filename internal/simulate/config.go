// Package simulate drives a running pairwise service with synthetic voters
// who share a hidden true order of the list, then measures how well the
// service's ranking recovers that order.
package simulate

import "time"

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL string        // Base URL of the service
	ListID  string        // List to vote on
	Votes   int           // Total votes to submit
	Voters  int           // Concurrent voters
	Noise   float64       // Probability that a voter picks the weaker item
	Rate    float64       // Client-side votes per second across all voters; 0 is unpaced
	Seed    int64         // Random seed; 0 uses the clock
	Reset   bool          // Reset the list's history before voting
	Timeout time.Duration // HTTP request timeout
	Output  string        // Optional file receiving the JSON report
	Verbose bool          // Log every vote
}

// Report summarizes a finished run.
type Report struct {
	RunID      string        `json:"run_id"`
	ListID     string        `json:"list_id"`
	Items      int           `json:"items"`
	Submitted  int           `json:"submitted"`
	Recorded   int           `json:"recorded"`
	Duplicates int           `json:"duplicates"`
	Failed     int           `json:"failed"`
	Throttled  int           `json:"throttled"`
	Repeats    int           `json:"repeats"`
	Spearman   float64       `json:"spearman"`
	TrueOrder  []string      `json:"true_order"`
	Ranked     []string      `json:"ranked"`
	Duration   time.Duration `json:"duration"`
}

// RepeatShare is the fraction of recorded votes whose next matchup was the
// same pair again.
func (r Report) RepeatShare() float64 {
	if r.Recorded == 0 {
		return 0
	}
	return float64(r.Repeats) / float64(r.Recorded)
}

// item mirrors the API's item shape.
type item struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type matchupResponse struct {
	ListID string `json:"list_id"`
	Left   item   `json:"left"`
	Right  item   `json:"right"`
}

type viewResponse struct {
	Items       []item           `json:"items"`
	Comparisons uint64           `json:"comparisons"`
	Matchup     *matchupResponse `json:"matchup"`
}

type voteRequest struct {
	VoteID   string `json:"vote_id"`
	WinnerID string `json:"winner_id"`
	LoserID  string `json:"loser_id"`
}

type voteResponse struct {
	VoteID    string           `json:"vote_id"`
	Duplicate bool             `json:"duplicate"`
	Matchup   *matchupResponse `json:"matchup"`
}

type rankingResponse struct {
	Entries []struct {
		ItemID string `json:"item_id"`
	} `json:"entries"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
