package service

import (
	"errors"
	"fmt"
)

// Sentinel kinds for service errors.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrClosed       = errors.New("service closed")
	ErrNoCatalog    = errors.New("no catalog configured")
	ErrListNotFound = errors.New("list not found")
	ErrListInvalid  = errors.New("list invalid")
	ErrNoMatchup    = errors.New("no matchup available")
	ErrInvalidVote  = errors.New("invalid vote")
	ErrUnknownItem  = errors.New("unknown item")
)

// ListNotFoundError reports an unknown list id, with the closest known id
// when one is near enough.
type ListNotFoundError struct {
	ListID     string
	Suggestion string
}

func (e *ListNotFoundError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("list %q not found (did you mean %q?)", e.ListID, e.Suggestion)
	}
	return fmt.Sprintf("list %q not found", e.ListID)
}

func (e *ListNotFoundError) Unwrap() error { return ErrListNotFound }
