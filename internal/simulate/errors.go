package simulate

import (
	"errors"
	"fmt"
)

var (
	ErrUnhealthy     = errors.New("service unhealthy")
	ErrTooFewItems   = errors.New("list needs at least two items")
	ErrInvalidConfig = errors.New("invalid simulation config")
)

// StatusError is a non-success API response.
type StatusError struct {
	Status  int
	Code    string
	Message string
}

func (e *StatusError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("status %d", e.Status)
	}
	return fmt.Sprintf("status %d: %s: %s", e.Status, e.Code, e.Message)
}
