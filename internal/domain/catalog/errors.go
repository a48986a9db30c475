package catalog

import "errors"

// Sentinel kinds for catalog errors.
var (
	ErrNotFound  = errors.New("list not found")
	ErrParse     = errors.New("list parse failed")
	ErrInvalidID = errors.New("invalid list id")
)
