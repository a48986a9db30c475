package repository

import "errors"

// Sentinel kinds for persistence errors.
var (
	ErrNotFound       = errors.New("key not found")
	ErrInvalidKey     = errors.New("invalid storage key")
	ErrUnknownBackend = errors.New("unknown storage backend")
	ErrUnknownCodec   = errors.New("unknown storage codec")
	ErrMissingConfig  = errors.New("missing storage configuration")
)
