package worker

import (
	"github.com/okian/pairwise/pkg/logger"
)

// Option applies a configuration option to the Flusher.
type Option func(*Flusher)

// WithName sets the flusher name for identification and logging.
func WithName(name string) Option {
	return func(f *Flusher) {
		if name != "" {
			f.name = name
		}
	}
}

// WithLogger sets a custom logger for the flusher.
func WithLogger(l logger.Logger) Option {
	return func(f *Flusher) {
		if l != nil {
			f.logger = l
		}
	}
}
