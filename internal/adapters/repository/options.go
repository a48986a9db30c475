package repository

import "github.com/okian/pairwise/pkg/logger"

// DefaultKey is the storage key of the application state.
const DefaultKey = "ranking_lists_state"

// Option applies a configuration option to the Gateway.
type Option func(*Gateway)

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(g *Gateway) {
		if key != "" {
			g.key = key
		}
	}
}

// WithCodec sets the state encoding.
func WithCodec(codec Codec) Option {
	return func(g *Gateway) {
		if codec != nil {
			g.codec = codec
		}
	}
}

// WithLogger sets the gateway logger.
func WithLogger(l logger.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.log = l
		}
	}
}
