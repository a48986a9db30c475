package api

import "golang.org/x/time/rate"

const (
	defaultVoteLimit = 20
	defaultVoteBurst = 40
)

type options struct {
	voteLimit rate.Limit
	voteBurst int
}

// Option configures the API server.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		voteLimit: defaultVoteLimit,
		voteBurst: defaultVoteBurst,
	}
}

// WithVoteRateLimit sets the sustained votes per second accepted for each
// list and the burst allowed above it. A non-positive limit disables
// rate limiting.
func WithVoteRateLimit(perSecond float64, burst int) Option {
	return func(o *options) {
		if perSecond <= 0 {
			o.voteLimit = rate.Inf
			return
		}
		o.voteLimit = rate.Limit(perSecond)
		if burst > 0 {
			o.voteBurst = burst
		}
	}
}
