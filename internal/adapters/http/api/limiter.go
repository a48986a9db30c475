package api

import (
	"sync"

	"golang.org/x/time/rate"
)

// maxTrackedLimiters bounds the per-list limiter map; ids come from the
// request path and are not trusted.
const maxTrackedLimiters = 1024

// limiterSet hands out one token bucket per list.
type limiterSet struct {
	mu     sync.Mutex
	limit  rate.Limit
	burst  int
	byList map[string]*rate.Limiter
}

func newLimiterSet(limit rate.Limit, burst int) *limiterSet {
	return &limiterSet{
		limit:  limit,
		burst:  burst,
		byList: make(map[string]*rate.Limiter),
	}
}

// Allow reports whether one more vote for list may proceed now.
func (l *limiterSet) Allow(list string) bool {
	if l.limit == rate.Inf {
		return true
	}
	l.mu.Lock()
	lim, ok := l.byList[list]
	if !ok {
		if len(l.byList) >= maxTrackedLimiters {
			clear(l.byList)
		}
		lim = rate.NewLimiter(l.limit, l.burst)
		l.byList[list] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}
