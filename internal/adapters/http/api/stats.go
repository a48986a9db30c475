package api

import (
	"net/http"
	"time"
)

// StatsProvider exposes a snapshot of service counters.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// StatsHandler serves GET /stats: the provider snapshot plus process uptime.
type StatsHandler struct {
	statsProvider StatsProvider
	startedAt     time.Time
	now           func() time.Time
}

// NewStatsHandler creates a stats handler; uptime is measured from this call.
func NewStatsHandler(statsProvider StatsProvider) *StatsHandler {
	return &StatsHandler{statsProvider: statsProvider, startedAt: time.Now(), now: time.Now}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, _ *http.Request) {
	snapshot := h.statsProvider.GetStats()
	body := make(map[string]interface{}, len(snapshot)+1)
	for k, v := range snapshot {
		body[k] = v
	}
	body["uptime_seconds"] = int64(h.now().Sub(h.startedAt) / time.Second)
	writeJSON(w, http.StatusOK, body)
}
