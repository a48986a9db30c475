package api

import (
	"context"
	"net/http"

	service "github.com/okian/pairwise/internal/app"
)

// MatchupDependencies defines the matchup read operations.
type MatchupDependencies interface {
	Matchup(ctx context.Context, listID string) (service.MatchupView, error)
	Skip(ctx context.Context, listID string) (service.MatchupView, error)
}

// MatchupHandler handles matchup requests.
type MatchupHandler struct {
	deps MatchupDependencies
}

// NewMatchupHandler creates a new matchup handler.
func NewMatchupHandler(deps MatchupDependencies) *MatchupHandler {
	return &MatchupHandler{deps: deps}
}

// HandleGetMatchup handles GET /lists/{id}/matchup requests.
func (h *MatchupHandler) HandleGetMatchup(w http.ResponseWriter, r *http.Request) {
	m, err := h.deps.Matchup(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, "api.get_matchup", err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// HandleSkip handles POST /lists/{id}/skip requests.
func (h *MatchupHandler) HandleSkip(w http.ResponseWriter, r *http.Request) {
	m, err := h.deps.Skip(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, "api.skip_matchup", err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}
