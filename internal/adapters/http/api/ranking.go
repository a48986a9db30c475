package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/okian/pairwise/internal/domain/types"
)

// Entry mirrors the read shape returned by ranking queries.
type Entry = types.Entry

// RankingDependencies defines the ranking read operation.
type RankingDependencies interface {
	Ranking(ctx context.Context, listID string) ([]Entry, error)
}

// RankingHandler handles ranking requests.
type RankingHandler struct {
	deps RankingDependencies
}

// NewRankingHandler creates a new ranking handler.
func NewRankingHandler(deps RankingDependencies) *RankingHandler {
	return &RankingHandler{deps: deps}
}

type rankingResponse struct {
	ListID  string  `json:"list_id"`
	Entries []Entry `json:"entries"`
}

// HandleGetRanking handles GET /lists/{id}/ranking requests. An optional
// limit query parameter truncates the result to the top entries.
func (h *RankingHandler) HandleGetRanking(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_ranking"
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		limit = n
	}

	listID := r.PathValue("id")
	entries, err := h.deps.Ranking(r.Context(), listID)
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	if entries == nil {
		entries = []Entry{}
	}
	writeJSON(w, http.StatusOK, rankingResponse{ListID: listID, Entries: entries})
}
