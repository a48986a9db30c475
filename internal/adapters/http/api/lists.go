package api

import (
	"context"
	"net/http"

	service "github.com/okian/pairwise/internal/app"
	"github.com/okian/pairwise/internal/domain/model"
)

// ListsDependencies defines the list lifecycle operations.
type ListsDependencies interface {
	Lists(ctx context.Context) ([]model.ListInfo, error)
	SelectList(ctx context.Context, listID string) (service.View, error)
	Reset(ctx context.Context, listID string) error
}

// ListsHandler handles list index, selection and reset requests.
type ListsHandler struct {
	deps ListsDependencies
}

// NewListsHandler creates a new lists handler.
func NewListsHandler(deps ListsDependencies) *ListsHandler {
	return &ListsHandler{deps: deps}
}

type listsResponse struct {
	Lists []model.ListInfo `json:"lists"`
}

// HandleGetLists handles GET /lists requests.
func (h *ListsHandler) HandleGetLists(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_lists"
	lists, err := h.deps.Lists(r.Context())
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	if lists == nil {
		lists = []model.ListInfo{}
	}
	writeJSON(w, http.StatusOK, listsResponse{Lists: lists})
}

// HandleSelect handles POST /lists/{id}/select requests.
func (h *ListsHandler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	const op = "api.select_list"
	view, err := h.deps.SelectList(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HandleReset handles DELETE /lists/{id} requests. The list's comparison
// history is discarded; the list itself stays in the catalog.
func (h *ListsHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	const op = "api.reset_list"
	if err := h.deps.Reset(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
