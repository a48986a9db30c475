// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/pairwise/internal/app"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ListsDependencies
	MatchupDependencies
	VoteDependencies
	RankingDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	listsHandler   *ListsHandler
	matchupHandler *MatchupHandler
	votesHandler   *VotesHandler
	rankingHandler *RankingHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		listsHandler:   NewListsHandler(deps),
		matchupHandler: NewMatchupHandler(deps),
		votesHandler:   NewVotesHandler(deps, newLimiterSet(o.voteLimit, o.voteBurst)),
		rankingHandler: NewRankingHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /lists", MetricsMiddleware(s.listsHandler.HandleGetLists, "lists"))
	mux.HandleFunc("POST /lists/{id}/select", MetricsMiddleware(s.listsHandler.HandleSelect, "select"))
	mux.HandleFunc("DELETE /lists/{id}", MetricsMiddleware(s.listsHandler.HandleReset, "reset"))
	mux.HandleFunc("GET /lists/{id}/matchup", MetricsMiddleware(s.matchupHandler.HandleGetMatchup, "matchup"))
	mux.HandleFunc("POST /lists/{id}/skip", MetricsMiddleware(s.matchupHandler.HandleSkip, "skip"))
	mux.HandleFunc("POST /lists/{id}/votes", MetricsMiddleware(s.votesHandler.HandlePostVote, "votes"))
	mux.HandleFunc("GET /lists/{id}/ranking", MetricsMiddleware(s.rankingHandler.HandleGetRanking, "ranking"))
}

type errorResponse struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates service failures into status codes.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	var notFound *service.ListNotFoundError
	switch {
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, errorResponse{
			Code:       "not_found",
			Message:    Wrap(op, err).Error(),
			Suggestion: notFound.Suggestion,
		})
	case errors.Is(err, service.ErrListNotFound):
		writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
	case errors.Is(err, service.ErrNoMatchup):
		writeError(w, http.StatusConflict, "no_matchup", Wrap(op, err))
	case errors.Is(err, service.ErrInvalidVote), errors.Is(err, service.ErrUnknownItem):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", Wrap(op, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
