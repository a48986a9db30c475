package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	service "github.com/okian/pairwise/internal/app"
	"github.com/okian/pairwise/pkg/metrics"
)

const maxVoteBodyBytes = 1 << 16

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// VoteDependencies defines the vote recording operation.
type VoteDependencies interface {
	RecordVote(ctx context.Context, v service.Vote) (service.VoteResult, error)
}

// VotesHandler handles vote submissions.
type VotesHandler struct {
	deps    VoteDependencies
	limiter *limiterSet
}

// NewVotesHandler creates a new votes handler.
func NewVotesHandler(deps VoteDependencies, limiter *limiterSet) *VotesHandler {
	if limiter == nil {
		limiter = newLimiterSet(defaultVoteLimit, defaultVoteBurst)
	}
	return &VotesHandler{deps: deps, limiter: limiter}
}

// voteRequest is the body of POST /lists/{id}/votes.
type voteRequest struct {
	VoteID   string `json:"vote_id" validate:"omitempty,max=128"`
	WinnerID string `json:"winner_id" validate:"required,max=256,nefield=LoserID"`
	LoserID  string `json:"loser_id" validate:"required,max=256"`
}

// HandlePostVote handles POST /lists/{id}/votes requests.
func (h *VotesHandler) HandlePostVote(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_vote"
	listID := r.PathValue("id")

	if !h.limiter.Allow(listID) {
		metrics.RecordRateLimited("votes")
		writeError(w, http.StatusTooManyRequests, "rate_limited", NewKind(op, ErrRateLimited))
		return
	}

	var req voteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxVoteBodyBytes)).Decode(&req); err != nil {
		metrics.RecordRejectedVote("malformed")
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := validate.Struct(req); err != nil {
		metrics.RecordRejectedVote("validation")
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, validationError(err)))
		return
	}

	res, err := h.deps.RecordVote(r.Context(), service.Vote{
		VoteID:   req.VoteID,
		ListID:   listID,
		WinnerID: req.WinnerID,
		LoserID:  req.LoserID,
	})
	if err != nil {
		writeServiceError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// validationError flattens validator output into one readable error.
func validationError(err error) error {
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		return err
	}
	parts := make([]string, 0, len(fields))
	for _, fe := range fields {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fe.Field()+" is required")
		case "nefield":
			parts = append(parts, fe.Field()+" must differ from loser_id")
		case "max":
			parts = append(parts, fmt.Sprintf("%s exceeds %s characters", fe.Field(), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return errors.New(strings.Join(parts, "; "))
}
