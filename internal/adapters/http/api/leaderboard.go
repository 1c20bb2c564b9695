// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/okian/snapjudge/internal/domain/model"
	"github.com/okian/snapjudge/internal/domain/types"
)

// LeaderboardDependencies defines the interface for leaderboard reads.
type LeaderboardDependencies interface {
	Leaderboard(ctx context.Context, requesterID, eventID string, category model.Category, limit int) (*types.Leaderboard, string, error)
}

// LeaderboardHandler handles leaderboard requests.
type LeaderboardHandler struct {
	deps     LeaderboardDependencies
	maxLimit int
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps LeaderboardDependencies, maxLimit int) *LeaderboardHandler {
	return &LeaderboardHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleGetLeaderboard handles GET /leaderboard?event_id=E&category=C&limit=N
// requests. limit is optional; zero means the full ranking.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	voter := voterID(r)
	if voter == "" {
		writeError(w, http.StatusBadRequest, "missing_voter", ErrMissingVoter)
		return
	}
	q := r.URL.Query()
	eventID := q.Get("event_id")
	if eventID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrMissingEventID)
		return
	}
	limit := 0
	if limitStr := q.Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		if n > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", ErrBadRequest)
			return
		}
		limit = n
	}

	board, reason, err := h.deps.Leaderboard(r.Context(), voter, eventID, model.Category(q.Get("category")), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	if reason != "" {
		writeReason(w, reason)
		return
	}
	writeJSON(w, http.StatusOK, board)
}
