// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/okian/snapjudge/internal/domain/types"
)

// MatchupDependencies defines the interface for matchup selection.
type MatchupDependencies interface {
	NextMatchup(ctx context.Context, voterID, eventID string) (*types.Matchup, string, error)
}

// MatchupHandler handles matchup requests.
type MatchupHandler struct {
	deps MatchupDependencies
}

// NewMatchupHandler creates a new matchup handler.
func NewMatchupHandler(deps MatchupDependencies) *MatchupHandler {
	return &MatchupHandler{deps: deps}
}

// HandleGetMatchup handles GET /matchup?event_id=E requests. When no pair is
// available the response is 200 with available=false, since an empty queue
// is a normal state for a voter, not a failure.
func (h *MatchupHandler) HandleGetMatchup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	voter := voterID(r)
	if voter == "" {
		writeError(w, http.StatusBadRequest, "missing_voter", ErrMissingVoter)
		return
	}
	eventID := r.URL.Query().Get("event_id")
	if eventID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrMissingEventID)
		return
	}

	m, reason, err := h.deps.NextMatchup(r.Context(), voter, eventID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	if reason == types.ReasonNoneAvailable {
		writeJSON(w, http.StatusOK, matchupResponse{Available: false, Reason: reason})
		return
	}
	if reason != "" {
		writeReason(w, reason)
		return
	}
	writeJSON(w, http.StatusOK, matchupResponse{Available: true, Matchup: m})
}
