// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/okian/snapjudge/internal/domain/types"
)

// SessionDependencies defines the interface for session budget reads.
type SessionDependencies interface {
	SessionBudget(ctx context.Context, voterID, eventID string) ([]types.CategoryBudget, string, error)
}

// SessionHandler handles session budget requests.
type SessionHandler struct {
	deps SessionDependencies
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(deps SessionDependencies) *SessionHandler {
	return &SessionHandler{deps: deps}
}

// HandleGetSession handles GET /session?event_id=E requests.
func (h *SessionHandler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
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

	budgets, reason, err := h.deps.SessionBudget(r.Context(), voter, eventID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	if reason != "" {
		writeReason(w, reason)
		return
	}
	exhausted := true
	for _, b := range budgets {
		if b.Remaining > 0 {
			exhausted = false
			break
		}
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		VoterID:   voter,
		EventID:   eventID,
		Budgets:   budgets,
		Exhausted: exhausted,
	})
}
