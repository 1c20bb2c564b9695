// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/snapjudge/internal/domain/types"
)

// PhotoStatsDependencies defines the interface for per-photo standings.
type PhotoStatsDependencies interface {
	PhotoStats(ctx context.Context, requesterID, eventID, photoID string) (*types.PhotoStats, string, error)
}

// PhotoStatsHandler handles photo stats requests.
type PhotoStatsHandler struct {
	deps PhotoStatsDependencies
}

// NewPhotoStatsHandler creates a new photo stats handler.
func NewPhotoStatsHandler(deps PhotoStatsDependencies) *PhotoStatsHandler {
	return &PhotoStatsHandler{deps: deps}
}

// HandleGetPhotoStats handles GET /photos/{photo_id}/stats?event_id=E requests.
func (h *PhotoStatsHandler) HandleGetPhotoStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	// Extract path parameter between /photos/ and /stats
	path := strings.TrimPrefix(r.URL.Path, "/photos/")
	photoID, ok := strings.CutSuffix(path, "/stats")
	if !ok || photoID == "" || strings.Contains(photoID, "/") {
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

	stats, reason, err := h.deps.PhotoStats(r.Context(), voter, eventID, photoID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	if reason != "" {
		writeReason(w, reason)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
