// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/okian/snapjudge/internal/domain/model"
	"github.com/okian/snapjudge/internal/domain/types"
)

// defaultHistoryLimit bounds GET /history pages when no limit is given.
const defaultHistoryLimit = 50

// HistoryDependencies defines the interface for comparison history reads.
type HistoryDependencies interface {
	History(ctx context.Context, requesterID, eventID string, category model.Category, limit, offset int) ([]types.ComparisonRecord, string, error)
}

// HistoryHandler handles comparison history requests.
type HistoryHandler struct {
	deps HistoryDependencies
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(deps HistoryDependencies) *HistoryHandler {
	return &HistoryHandler{deps: deps}
}

// HandleGetHistory handles GET /history?event_id=E&category=C&limit=N&offset=M
// requests.
func (h *HistoryHandler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
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
	limit, ok := positiveOrDefault(q.Get("limit"), defaultHistoryLimit)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	offset, ok := positiveOrDefault(q.Get("offset"), 0)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	records, reason, err := h.deps.History(r.Context(), voter, eventID, model.Category(q.Get("category")), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	if reason != "" {
		writeReason(w, reason)
		return
	}
	if records == nil {
		records = []types.ComparisonRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func positiveOrDefault(s string, def int) (int, bool) {
	if s == "" {
		return def, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
