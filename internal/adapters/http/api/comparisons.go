// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/snapjudge/internal/app"
	"github.com/okian/snapjudge/internal/domain/model"
	"github.com/okian/snapjudge/internal/domain/types"
)

// ComparisonDependencies defines the interface for comparison submission.
type ComparisonDependencies interface {
	SubmitComparison(ctx context.Context, voterID, eventID string, category model.Category, photoAID, photoBID, winnerID string) (*types.SubmitResult, error)
	SkipComparison(ctx context.Context, voterID, eventID string, category model.Category, photoAID, photoBID string) (*types.SubmitResult, error)
}

// ComparisonsHandler handles comparison and skip submissions.
type ComparisonsHandler struct {
	deps ComparisonDependencies
}

// NewComparisonsHandler creates a new comparisons handler.
func NewComparisonsHandler(deps ComparisonDependencies) *ComparisonsHandler {
	return &ComparisonsHandler{deps: deps}
}

// HandlePostComparison handles POST /comparisons requests.
func (h *ComparisonsHandler) HandlePostComparison(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, false)
}

// HandlePostSkip handles POST /comparisons/skip requests. A skip carries the
// same pair payload but never a winner.
func (h *ComparisonsHandler) HandlePostSkip(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, true)
}

func (h *ComparisonsHandler) handle(w http.ResponseWriter, r *http.Request, skip bool) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	voter := voterID(r)
	if voter == "" {
		writeError(w, http.StatusBadRequest, "missing_voter", ErrMissingVoter)
		return
	}
	var req comparisonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	var (
		res *types.SubmitResult
		err error
	)
	category := model.Category(req.Category)
	if skip {
		res, err = h.deps.SkipComparison(r.Context(), voter, req.EventID, category, req.PhotoAID, req.PhotoBID)
	} else {
		res, err = h.deps.SubmitComparison(r.Context(), voter, req.EventID, category, req.PhotoAID, req.PhotoBID, req.WinnerPhotoID)
	}
	if err != nil {
		if errors.Is(err, service.ErrWriteConflict) {
			writeError(w, http.StatusConflict, "write_conflict", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	if !res.Recorded {
		writeReason(w, res.Reason)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}
