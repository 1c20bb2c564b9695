// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/okian/snapjudge/internal/domain/model"
	"github.com/okian/snapjudge/internal/domain/types"
)

// voterHeader carries the authenticated member id. Authentication itself is
// handled upstream; this service trusts the header.
const voterHeader = "X-Voter-ID"


// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	NextMatchup(ctx context.Context, voterID, eventID string) (*types.Matchup, string, error)
	SubmitComparison(ctx context.Context, voterID, eventID string, category model.Category, photoAID, photoBID, winnerID string) (*types.SubmitResult, error)
	SkipComparison(ctx context.Context, voterID, eventID string, category model.Category, photoAID, photoBID string) (*types.SubmitResult, error)
	Leaderboard(ctx context.Context, requesterID, eventID string, category model.Category, limit int) (*types.Leaderboard, string, error)
	PhotoStats(ctx context.Context, requesterID, eventID, photoID string) (*types.PhotoStats, string, error)
	SessionBudget(ctx context.Context, voterID, eventID string) ([]types.CategoryBudget, string, error)
	History(ctx context.Context, requesterID, eventID string, category model.Category, limit, offset int) ([]types.ComparisonRecord, string, error)
}

// Server wires HTTP routes for the ranking API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	matchupHandler     *MatchupHandler
	comparisonsHandler *ComparisonsHandler
	leaderboardHandler *LeaderboardHandler
	photoStatsHandler  *PhotoStatsHandler
	sessionHandler     *SessionHandler
	historyHandler     *HistoryHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLeaderboardLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		matchupHandler:     NewMatchupHandler(deps),
		comparisonsHandler: NewComparisonsHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLeaderboardLimit),
		photoStatsHandler:  NewPhotoStatsHandler(deps),
		sessionHandler:     NewSessionHandler(deps),
		historyHandler:     NewHistoryHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/matchup", MetricsMiddleware(s.matchupHandler.HandleGetMatchup, "matchup"))
	mux.HandleFunc("/comparisons/skip", MetricsMiddleware(s.comparisonsHandler.HandlePostSkip, "comparisons_skip"))
	mux.HandleFunc("/comparisons", MetricsMiddleware(s.comparisonsHandler.HandlePostComparison, "comparisons"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/photos/", MetricsMiddleware(s.photoStatsHandler.HandleGetPhotoStats, "photo_stats"))
	mux.HandleFunc("/session", MetricsMiddleware(s.sessionHandler.HandleGetSession, "session"))
	mux.HandleFunc("/history", MetricsMiddleware(s.historyHandler.HandleGetHistory, "history"))
}

// voterID extracts the member identity from the request headers.
func voterID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(voterHeader))
}

// comparisonRequest mirrors the schema for POST /comparisons.
type comparisonRequest struct {
	EventID       string `json:"event_id"`
	Category      string `json:"category"`
	PhotoAID      string `json:"photo_a_id"`
	PhotoBID      string `json:"photo_b_id"`
	WinnerPhotoID string `json:"winner_photo_id,omitempty"`
}

func (c comparisonRequest) validate() error {
	switch {
	case strings.TrimSpace(c.EventID) == "":
		return ErrMissingEventID
	case strings.TrimSpace(c.Category) == "":
		return ErrMissingCategory
	case strings.TrimSpace(c.PhotoAID) == "":
		return ErrMissingPhoto
	case strings.TrimSpace(c.PhotoBID) == "":
		return ErrMissingPhoto
	}
	return nil
}

// matchupResponse wraps GET /matchup so "nothing to judge" is an ordinary
// payload rather than an error status.
type matchupResponse struct {
	Available bool           `json:"available"`
	Reason    string         `json:"reason,omitempty"`
	Matchup   *types.Matchup `json:"matchup,omitempty"`
}

type sessionResponse struct {
	VoterID   string                 `json:"voter_id"`
	EventID   string                 `json:"event_id"`
	Budgets   []types.CategoryBudget `json:"budgets"`
	Exhausted bool                   `json:"exhausted"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
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

// writeReason translates a service-level unavailability reason into the
// matching HTTP status.
func writeReason(w http.ResponseWriter, reason string) {
	writeError(w, reasonStatus(reason), reason, reasonError(reason))
}

func reasonStatus(reason string) int {
	switch reason {
	case types.ReasonEventNotFound, types.ReasonPhotoNotFound:
		return http.StatusNotFound
	case types.ReasonNotMember:
		return http.StatusForbidden
	case types.ReasonNotRanking:
		return http.StatusConflict
	case types.ReasonQuotaExhausted:
		return http.StatusTooManyRequests
	case types.ReasonInvalidCategory, types.ReasonInvalidPair, types.ReasonInvalidWinner:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}

func reasonError(reason string) error {
	switch reason {
	case types.ReasonEventNotFound:
		return ErrEventNotFound
	case types.ReasonPhotoNotFound:
		return ErrPhotoNotFound
	case types.ReasonNotMember:
		return ErrNotMember
	case types.ReasonNotRanking:
		return ErrNotRanking
	case types.ReasonQuotaExhausted:
		return ErrQuotaExhausted
	case types.ReasonInvalidCategory:
		return ErrInvalidCategory
	case types.ReasonInvalidPair:
		return ErrInvalidPair
	case types.ReasonInvalidWinner:
		return ErrInvalidWinner
	default:
		return ErrBadRequest
	}
}
