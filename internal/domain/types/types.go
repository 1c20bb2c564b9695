// Package types contains common result shapes shared between the service
// and the HTTP adapter.
package types

import (
	"time"

	"github.com/okian/snapjudge/internal/domain/model"
)

// Unavailability reasons returned instead of errors for expected "can't
// proceed" situations.
const (
	ReasonEventNotFound   = "event_not_found"
	ReasonPhotoNotFound   = "photo_not_found"
	ReasonNotMember       = "not_a_member"
	ReasonInvalidCategory = "invalid_category"
	ReasonNotRanking      = "event_not_in_ranking"
	ReasonInvalidPair     = "invalid_pair"
	ReasonInvalidWinner   = "invalid_winner"
	ReasonQuotaExhausted  = "session_quota_exhausted"
	ReasonNoneAvailable   = "no_matchups_available"
)

// Matchup is a pair of photos offered to a voter for one comparison.
type Matchup struct {
	PhotoA             model.Photo    `json:"photo_a"`
	PhotoB             model.Photo    `json:"photo_b"`
	Category           model.Category `json:"category"`
	Prompt             string         `json:"prompt"`
	RemainingInSession int            `json:"remaining_in_session"`
}

// SubmitResult reports the outcome of a comparison or skip submission.
type SubmitResult struct {
	ComparisonID       string `json:"comparison_id,omitempty"`
	Recorded           bool   `json:"recorded"`
	Reason             string `json:"reason,omitempty"`
	RemainingInSession int    `json:"remaining_in_session"`
	MoreAvailable      bool   `json:"more_available"`
}

// RankingEntry is one leaderboard row.
type RankingEntry struct {
	Rank        int     `json:"rank"`
	PhotoID     string  `json:"photo_id"`
	Score       float64 `json:"score"`
	Comparisons int     `json:"comparisons"`
	Wins        int     `json:"wins"`
	WinRate     float64 `json:"win_rate"`
}

// Leaderboard is the ranking for one event+category.
type Leaderboard struct {
	Category         model.Category `json:"category"`
	TotalPhotos      int            `json:"total_photos"`
	TotalComparisons int            `json:"total_comparisons"`
	Rankings         []RankingEntry `json:"rankings"`
}

// CategoryStats is one photo's standing in one category.
type CategoryStats struct {
	Category        model.Category `json:"category"`
	Score           float64        `json:"score"`
	Rank            int            `json:"rank"`
	TotalInCategory int            `json:"total_in_category"`
	Comparisons     int            `json:"comparisons"`
	Wins            int            `json:"wins"`
	WinRate         float64        `json:"win_rate"`
	Uncertainty     float64        `json:"uncertainty"`
	IsStable        bool           `json:"is_stable"`
}

// PhotoStats is a photo's per-category breakdown.
type PhotoStats struct {
	PhotoID     string          `json:"photo_id"`
	PerCategory []CategoryStats `json:"per_category"`
}

// CategoryBudget is a voter's remaining session budget in one category.
type CategoryBudget struct {
	Category  model.Category `json:"category"`
	Remaining int            `json:"remaining"`
}

// ComparisonRecord is one audit entry of the comparison history.
type ComparisonRecord struct {
	ID            string         `json:"id"`
	Category      model.Category `json:"category"`
	PhotoAID      string         `json:"photo_a_id"`
	PhotoBID      string         `json:"photo_b_id"`
	WinnerPhotoID string         `json:"winner_photo_id,omitempty"`
	VoterID       string         `json:"voter_id"`
	WasSkipped    bool           `json:"was_skipped"`
	CreatedAt     time.Time      `json:"created_at"`
}
