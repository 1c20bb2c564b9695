// Package model contains domain models passed between layers.
package model

import "time"

// Category is one independent judging axis. Every photo carries a separate
// rating per category per event.
type Category string

// The fixed category set.
const (
	CategoryBestMoment   Category = "best_moment"
	CategoryFunniest     Category = "funniest"
	CategoryMostArtistic Category = "most_artistic"
)

// prompts maps each category to the question shown alongside a matchup.
var prompts = map[Category]string{
	CategoryBestMoment:   "Which photo captures the best moment?",
	CategoryFunniest:     "Which photo is funnier?",
	CategoryMostArtistic: "Which photo is more artistic?",
}

// Categories returns the fixed category set in stable order.
func Categories() []Category {
	return []Category{CategoryBestMoment, CategoryFunniest, CategoryMostArtistic}
}

// Valid reports whether c is one of the fixed categories.
func (c Category) Valid() bool {
	_, ok := prompts[c]
	return ok
}

// Prompt returns the human-readable question for the category.
func (c Category) Prompt() string {
	return prompts[c]
}

// EventStatus is the lifecycle state of an event, owned by the event
// collaborator. Ranking operations only run in StatusRanking.
type EventStatus string

const (
	StatusDraft   EventStatus = "draft"
	StatusRanking EventStatus = "ranking"
	StatusClosed  EventStatus = "closed"
)

// Event is the slice of the event collaborator's state the engine consumes.
type Event struct {
	ID        string      `json:"id"`
	MemberIDs []string    `json:"member_ids"`
	Status    EventStatus `json:"status"`
}

// HasMember reports whether userID is a member of the event.
func (e Event) HasMember(userID string) bool {
	for _, id := range e.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Photo is the slice of the photo collaborator's state the engine consumes.
type Photo struct {
	ID         string `json:"id"`
	EventID    string `json:"event_id"`
	UploadedBy string `json:"uploaded_by"`
	FilePath   string `json:"file_path"`
	Caption    string `json:"caption"`
}

// RatingKey identifies exactly one rating record.
type RatingKey struct {
	PhotoID  string
	EventID  string
	Category Category
}

// PhotoRating tracks the converging skill estimate for one (photo, event,
// category) triple. Exactly one record exists per key, created lazily the
// first time the photo is referenced in that category. Score math happens
// only in the rating engine.
type PhotoRating struct {
	PhotoID  string   `json:"photo_id"`
	EventID  string   `json:"event_id"`
	Category Category `json:"category"`

	Score           float64 `json:"score"`
	Uncertainty     float64 `json:"uncertainty"`
	KFactor         float64 `json:"k_factor"`
	ComparisonCount int     `json:"comparison_count"`
	WinCount        int     `json:"win_count"`
	IsBootstrapped  bool    `json:"is_bootstrapped"`
	IsStable        bool    `json:"is_stable"`

	// Version guards read-modify-write cycles in the store.
	Version   int64     `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Key returns the identifying triple for the rating.
func (r PhotoRating) Key() RatingKey {
	return RatingKey{PhotoID: r.PhotoID, EventID: r.EventID, Category: r.Category}
}

// WinRate returns wins over comparisons, 0 when no comparisons happened.
func (r PhotoRating) WinRate() float64 {
	if r.ComparisonCount == 0 {
		return 0
	}
	return float64(r.WinCount) / float64(r.ComparisonCount)
}

// Comparison is one judged or skipped pairing, immutable once written.
type Comparison struct {
	ID       string   `json:"id"`
	EventID  string   `json:"event_id"`
	Category Category `json:"category"`

	PhotoAID string `json:"photo_a_id"`
	PhotoBID string `json:"photo_b_id"`
	// WinnerPhotoID is empty for a skip.
	WinnerPhotoID string `json:"winner_photo_id,omitempty"`
	VoterID       string `json:"voter_id"`

	ScoreABefore float64 `json:"score_a_before"`
	ScoreAAfter  float64 `json:"score_a_after"`
	ScoreBBefore float64 `json:"score_b_before"`
	ScoreBAfter  float64 `json:"score_b_after"`

	WasSkipped bool      `json:"was_skipped"`
	CreatedAt  time.Time `json:"created_at"`
}

// PairKey builds an order-independent key for a photo pair, used for the
// recently-compared exclusion set.
func PairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}
