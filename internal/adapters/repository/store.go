// Package repository defines the rating store and comparison log interfaces
// and their in-memory implementations.
package repository

import (
	"context"
	"time"

	"github.com/okian/snapjudge/internal/domain/model"
)

// RatingStore provides keyed access to rating records. One record exists per
// (photo, event, category); records are created lazily and never deleted
// while the photo exists.
type RatingStore interface {
	// Get returns the rating for key.
	// Returns ErrNotFound if no record exists.
	Get(ctx context.Context, key model.RatingKey) (model.PhotoRating, error)

	// GetOrCreate returns the rating for key, creating the initial record if
	// none exists. Idempotent.
	GetOrCreate(ctx context.Context, key model.RatingKey) (model.PhotoRating, error)

	// Update writes r back if its Version matches the stored record, and
	// returns the stored result with the bumped version.
	// Returns ErrConflict when the record moved since it was read, and
	// ErrNotFound when no record exists for the key.
	Update(ctx context.Context, r model.PhotoRating) (model.PhotoRating, error)

	// ListByScore returns every rating for event+category ordered by score
	// descending, ties by photo id ascending.
	ListByScore(ctx context.Context, eventID string, category model.Category) ([]model.PhotoRating, error)

	// ListByUncertainty returns every rating for event+category ordered by
	// uncertainty descending, ties by photo id ascending.
	ListByUncertainty(ctx context.Context, eventID string, category model.Category) ([]model.PhotoRating, error)

	// Count returns the number of ratings tracked for event+category.
	Count(ctx context.Context, eventID string, category model.Category) int

	// Size returns the total number of rating records tracked.
	Size(ctx context.Context) int
}

// ComparisonQuery filters and paginates comparison log reads.
type ComparisonQuery struct {
	EventID  string
	Category model.Category
	VoterID  string // optional; empty matches all voters
	Limit    int    // 0 means no limit
	Offset   int
}

// ComparisonLog is the append-only record of every judged or skipped pairing.
type ComparisonLog interface {
	// Append writes one comparison, assigning its id and timestamp when
	// unset, and returns the stored record. Entries are immutable once
	// written.
	Append(ctx context.Context, c model.Comparison) (model.Comparison, error)

	// List returns matching comparisons, newest first.
	List(ctx context.Context, q ComparisonQuery) ([]model.Comparison, error)

	// CountByVoterSince returns how many comparisons (skips included) the
	// voter logged for event+category at or after since.
	CountByVoterSince(ctx context.Context, eventID string, category model.Category, voterID string, since time.Time) (int, error)

	// RecentPairs returns the unordered pair keys the voter compared for
	// event+category at or after since. See model.PairKey.
	RecentPairs(ctx context.Context, eventID string, category model.Category, voterID string, since time.Time) (map[string]struct{}, error)

	// CountByEventCategory returns the total comparisons logged for
	// event+category.
	CountByEventCategory(ctx context.Context, eventID string, category model.Category) (int, error)

	// Size returns the total number of log entries.
	Size(ctx context.Context) int
}
