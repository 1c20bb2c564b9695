// Package schedule decides which judging category a voter serves next,
// weighting categories by how much signal they still need.
package schedule

import (
	"context"
	"math/rand"
	"sync"

	"github.com/okian/snapjudge/internal/domain/model"
	"github.com/okian/snapjudge/internal/domain/rating"
)

// Priority weighting constants.
const (
	basePriority          = 1.0
	unbootstrappedWeight  = 2.0
	highUncertaintyWeight = 0.5
	defaultRandomSeed     = 42
)

// RatingSource is the slice of the rating store the scheduler reads.
type RatingSource interface {
	ListByScore(ctx context.Context, eventID string, category model.Category) ([]model.PhotoRating, error)
}

// PhotoSource lists the photos of an event.
type PhotoSource interface {
	PhotosInEvent(ctx context.Context, eventID string) ([]model.Photo, error)
}

// Quota reports the voter's remaining session budget per category.
type Quota interface {
	Remaining(ctx context.Context, voterID, eventID string, category model.Category) (int, error)
}

// Availability estimates how many matchups remain for the voter in an event.
type Availability interface {
	AvailableMatchups(ctx context.Context, voterID, eventID string) (int, error)
}

// Option applies a configuration option to the Scheduler.
type Option func(*Scheduler)

// WithRand sets the randomness source for the weighted draw.
func WithRand(rng *rand.Rand) Option {
	return func(s *Scheduler) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// WithUncertaintyThreshold sets the uncertainty above which a photo counts
// as still needing signal.
func WithUncertaintyThreshold(threshold float64) Option {
	return func(s *Scheduler) {
		if threshold > 0 {
			s.uncertaintyThreshold = threshold
		}
	}
}

// Scheduler chooses the next category by weighted random draw over
// data-scarcity priorities.
type Scheduler struct {
	ratings      RatingSource
	photos       PhotoSource
	quota        Quota
	availability Availability

	uncertaintyThreshold float64

	rngMu sync.Mutex
	rng   *rand.Rand
}

// New creates a category scheduler with configuration options.
func New(ratings RatingSource, photos PhotoSource, quota Quota, availability Availability, opts ...Option) *Scheduler {
	s := &Scheduler{
		ratings:              ratings,
		photos:               photos,
		quota:                quota,
		availability:         availability,
		uncertaintyThreshold: rating.NewEngine().UncertaintyThreshold(),
		rng:                  rand.New(rand.NewSource(defaultRandomSeed)), //nolint:gosec // weighted draw needs uniform-ish randomness, not crypto
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// priority scores one category for the voter. Zero means the category has
// nothing to offer right now: quota spent or no pairable photos.
func (s *Scheduler) priority(ctx context.Context, voterID, eventID string, category model.Category, available int) (float64, error) {
	remaining, err := s.quota.Remaining(ctx, voterID, eventID, category)
	if err != nil {
		return 0, err
	}
	if remaining <= 0 || available <= 0 {
		return 0, nil
	}

	photos, err := s.photos.PhotosInEvent(ctx, eventID)
	if err != nil {
		return 0, err
	}
	ratings, err := s.ratings.ListByScore(ctx, eventID, category)
	if err != nil {
		return 0, err
	}
	byPhoto := make(map[string]model.PhotoRating, len(ratings))
	for _, r := range ratings {
		byPhoto[r.PhotoID] = r
	}

	unbootstrapped, highUncertainty := 0, 0
	for _, photo := range photos {
		r, ok := byPhoto[photo.ID]
		if !ok {
			// No rating yet: the photo has had no signal at all.
			unbootstrapped++
			highUncertainty++
			continue
		}
		if !r.IsBootstrapped {
			unbootstrapped++
		}
		if r.Uncertainty > s.uncertaintyThreshold {
			highUncertainty++
		}
	}

	return basePriority + unbootstrappedWeight*float64(unbootstrapped) + highUncertaintyWeight*float64(highUncertainty), nil
}

// SelectCategory picks one category by weighted random draw over all
// categories with positive priority. Reports no category only when every
// priority is zero.
func (s *Scheduler) SelectCategory(ctx context.Context, voterID, eventID string) (model.Category, bool, error) {
	// Eligibility does not depend on the category, so the pair-count
	// heuristic is computed once.
	available, err := s.availability.AvailableMatchups(ctx, voterID, eventID)
	if err != nil {
		return "", false, err
	}

	categories := model.Categories()
	priorities := make([]float64, len(categories))
	total := 0.0
	for i, category := range categories {
		p, err := s.priority(ctx, voterID, eventID, category, available)
		if err != nil {
			return "", false, err
		}
		priorities[i] = p
		total += p
	}
	if total <= 0 {
		return "", false, nil
	}

	// Cumulative-distribution sampling against a single uniform draw.
	s.rngMu.Lock()
	draw := s.rng.Float64() * total
	s.rngMu.Unlock()

	cumulative := 0.0
	for i, p := range priorities {
		cumulative += p
		if draw < cumulative {
			return categories[i], true, nil
		}
	}
	// Floating error can leave the draw at the boundary; take the last
	// positive category.
	for i := len(priorities) - 1; i >= 0; i-- {
		if priorities[i] > 0 {
			return categories[i], true, nil
		}
	}
	return "", false, nil
}
