// Package app provides the ranking engine facade that implements the
// dependencies required by the HTTP API.
package app

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/okian/snapjudge/internal/adapters/catalog"
	repository "github.com/okian/snapjudge/internal/adapters/repository"
	"github.com/okian/snapjudge/internal/domain/matchup"
	"github.com/okian/snapjudge/internal/domain/model"
	"github.com/okian/snapjudge/internal/domain/rating"
	"github.com/okian/snapjudge/internal/domain/schedule"
	"github.com/okian/snapjudge/internal/domain/session"
	"github.com/okian/snapjudge/internal/domain/types"
	"github.com/okian/snapjudge/pkg/logger"
	"github.com/okian/snapjudge/pkg/metrics"
)

// maxWriteRetries bounds the re-read/recompute/re-write cycle on conflicted
// rating writes before the submission surfaces ErrWriteConflict.
const maxWriteRetries = 3

// Service implements the ranking engine over the stores and the domain
// policies. All ranking state lives in the stores; the service itself only
// holds configuration, so concurrent requests are safe.
type Service struct {
	mu sync.RWMutex

	// Collaborators
	events catalog.EventDirectory
	photos catalog.PhotoCatalog

	// Core components
	ratings     repository.RatingStore
	comparisons repository.ComparisonLog
	engine      *rating.Engine
	selector    *matchup.Selector
	scheduler   *schedule.Scheduler
	limiter     *session.Limiter

	// Configuration
	shardCount      int
	sessionLimit    int
	explorationRate float64
	recencyWindow   time.Duration
	randSeed        int64
	now             func() time.Time

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRatingEngine sets a custom-tuned rating engine.
func WithRatingEngine(e *rating.Engine) Option {
	return func(s *Service) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithShardCount sets the number of shards in the rating store.
func WithShardCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.shardCount = count
		}
	}
}

// WithSessionLimit sets the daily per-voter-per-category comparison quota.
func WithSessionLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.sessionLimit = limit
		}
	}
}

// WithExplorationRate sets the probability of exploratory matchup selection.
func WithExplorationRate(rate float64) Option {
	return func(s *Service) {
		if rate >= 0 && rate <= 1 {
			s.explorationRate = rate
		}
	}
}

// WithRecencyWindow sets how long a compared pair stays excluded for a voter.
func WithRecencyWindow(window time.Duration) Option {
	return func(s *Service) {
		if window > 0 {
			s.recencyWindow = window
		}
	}
}

// WithRandSeed seeds the selection randomness so runs are reproducible.
func WithRandSeed(seed int64) Option {
	return func(s *Service) {
		s.randSeed = seed
	}
}

// WithClock sets the clock used for session days, recency windows, and
// record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a new Service over the event and photo collaborators.
func New(events catalog.EventDirectory, photos catalog.PhotoCatalog, opts ...Option) *Service {
	s := &Service{
		events:          events,
		photos:          photos,
		shardCount:      8,
		sessionLimit:    5,
		explorationRate: 0.3,
		recencyWindow:   24 * time.Hour,
		randSeed:        time.Now().UnixNano(),
		now:             time.Now,
		logger:          nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting ranking service...")

	if s.engine == nil {
		s.engine = rating.NewEngine()
	}
	s.ratings = repository.NewMemStore(
		repository.WithShardCount(s.shardCount),
		repository.WithInitialRating(s.engine.NewRating),
		repository.WithStoreClock(s.now),
	)
	s.comparisons = repository.NewMemLog(
		repository.WithLogClock(s.now),
	)
	s.limiter = session.New(s.comparisons,
		session.WithLimit(s.sessionLimit),
		session.WithClock(s.now),
	)
	s.selector = matchup.NewSelector(s.ratings, s.comparisons, s.photos,
		matchup.WithExplorationRate(s.explorationRate),
		matchup.WithRecencyWindow(s.recencyWindow),
		matchup.WithRand(rand.New(rand.NewSource(s.randSeed))), //nolint:gosec // selection draws, not crypto
		matchup.WithClock(s.now),
		matchup.WithDefaultRating(s.engine.NewRating),
	)
	s.scheduler = schedule.New(s.ratings, s.photos, s.limiter, s.selector,
		schedule.WithRand(rand.New(rand.NewSource(s.randSeed+1))), //nolint:gosec // weighted draw, not crypto
		schedule.WithUncertaintyThreshold(s.engine.UncertaintyThreshold()),
	)

	s.started = true
	s.logger.Info(ctx, "ranking service started",
		logger.Int("shards", s.shardCount),
		logger.Int("sessionLimit", s.sessionLimit),
		logger.Float64("explorationRate", s.explorationRate),
		logger.Duration("recencyWindow", s.recencyWindow),
	)

	return nil
}

// Stop shuts the service down.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "ranking service stopped")
}

// precheck resolves the event and verifies the voter may run ranking
// operations on it. A non-empty reason means the operation fails closed.
func (s *Service) precheck(ctx context.Context, voterID, eventID string) (model.Event, string, error) {
	event, err := s.events.Event(ctx, eventID)
	if err != nil {
		if errors.Is(err, catalog.ErrEventNotFound) {
			return model.Event{}, types.ReasonEventNotFound, nil
		}
		return model.Event{}, "", err
	}
	if !event.HasMember(voterID) {
		return model.Event{}, types.ReasonNotMember, nil
	}
	if event.Status != model.StatusRanking {
		return model.Event{}, types.ReasonNotRanking, nil
	}
	return event, "", nil
}

// membercheck resolves the event and verifies membership only; read
// operations stay available outside the ranking phase.
func (s *Service) membercheck(ctx context.Context, userID, eventID string) (model.Event, string, error) {
	event, err := s.events.Event(ctx, eventID)
	if err != nil {
		if errors.Is(err, catalog.ErrEventNotFound) {
			return model.Event{}, types.ReasonEventNotFound, nil
		}
		return model.Event{}, "", err
	}
	if !event.HasMember(userID) {
		return model.Event{}, types.ReasonNotMember, nil
	}
	return event, "", nil
}

// NextMatchup picks the category and pair the voter should judge next.
// A nil matchup with a reason is an ordinary negative outcome.
func (s *Service) NextMatchup(ctx context.Context, voterID, eventID string) (*types.Matchup, string, error) {
	if _, reason, err := s.precheck(ctx, voterID, eventID); err != nil || reason != "" {
		return nil, reason, err
	}

	category, ok, err := s.scheduler.SelectCategory(ctx, voterID, eventID)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return nil, types.ReasonNoneAvailable, nil
	}

	photoA, photoB, phase, ok, err := s.selector.SelectMatchup(ctx, voterID, eventID, category)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		// The scheduler's availability heuristic overstates; treat as empty.
		metrics.RecordSelectionExhausted(string(category))
		return nil, types.ReasonNoneAvailable, nil
	}

	remaining, err := s.limiter.Remaining(ctx, voterID, eventID, category)
	if err != nil {
		return nil, "", err
	}

	metrics.RecordMatchupServed(string(category), phase)
	s.logger.Debug(ctx, "matchup served",
		logger.String("voter", voterID),
		logger.String("category", string(category)),
		logger.String("phase", phase),
		logger.String("photoA", photoA.ID),
		logger.String("photoB", photoB.ID),
	)

	return &types.Matchup{
		PhotoA:             photoA,
		PhotoB:             photoB,
		Category:           category,
		Prompt:             category.Prompt(),
		RemainingInSession: remaining,
	}, "", nil
}

// validatePair re-checks a client-supplied pair server-side: both photos in
// the event, distinct, different uploaders, neither the voter's own.
func (s *Service) validatePair(ctx context.Context, voterID, eventID, photoAID, photoBID string) (model.Photo, model.Photo, string, error) {
	if photoAID == photoBID {
		return model.Photo{}, model.Photo{}, types.ReasonInvalidPair, nil
	}
	photoA, err := s.photos.Photo(ctx, photoAID)
	if err != nil {
		if errors.Is(err, catalog.ErrPhotoNotFound) {
			return model.Photo{}, model.Photo{}, types.ReasonInvalidPair, nil
		}
		return model.Photo{}, model.Photo{}, "", err
	}
	photoB, err := s.photos.Photo(ctx, photoBID)
	if err != nil {
		if errors.Is(err, catalog.ErrPhotoNotFound) {
			return model.Photo{}, model.Photo{}, types.ReasonInvalidPair, nil
		}
		return model.Photo{}, model.Photo{}, "", err
	}
	if photoA.EventID != eventID || photoB.EventID != eventID {
		return model.Photo{}, model.Photo{}, types.ReasonInvalidPair, nil
	}
	if photoA.UploadedBy == voterID || photoB.UploadedBy == voterID {
		return model.Photo{}, model.Photo{}, types.ReasonInvalidPair, nil
	}
	if photoA.UploadedBy == photoB.UploadedBy {
		return model.Photo{}, model.Photo{}, types.ReasonInvalidPair, nil
	}
	return photoA, photoB, "", nil
}

// applyOutcome folds one side's outcome into its stored rating under the
// version check, re-reading and re-applying on conflict.
func (s *Service) applyOutcome(ctx context.Context, key model.RatingKey, seed model.PhotoRating, out rating.Outcome) (model.PhotoRating, error) {
	cur := seed
	for attempt := 0; attempt < maxWriteRetries; attempt++ {
		updated, err := s.ratings.Update(ctx, s.engine.Apply(cur, out))
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, repository.ErrConflict) {
			return model.PhotoRating{}, err
		}
		metrics.RecordRatingRetry()
		cur, err = s.ratings.Get(ctx, key)
		if err != nil {
			return model.PhotoRating{}, err
		}
	}
	return model.PhotoRating{}, ErrWriteConflict
}

// SubmitComparison records one judged comparison. An empty winnerID records
// a skip: the log and session budget move, the ratings do not.
func (s *Service) SubmitComparison(ctx context.Context, voterID, eventID string, category model.Category, photoAID, photoBID, winnerID string) (*types.SubmitResult, error) {
	rejected := func(reason string) *types.SubmitResult {
		return &types.SubmitResult{Recorded: false, Reason: reason}
	}

	if _, reason, err := s.precheck(ctx, voterID, eventID); err != nil {
		return nil, err
	} else if reason != "" {
		return rejected(reason), nil
	}
	if !category.Valid() {
		return rejected(types.ReasonInvalidCategory), nil
	}
	photoA, photoB, reason, err := s.validatePair(ctx, voterID, eventID, photoAID, photoBID)
	if err != nil {
		return nil, err
	}
	if reason != "" {
		return rejected(reason), nil
	}
	if winnerID != "" && winnerID != photoA.ID && winnerID != photoB.ID {
		return rejected(types.ReasonInvalidWinner), nil
	}

	remaining, err := s.limiter.Remaining(ctx, voterID, eventID, category)
	if err != nil {
		return nil, err
	}
	if remaining <= 0 {
		metrics.RecordQuotaDenial(string(category))
		return rejected(types.ReasonQuotaExhausted), nil
	}

	// Ratings exist from the first reference onward, skip or not.
	ratingA, err := s.ratings.GetOrCreate(ctx, model.RatingKey{PhotoID: photoA.ID, EventID: eventID, Category: category})
	if err != nil {
		return nil, err
	}
	ratingB, err := s.ratings.GetOrCreate(ctx, model.RatingKey{PhotoID: photoB.ID, EventID: eventID, Category: category})
	if err != nil {
		return nil, err
	}

	finalA, finalB := ratingA, ratingB
	skipped := winnerID == ""
	if !skipped {
		outA, outB := s.engine.Outcomes(ratingA, ratingB, winnerID)
		finalA, err = s.applyOutcome(ctx, ratingA.Key(), ratingA, outA)
		if err != nil {
			return nil, err
		}
		finalB, err = s.applyOutcome(ctx, ratingB.Key(), ratingB, outB)
		if err != nil {
			return nil, err
		}
	}

	stored, err := s.comparisons.Append(ctx, model.Comparison{
		EventID:       eventID,
		Category:      category,
		PhotoAID:      photoA.ID,
		PhotoBID:      photoB.ID,
		WinnerPhotoID: winnerID,
		VoterID:       voterID,
		ScoreABefore:  ratingA.Score,
		ScoreAAfter:   finalA.Score,
		ScoreBBefore:  ratingB.Score,
		ScoreBAfter:   finalB.Score,
		WasSkipped:    skipped,
	})
	if err != nil {
		return nil, err
	}

	if skipped {
		metrics.RecordSkip(string(category))
	} else {
		metrics.RecordComparison(string(category))
	}

	// The appended entry is part of today's count now.
	remaining, err = s.limiter.Remaining(ctx, voterID, eventID, category)
	if err != nil {
		return nil, err
	}
	more := false
	if remaining > 0 {
		_, _, _, more, err = s.selector.SelectMatchup(ctx, voterID, eventID, category)
		if err != nil {
			return nil, err
		}
	}

	s.logger.Debug(ctx, "comparison recorded",
		logger.String("id", stored.ID),
		logger.String("voter", voterID),
		logger.String("category", string(category)),
		logger.Bool("skipped", skipped),
		logger.Float64("scoreA", finalA.Score),
		logger.Float64("scoreB", finalB.Score),
	)

	return &types.SubmitResult{
		ComparisonID:       stored.ID,
		Recorded:           true,
		RemainingInSession: remaining,
		MoreAvailable:      more,
	}, nil
}

// SkipComparison records the pairing without judging it. Ratings stay
// untouched; the skip still consumes session budget.
func (s *Service) SkipComparison(ctx context.Context, voterID, eventID string, category model.Category, photoAID, photoBID string) (*types.SubmitResult, error) {
	return s.SubmitComparison(ctx, voterID, eventID, category, photoAID, photoBID, "")
}

// Leaderboard returns the category ranking ordered by score descending.
func (s *Service) Leaderboard(ctx context.Context, requesterID, eventID string, category model.Category, limit int) (*types.Leaderboard, string, error) {
	if _, reason, err := s.membercheck(ctx, requesterID, eventID); err != nil || reason != "" {
		return nil, reason, err
	}
	if !category.Valid() {
		return nil, types.ReasonInvalidCategory, nil
	}

	ranked, err := s.ratings.ListByScore(ctx, eventID, category)
	if err != nil {
		return nil, "", err
	}
	totalComparisons, err := s.comparisons.CountByEventCategory(ctx, eventID, category)
	if err != nil {
		return nil, "", err
	}

	board := &types.Leaderboard{
		Category:         category,
		TotalPhotos:      len(ranked),
		TotalComparisons: totalComparisons,
	}
	for i, r := range ranked {
		if limit > 0 && i >= limit {
			break
		}
		board.Rankings = append(board.Rankings, types.RankingEntry{
			Rank:        i + 1,
			PhotoID:     r.PhotoID,
			Score:       r.Score,
			Comparisons: r.ComparisonCount,
			Wins:        r.WinCount,
			WinRate:     r.WinRate(),
		})
	}
	return board, "", nil
}

// PhotoStats returns one photo's standing across every category. Categories
// where the photo has no rating yet report the initial values.
func (s *Service) PhotoStats(ctx context.Context, requesterID, eventID, photoID string) (*types.PhotoStats, string, error) {
	if _, reason, err := s.membercheck(ctx, requesterID, eventID); err != nil || reason != "" {
		return nil, reason, err
	}
	photo, err := s.photos.Photo(ctx, photoID)
	if err != nil {
		if errors.Is(err, catalog.ErrPhotoNotFound) {
			return nil, types.ReasonPhotoNotFound, nil
		}
		return nil, "", err
	}
	if photo.EventID != eventID {
		return nil, types.ReasonPhotoNotFound, nil
	}

	stats := &types.PhotoStats{PhotoID: photoID}
	for _, category := range model.Categories() {
		key := model.RatingKey{PhotoID: photoID, EventID: eventID, Category: category}
		r, err := s.ratings.Get(ctx, key)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				return nil, "", err
			}
			r = s.engine.NewRating(key)
		}

		ranked, err := s.ratings.ListByScore(ctx, eventID, category)
		if err != nil {
			return nil, "", err
		}
		rank := 1
		for _, other := range ranked {
			if other.PhotoID != photoID && other.Score > r.Score {
				rank++
			}
		}

		stats.PerCategory = append(stats.PerCategory, types.CategoryStats{
			Category:        category,
			Score:           r.Score,
			Rank:            rank,
			TotalInCategory: len(ranked),
			Comparisons:     r.ComparisonCount,
			Wins:            r.WinCount,
			WinRate:         r.WinRate(),
			Uncertainty:     r.Uncertainty,
			IsStable:        r.IsStable,
		})
	}
	return stats, "", nil
}

// SessionBudget reports the voter's remaining comparisons per category for
// the current UTC day.
func (s *Service) SessionBudget(ctx context.Context, voterID, eventID string) ([]types.CategoryBudget, string, error) {
	if _, reason, err := s.membercheck(ctx, voterID, eventID); err != nil || reason != "" {
		return nil, reason, err
	}

	budgets := make([]types.CategoryBudget, 0, len(model.Categories()))
	for _, category := range model.Categories() {
		remaining, err := s.limiter.Remaining(ctx, voterID, eventID, category)
		if err != nil {
			return nil, "", err
		}
		budgets = append(budgets, types.CategoryBudget{Category: category, Remaining: remaining})
	}
	return budgets, "", nil
}

// History returns the event's comparison audit trail, newest first.
func (s *Service) History(ctx context.Context, requesterID, eventID string, category model.Category, limit, offset int) ([]types.ComparisonRecord, string, error) {
	if _, reason, err := s.membercheck(ctx, requesterID, eventID); err != nil || reason != "" {
		return nil, reason, err
	}
	if !category.Valid() {
		return nil, types.ReasonInvalidCategory, nil
	}

	entries, err := s.comparisons.List(ctx, repository.ComparisonQuery{
		EventID:  eventID,
		Category: category,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return nil, "", err
	}

	records := make([]types.ComparisonRecord, len(entries))
	for i, c := range entries {
		records[i] = types.ComparisonRecord{
			ID:            c.ID,
			Category:      c.Category,
			PhotoAID:      c.PhotoAID,
			PhotoBID:      c.PhotoBID,
			WinnerPhotoID: c.WinnerPhotoID,
			VoterID:       c.VoterID,
			WasSkipped:    c.WasSkipped,
			CreatedAt:     c.CreatedAt,
		}
	}
	return records, "", nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":         s.started,
		"shardCount":      s.shardCount,
		"sessionLimit":    s.sessionLimit,
		"explorationRate": s.explorationRate,
	}

	if s.started {
		ratingsTracked := s.ratings.Size(ctx)
		comparisonsLogged := s.comparisons.Size(ctx)

		stats["ratingsTracked"] = ratingsTracked
		stats["comparisonsLogged"] = comparisonsLogged

		// Update metrics
		metrics.UpdateRatingsTracked(ratingsTracked)
		metrics.UpdateComparisonsLogged(comparisonsLogged)
	}

	return stats
}
