// Package matchup picks the next pair of photos a voter should compare.
//
// Selection runs in three phases: bootstrap pairing for photos that still
// lack early signal, exploration/exploitation for converging pools, and an
// exhaustive fallback that guarantees liveness in small or heavily-excluded
// pools. All candidate sets are bounded and pre-fetched; a call does O(n)
// work over the event's eligible photos with small constant factors.
package matchup

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/okian/snapjudge/internal/domain/model"
	"github.com/okian/snapjudge/internal/domain/rating"
)

// Default selection configuration constants.
const (
	defaultExplorationRate = 0.3
	defaultRecencyWindow   = 24 * time.Hour
	defaultRandomSeed      = 42

	anchorPoolSize        = 5  // closest-to-center opponents for young photos
	leaderPoolSize        = 3  // top opponents for photos past two comparisons
	uncertaintyPivots     = 5  // highest-uncertainty photos considered as anchors
	uncertaintyCandidates = 10 // uncertainty-ranked opponents scanned per pivot
	uncertaintyMatches    = 3  // closest-score matches sampled from
	topShareDivisor       = 5  // top ~20% of the score distribution
)

// Selection phase names, exported for observability.
const (
	PhaseBootstrap   = "bootstrap"
	PhaseExplore     = "explore"
	PhaseUncertainty = "uncertainty"
	PhaseFallback    = "fallback"
)

// RatingSource is the slice of the rating store the selector reads.
type RatingSource interface {
	ListByScore(ctx context.Context, eventID string, category model.Category) ([]model.PhotoRating, error)
}

// RecencySource is the slice of the comparison log the selector reads.
type RecencySource interface {
	RecentPairs(ctx context.Context, eventID string, category model.Category, voterID string, since time.Time) (map[string]struct{}, error)
}

// PhotoSource lists the photos of an event.
type PhotoSource interface {
	PhotosInEvent(ctx context.Context, eventID string) ([]model.Photo, error)
}

// Option applies a configuration option to the Selector.
type Option func(*Selector)

// WithExplorationRate sets the probability of exploratory selection.
func WithExplorationRate(rate float64) Option {
	return func(s *Selector) {
		if rate >= 0 && rate <= 1 {
			s.explorationRate = rate
		}
	}
}

// WithRecencyWindow sets how long a compared pair stays excluded for a voter.
func WithRecencyWindow(window time.Duration) Option {
	return func(s *Selector) {
		if window > 0 {
			s.recencyWindow = window
		}
	}
}

// WithRand sets the randomness source so selection is deterministic in tests.
func WithRand(rng *rand.Rand) Option {
	return func(s *Selector) {
		if rng != nil {
			s.rng = rng
		}
	}
}

// WithClock sets the clock used to anchor the recency window.
func WithClock(now func() time.Time) Option {
	return func(s *Selector) {
		if now != nil {
			s.now = now
		}
	}
}

// WithDefaultRating sets the factory for photos that have no rating yet.
func WithDefaultRating(fn func(model.RatingKey) model.PhotoRating) Option {
	return func(s *Selector) {
		if fn != nil {
			s.defaultRating = fn
		}
	}
}

// Selector picks matchups for a voter. It is stateless with respect to the
// engine: all state lives in the stores, so concurrent calls are safe.
type Selector struct {
	ratings RatingSource
	recency RecencySource
	photos  PhotoSource

	explorationRate float64
	recencyWindow   time.Duration
	anchorScore     float64
	defaultRating   func(model.RatingKey) model.PhotoRating
	now             func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewSelector creates a matchup selector with configuration options.
func NewSelector(ratings RatingSource, recency RecencySource, photos PhotoSource, opts ...Option) *Selector {
	engine := rating.NewEngine()
	s := &Selector{
		ratings:         ratings,
		recency:         recency,
		photos:          photos,
		explorationRate: defaultExplorationRate,
		recencyWindow:   defaultRecencyWindow,
		anchorScore:     engine.InitialScore(),
		defaultRating:   engine.NewRating,
		now:             time.Now,
		rng:             rand.New(rand.NewSource(defaultRandomSeed)), //nolint:gosec // selection needs uniform-ish draws, not crypto randomness
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// candidate pairs a photo with its (possibly default) rating.
type candidate struct {
	photo  model.Photo
	rating model.PhotoRating
}

// pool is the pre-fetched selection state for one request.
type pool struct {
	candidates []candidate
	recent     map[string]struct{}
}

// validPair reports whether two candidates may face each other: distinct
// photos, different uploaders, and not recently compared by this voter.
func (p *pool) validPair(a, b candidate) bool {
	if a.photo.ID == b.photo.ID {
		return false
	}
	if a.photo.UploadedBy == b.photo.UploadedBy {
		return false
	}
	_, seen := p.recent[model.PairKey(a.photo.ID, b.photo.ID)]
	return !seen
}

func (s *Selector) intn(n int) int {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Intn(n)
}

func (s *Selector) float64() float64 {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Float64()
}

func (s *Selector) shuffle(n int, swap func(i, j int)) {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	s.rng.Shuffle(n, swap)
}

// buildPool fetches eligible candidates and the voter's recent-pair set.
// Photos uploaded by the voter are never eligible.
func (s *Selector) buildPool(ctx context.Context, voterID, eventID string, category model.Category) (*pool, error) {
	photos, err := s.photos.PhotosInEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	ratings, err := s.ratings.ListByScore(ctx, eventID, category)
	if err != nil {
		return nil, err
	}
	byPhoto := make(map[string]model.PhotoRating, len(ratings))
	for _, r := range ratings {
		byPhoto[r.PhotoID] = r
	}

	p := &pool{}
	for _, photo := range photos {
		if photo.UploadedBy == voterID {
			continue
		}
		r, ok := byPhoto[photo.ID]
		if !ok {
			r = s.defaultRating(model.RatingKey{PhotoID: photo.ID, EventID: eventID, Category: category})
		}
		p.candidates = append(p.candidates, candidate{photo: photo, rating: r})
	}

	recent, err := s.recency.RecentPairs(ctx, eventID, category, voterID, s.now().Add(-s.recencyWindow))
	if err != nil {
		return nil, err
	}
	p.recent = recent
	return p, nil
}

// SelectMatchup picks the next pair for the voter, or reports none when
// fewer than two eligible photos exist or every pair is excluded. The phase
// names which policy produced the pair.
func (s *Selector) SelectMatchup(ctx context.Context, voterID, eventID string, category model.Category) (photoA, photoB model.Photo, phase string, ok bool, err error) {
	p, err := s.buildPool(ctx, voterID, eventID, category)
	if err != nil {
		return model.Photo{}, model.Photo{}, "", false, err
	}
	if len(p.candidates) < 2 {
		return model.Photo{}, model.Photo{}, "", false, nil
	}

	if a, b, found := s.selectBootstrap(p); found {
		return a, b, PhaseBootstrap, true, nil
	}

	if s.float64() < s.explorationRate {
		if a, b, found := s.selectExplore(p); found {
			return a, b, PhaseExplore, true, nil
		}
	} else {
		if a, b, found := s.selectUncertainty(p); found {
			return a, b, PhaseUncertainty, true, nil
		}
	}

	if a, b, found := s.selectFallback(p); found {
		return a, b, PhaseFallback, true, nil
	}
	return model.Photo{}, model.Photo{}, "", false, nil
}

// selectBootstrap pairs a not-yet-bootstrapped photo with an opponent chosen
// by how much early signal the photo already has.
func (s *Selector) selectBootstrap(p *pool) (model.Photo, model.Photo, bool) {
	var fresh []candidate
	for _, c := range p.candidates {
		if !c.rating.IsBootstrapped {
			fresh = append(fresh, c)
		}
	}
	if len(fresh) == 0 {
		return model.Photo{}, model.Photo{}, false
	}

	a := fresh[s.intn(len(fresh))]

	var others []candidate
	for _, c := range p.candidates {
		if p.validPair(a, c) {
			others = append(others, c)
		}
	}
	if len(others) == 0 {
		return model.Photo{}, model.Photo{}, false
	}

	switch count := a.rating.ComparisonCount; {
	case count == 0:
		// First contact: any opponent is informative.
		b := others[s.intn(len(others))]
		return a.photo, b.photo, true

	case count <= 2:
		// Keep young photos anchored near the population center: sample from
		// the bootstrapped opponents closest to the default score.
		var anchored []candidate
		for _, c := range others {
			if c.rating.IsBootstrapped {
				anchored = append(anchored, c)
			}
		}
		if len(anchored) == 0 {
			return model.Photo{}, model.Photo{}, false
		}
		sort.Slice(anchored, func(i, j int) bool {
			di := math.Abs(anchored[i].rating.Score - s.anchorScore)
			dj := math.Abs(anchored[j].rating.Score - s.anchorScore)
			if di != dj {
				return di < dj
			}
			return anchored[i].photo.ID < anchored[j].photo.ID
		})
		if len(anchored) > anchorPoolSize {
			anchored = anchored[:anchorPoolSize]
		}
		b := anchored[s.intn(len(anchored))]
		return a.photo, b.photo, true

	default:
		// Past two comparisons: test the new photo against the leaders.
		var leaders []candidate
		for _, c := range others {
			if c.rating.IsBootstrapped {
				leaders = append(leaders, c)
			}
		}
		if len(leaders) == 0 {
			return model.Photo{}, model.Photo{}, false
		}
		sort.Slice(leaders, func(i, j int) bool {
			if leaders[i].rating.Score != leaders[j].rating.Score {
				return leaders[i].rating.Score > leaders[j].rating.Score
			}
			return leaders[i].photo.ID < leaders[j].photo.ID
		})
		if len(leaders) > leaderPoolSize {
			leaders = leaders[:leaderPoolSize]
		}
		b := leaders[s.intn(len(leaders))]
		return a.photo, b.photo, true
	}
}

// byScoreDesc returns the pool's candidates ordered score desc, id asc.
func byScoreDesc(cands []candidate) []candidate {
	out := make([]candidate, len(cands))
	copy(out, cands)
	sort.Slice(out, func(i, j int) bool {
		if out[i].rating.Score != out[j].rating.Score {
			return out[i].rating.Score > out[j].rating.Score
		}
		return out[i].photo.ID < out[j].photo.ID
	})
	return out
}

// selectExplore pairs a leader from the top ~20% of the score distribution
// with a mid-field photo from the middle third.
func (s *Selector) selectExplore(p *pool) (model.Photo, model.Photo, bool) {
	ranked := byScoreDesc(p.candidates)
	n := len(ranked)

	topSize := n / topShareDivisor
	if topSize < 1 {
		topSize = 1
	}
	top := make([]candidate, topSize)
	copy(top, ranked[:topSize])

	midStart, midEnd := n/3, 2*n/3
	if midEnd <= midStart {
		midEnd = midStart + 1
	}
	if midEnd > n {
		midEnd = n
	}
	middle := make([]candidate, midEnd-midStart)
	copy(middle, ranked[midStart:midEnd])

	s.shuffle(len(top), func(i, j int) { top[i], top[j] = top[j], top[i] })
	s.shuffle(len(middle), func(i, j int) { middle[i], middle[j] = middle[j], middle[i] })

	for _, a := range top {
		for _, b := range middle {
			if p.validPair(a, b) {
				return a.photo, b.photo, true
			}
		}
	}
	return model.Photo{}, model.Photo{}, false
}

// selectUncertainty anchors on the highest-uncertainty photos and pairs each
// with a close-scoring opponent from the uncertainty-ranked candidates.
func (s *Selector) selectUncertainty(p *pool) (model.Photo, model.Photo, bool) {
	ranked := make([]candidate, len(p.candidates))
	copy(ranked, p.candidates)
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].rating.Uncertainty != ranked[j].rating.Uncertainty {
			return ranked[i].rating.Uncertainty > ranked[j].rating.Uncertainty
		}
		return ranked[i].photo.ID < ranked[j].photo.ID
	})

	pivotCount := uncertaintyPivots
	if pivotCount > len(ranked) {
		pivotCount = len(ranked)
	}

	for pi := 0; pi < pivotCount; pi++ {
		a := ranked[pi]

		var matches []candidate
		scanned := 0
		for _, c := range ranked {
			if c.photo.ID == a.photo.ID {
				continue
			}
			if scanned >= uncertaintyCandidates {
				break
			}
			scanned++
			if p.validPair(a, c) {
				matches = append(matches, c)
			}
		}
		if len(matches) == 0 {
			continue
		}

		sort.Slice(matches, func(i, j int) bool {
			di := math.Abs(matches[i].rating.Score - a.rating.Score)
			dj := math.Abs(matches[j].rating.Score - a.rating.Score)
			if di != dj {
				return di < dj
			}
			return matches[i].photo.ID < matches[j].photo.ID
		})
		if len(matches) > uncertaintyMatches {
			matches = matches[:uncertaintyMatches]
		}
		b := matches[s.intn(len(matches))]
		return a.photo, b.photo, true
	}
	return model.Photo{}, model.Photo{}, false
}

// selectFallback scans every pair in random order and returns the first one
// that passes the exclusion rules. Guarantees liveness for small pools.
func (s *Selector) selectFallback(p *pool) (model.Photo, model.Photo, bool) {
	n := len(p.candidates)
	type pair struct{ i, j int }
	pairs := make([]pair, 0, n*(n-1)/2)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			pairs = append(pairs, pair{i, j})
		}
	}
	s.shuffle(len(pairs), func(i, j int) { pairs[i], pairs[j] = pairs[j], pairs[i] })

	for _, pr := range pairs {
		a, b := p.candidates[pr.i], p.candidates[pr.j]
		if p.validPair(a, b) {
			return a.photo, b.photo, true
		}
	}
	return model.Photo{}, model.Photo{}, false
}

// AvailableMatchups estimates how many pairings remain for the voter in the
// event as n(n-1)/2 over eligible photos. The estimate ignores same-uploader
// and recency exclusions; callers treat it as a scheduling heuristic, not a
// guarantee the selector can serve a pair.
func (s *Selector) AvailableMatchups(ctx context.Context, voterID, eventID string) (int, error) {
	photos, err := s.photos.PhotosInEvent(ctx, eventID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, photo := range photos {
		if photo.UploadedBy != voterID {
			n++
		}
	}
	return n * (n - 1) / 2, nil
}
