package repository

import (
	"context"
	"hash/fnv"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/snapjudge/internal/domain/model"
	"github.com/okian/snapjudge/internal/domain/rating"
	"github.com/okian/snapjudge/pkg/metrics"
)

// Sharded, in-memory RatingStore implementation.
//
// Writes are serialized per key by the owning shard's mutex plus a version
// check: Update only lands when the caller's Version matches the stored one.
// Range queries collect matching records across shards and sort a copy, which
// is cheap at per-event photo counts.

const defaultShardCount = 8

type storeShard struct {
	mu      sync.RWMutex
	records map[model.RatingKey]model.PhotoRating
}

// MemStore implements RatingStore with sharded maps and versioned writes.
type MemStore struct {
	shards     []*storeShard
	shardCount int
	size       atomic.Int64
	initial    func(model.RatingKey) model.PhotoRating
	now        func() time.Time
}

// NewMemStore creates an in-memory rating store with configuration options.
func NewMemStore(opts ...StoreOption) *MemStore {
	engine := rating.NewEngine()
	s := &MemStore{
		shardCount: defaultShardCount,
		initial:    engine.NewRating,
		now:        time.Now,
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	s.shards = make([]*storeShard, s.shardCount)
	for i := range s.shards {
		s.shards[i] = &storeShard{records: make(map[model.RatingKey]model.PhotoRating)}
	}
	metrics.UpdateRepositoryShardCount(s.shardCount)

	return s
}

func (s *MemStore) shardFor(key model.RatingKey) *storeShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key.PhotoID))
	_, _ = h.Write([]byte(key.EventID))
	_, _ = h.Write([]byte(key.Category))
	return s.shards[int(h.Sum32())%s.shardCount]
}

// Get returns the rating for key.
func (s *MemStore) Get(ctx context.Context, key model.RatingKey) (model.PhotoRating, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000.0) }()

	shard := s.shardFor(key)
	shard.mu.RLock()
	defer shard.mu.RUnlock()

	r, ok := shard.records[key]
	if !ok {
		return model.PhotoRating{}, ErrNotFound
	}
	return r, nil
}

// GetOrCreate returns the rating for key, creating the initial record if none
// exists.
func (s *MemStore) GetOrCreate(ctx context.Context, key model.RatingKey) (model.PhotoRating, error) {
	shard := s.shardFor(key)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	if r, ok := shard.records[key]; ok {
		return r, nil
	}

	r := s.initial(key)
	now := s.now()
	r.Version = 1
	r.CreatedAt = now
	r.UpdatedAt = now
	shard.records[key] = r
	s.size.Add(1)
	metrics.UpdateRatingsTracked(int(s.size.Load()))
	return r, nil
}

// Update writes r back under a version check.
func (s *MemStore) Update(ctx context.Context, r model.PhotoRating) (model.PhotoRating, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Microseconds()) / 1000.0) }()

	shard := s.shardFor(r.Key())
	shard.mu.Lock()
	defer shard.mu.Unlock()

	cur, ok := shard.records[r.Key()]
	if !ok {
		return model.PhotoRating{}, ErrNotFound
	}
	if cur.Version != r.Version {
		metrics.RecordRatingConflict()
		return model.PhotoRating{}, ErrConflict
	}

	r.Version++
	r.CreatedAt = cur.CreatedAt
	r.UpdatedAt = s.now()
	shard.records[r.Key()] = r
	return r, nil
}

func (s *MemStore) collect(eventID string, category model.Category) []model.PhotoRating {
	var out []model.PhotoRating
	for _, shard := range s.shards {
		shard.mu.RLock()
		for key, r := range shard.records {
			if key.EventID == eventID && key.Category == category {
				out = append(out, r)
			}
		}
		shard.mu.RUnlock()
	}
	return out
}

// ListByScore returns ratings ordered by score desc, ties by photo id asc.
func (s *MemStore) ListByScore(ctx context.Context, eventID string, category model.Category) ([]model.PhotoRating, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000.0) }()

	out := s.collect(eventID, category)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].PhotoID < out[j].PhotoID
	})
	return out, nil
}

// ListByUncertainty returns ratings ordered by uncertainty desc, ties by
// photo id asc.
func (s *MemStore) ListByUncertainty(ctx context.Context, eventID string, category model.Category) ([]model.PhotoRating, error) {
	start := time.Now()
	defer func() { metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000.0) }()

	out := s.collect(eventID, category)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Uncertainty != out[j].Uncertainty {
			return out[i].Uncertainty > out[j].Uncertainty
		}
		return out[i].PhotoID < out[j].PhotoID
	})
	return out, nil
}

// Count returns the number of ratings tracked for event+category.
func (s *MemStore) Count(ctx context.Context, eventID string, category model.Category) int {
	return len(s.collect(eventID, category))
}

// Size returns the total number of rating records tracked.
func (s *MemStore) Size(ctx context.Context) int {
	return int(s.size.Load())
}
