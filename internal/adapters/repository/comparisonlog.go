package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/snapjudge/internal/domain/model"
	"github.com/okian/snapjudge/pkg/metrics"
)

// MemLog implements ComparisonLog with an append-only in-memory slice.
// Reads scan backward so recency-bounded queries stop early.
type MemLog struct {
	mu      sync.RWMutex
	entries []model.Comparison
	now     func() time.Time
}

// NewMemLog creates an in-memory comparison log with configuration options.
func NewMemLog(opts ...LogOption) *MemLog {
	l := &MemLog{
		now: time.Now,
	}

	// Apply all options
	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Append writes one comparison, assigning id and timestamp when unset.
func (l *MemLog) Append(ctx context.Context, c model.Comparison) (model.Comparison, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = l.now()
	}
	l.entries = append(l.entries, c)
	metrics.UpdateComparisonsLogged(len(l.entries))
	return c, nil
}

func matches(c model.Comparison, eventID string, category model.Category, voterID string) bool {
	if c.EventID != eventID || c.Category != category {
		return false
	}
	return voterID == "" || c.VoterID == voterID
}

// List returns matching comparisons, newest first.
func (l *MemLog) List(ctx context.Context, q ComparisonQuery) ([]model.Comparison, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []model.Comparison
	skipped := 0
	for i := len(l.entries) - 1; i >= 0; i-- {
		c := l.entries[i]
		if !matches(c, q.EventID, q.Category, q.VoterID) {
			continue
		}
		if skipped < q.Offset {
			skipped++
			continue
		}
		out = append(out, c)
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out, nil
}

// CountByVoterSince returns the voter's comparison count (skips included)
// for event+category at or after since.
func (l *MemLog) CountByVoterSince(ctx context.Context, eventID string, category model.Category, voterID string, since time.Time) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	count := 0
	for i := len(l.entries) - 1; i >= 0; i-- {
		c := l.entries[i]
		if c.CreatedAt.Before(since) {
			break
		}
		if matches(c, eventID, category, voterID) {
			count++
		}
	}
	return count, nil
}

// RecentPairs returns the unordered pair keys the voter compared for
// event+category at or after since.
func (l *MemLog) RecentPairs(ctx context.Context, eventID string, category model.Category, voterID string, since time.Time) (map[string]struct{}, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	pairs := make(map[string]struct{})
	for i := len(l.entries) - 1; i >= 0; i-- {
		c := l.entries[i]
		if c.CreatedAt.Before(since) {
			break
		}
		if matches(c, eventID, category, voterID) {
			pairs[model.PairKey(c.PhotoAID, c.PhotoBID)] = struct{}{}
		}
	}
	return pairs, nil
}

// CountByEventCategory returns the total comparisons logged for
// event+category.
func (l *MemLog) CountByEventCategory(ctx context.Context, eventID string, category model.Category) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	count := 0
	for _, c := range l.entries {
		if c.EventID == eventID && c.Category == category {
			count++
		}
	}
	return count, nil
}

// Size returns the total number of log entries.
func (l *MemLog) Size(ctx context.Context) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
