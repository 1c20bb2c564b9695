// Package session enforces the daily per-voter-per-category comparison quota.
package session

import (
	"context"
	"time"

	"github.com/okian/snapjudge/internal/domain/model"
)

// Default session configuration constants.
const (
	defaultPerSessionLimit = 5
)

// Counter is the slice of the comparison log the limiter reads.
type Counter interface {
	CountByVoterSince(ctx context.Context, eventID string, category model.Category, voterID string, since time.Time) (int, error)
}

// Option applies a configuration option to the Limiter.
type Option func(*Limiter)

// WithLimit sets the per-session comparison limit.
func WithLimit(limit int) Option {
	return func(l *Limiter) {
		if limit > 0 {
			l.limit = limit
		}
	}
}

// WithClock sets the clock used to resolve the current UTC day.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// Limiter computes remaining session budget against the comparison log.
// A session is the rolling UTC calendar day; skips consume budget too.
type Limiter struct {
	log   Counter
	limit int
	now   func() time.Time
}

// New creates a session limiter with configuration options.
func New(log Counter, opts ...Option) *Limiter {
	l := &Limiter{
		log:   log,
		limit: defaultPerSessionLimit,
		now:   time.Now,
	}

	// Apply all options
	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Limit returns the configured per-session limit.
func (l *Limiter) Limit() int { return l.limit }

// Remaining returns the voter's remaining comparisons for event+category
// today, never negative.
func (l *Limiter) Remaining(ctx context.Context, voterID, eventID string, category model.Category) (int, error) {
	count, err := l.log.CountByVoterSince(ctx, eventID, category, voterID, startOfDayUTC(l.now()))
	if err != nil {
		return 0, err
	}
	remaining := l.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// startOfDayUTC returns midnight UTC of t's calendar day.
func startOfDayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
