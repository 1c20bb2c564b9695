// Package repository defines the rating store and comparison log interfaces
// and their in-memory implementations.
package repository

import (
	"time"

	"github.com/okian/snapjudge/internal/domain/model"
)

// StoreOption applies a configuration option to the MemStore.
type StoreOption func(*MemStore)

// WithShardCount sets the number of shards in the rating store.
func WithShardCount(count int) StoreOption {
	return func(s *MemStore) {
		if count > 0 {
			s.shardCount = count
		}
	}
}

// WithInitialRating sets the factory used to build lazily-created records.
func WithInitialRating(fn func(model.RatingKey) model.PhotoRating) StoreOption {
	return func(s *MemStore) {
		if fn != nil {
			s.initial = fn
		}
	}
}

// WithStoreClock sets the clock used for record timestamps.
func WithStoreClock(now func() time.Time) StoreOption {
	return func(s *MemStore) {
		if now != nil {
			s.now = now
		}
	}
}

// LogOption applies a configuration option to the MemLog.
type LogOption func(*MemLog)

// WithLogClock sets the clock used to stamp appended entries.
func WithLogClock(now func() time.Time) LogOption {
	return func(l *MemLog) {
		if now != nil {
			l.now = now
		}
	}
}
