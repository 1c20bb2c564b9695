package repository

import (
	"context"
	"testing"
	"time"

	"github.com/okian/snapjudge/internal/domain/model"
)

func comparison(voterID, a, b string, at time.Time) model.Comparison {
	return model.Comparison{
		EventID:       "event-1",
		Category:      model.CategoryBestMoment,
		PhotoAID:      a,
		PhotoBID:      b,
		WinnerPhotoID: a,
		VoterID:       voterID,
		CreatedAt:     at,
	}
}

func TestMemLog_Append(t *testing.T) {
	ctx := context.Background()
	log := NewMemLog()

	c, err := log.Append(ctx, comparison("alice", "p1", "p2", time.Time{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ID == "" {
		t.Error("expected assigned id")
	}
	if c.CreatedAt.IsZero() {
		t.Error("expected assigned timestamp")
	}
	if log.Size(ctx) != 1 {
		t.Errorf("expected size 1, got %d", log.Size(ctx))
	}
}

func TestMemLog_CountByVoterSince(t *testing.T) {
	ctx := context.Background()
	log := NewMemLog()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if _, err := log.Append(ctx, comparison("alice", "p1", "p2", base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if _, err := log.Append(ctx, comparison("bob", "p1", "p2", base.Add(5*time.Minute))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	count, err := log.CountByVoterSince(ctx, "event-1", model.CategoryBestMoment, "alice", base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3, got %d", count)
	}

	// A later cutoff excludes earlier entries.
	count, err = log.CountByVoterSince(ctx, "event-1", model.CategoryBestMoment, "alice", base.Add(time.Minute))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2, got %d", count)
	}

	// Another category counts separately.
	count, err = log.CountByVoterSince(ctx, "event-1", model.CategoryFunniest, "alice", base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0, got %d", count)
	}
}

func TestMemLog_RecentPairs(t *testing.T) {
	ctx := context.Background()
	log := NewMemLog()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	if _, err := log.Append(ctx, comparison("alice", "p1", "p2", base)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := log.Append(ctx, comparison("alice", "p3", "p1", base.Add(time.Minute))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pairs, err := log.RecentPairs(ctx, "event-1", model.CategoryBestMoment, "alice", base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pairs) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(pairs))
	}
	// Keys are order independent.
	if _, ok := pairs[model.PairKey("p2", "p1")]; !ok {
		t.Error("expected pair p1/p2 present under either order")
	}
	if _, ok := pairs[model.PairKey("p1", "p3")]; !ok {
		t.Error("expected pair p1/p3 present")
	}
}

func TestMemLog_ListPagination(t *testing.T) {
	ctx := context.Background()
	log := NewMemLog()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		c := comparison("alice", "p1", "p2", base.Add(time.Duration(i)*time.Minute))
		if _, err := log.Append(ctx, c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	page, err := log.List(ctx, ComparisonQuery{EventID: "event-1", Category: model.CategoryBestMoment, Limit: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(page))
	}
	// Newest first.
	if !page[0].CreatedAt.After(page[1].CreatedAt) {
		t.Error("expected newest-first ordering")
	}

	next, err := log.List(ctx, ComparisonQuery{EventID: "event-1", Category: model.CategoryBestMoment, Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(next) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(next))
	}
	if !page[1].CreatedAt.After(next[0].CreatedAt) {
		t.Error("expected offset page to continue after first page")
	}

	count, err := log.CountByEventCategory(ctx, "event-1", model.CategoryBestMoment)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 5 {
		t.Errorf("expected 5, got %d", count)
	}
}
