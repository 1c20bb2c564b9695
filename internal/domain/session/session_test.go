package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/okian/snapjudge/internal/adapters/repository"
	"github.com/okian/snapjudge/internal/domain/model"
	session "github.com/okian/snapjudge/internal/domain/session"
	. "github.com/smartystreets/goconvey/convey"
)

func appendAt(t *testing.T, log *repository.MemLog, voterID string, at time.Time) {
	t.Helper()
	_, err := log.Append(context.Background(), model.Comparison{
		EventID:   "event-1",
		Category:  model.CategoryBestMoment,
		PhotoAID:  "p1",
		PhotoBID:  "p2",
		VoterID:   voterID,
		CreatedAt: at,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLimiterRemaining(t *testing.T) {
	Convey("Given a limiter over a comparison log", t, func() {
		ctx := context.Background()
		now := time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)
		log := repository.NewMemLog()
		limiter := session.New(log, session.WithClock(func() time.Time { return now }))

		Convey("When the voter has no comparisons today", func() {
			remaining, err := limiter.Remaining(ctx, "alice", "event-1", model.CategoryBestMoment)
			So(err, ShouldBeNil)
			So(remaining, ShouldEqual, 5)
		})

		Convey("When the voter logged three comparisons today", func() {
			for i := 0; i < 3; i++ {
				appendAt(t, log, "alice", now.Add(-time.Duration(3-i)*time.Hour))
			}
			remaining, err := limiter.Remaining(ctx, "alice", "event-1", model.CategoryBestMoment)
			So(err, ShouldBeNil)
			So(remaining, ShouldEqual, 2)
		})

		Convey("When the voter exhausted the quota", func() {
			for i := 0; i < 5; i++ {
				appendAt(t, log, "alice", now.Add(-time.Duration(10-i)*time.Minute))
			}
			remaining, err := limiter.Remaining(ctx, "alice", "event-1", model.CategoryBestMoment)
			So(err, ShouldBeNil)
			So(remaining, ShouldEqual, 0)

			Convey("And over-quota entries never go negative", func() {
				appendAt(t, log, "alice", now.Add(-time.Minute))
				remaining, err := limiter.Remaining(ctx, "alice", "event-1", model.CategoryBestMoment)
				So(err, ShouldBeNil)
				So(remaining, ShouldEqual, 0)
			})
		})

		Convey("When comparisons were logged yesterday", func() {
			yesterday := time.Date(2026, 2, 28, 23, 59, 0, 0, time.UTC)
			for i := 0; i < 5; i++ {
				appendAt(t, log, "alice", yesterday.Add(time.Duration(i-5)*time.Minute))
			}
			remaining, err := limiter.Remaining(ctx, "alice", "event-1", model.CategoryBestMoment)
			So(err, ShouldBeNil)
			So(remaining, ShouldEqual, 5)
		})

		Convey("When the UTC day rolls over", func() {
			for i := 0; i < 5; i++ {
				appendAt(t, log, "alice", now.Add(time.Duration(i)*time.Minute))
			}
			nextDay := time.Date(2026, 3, 2, 0, 1, 0, 0, time.UTC)
			rolled := session.New(log, session.WithClock(func() time.Time { return nextDay }))
			remaining, err := rolled.Remaining(ctx, "alice", "event-1", model.CategoryBestMoment)
			So(err, ShouldBeNil)
			So(remaining, ShouldEqual, 5)
		})

		Convey("When another voter spends budget", func() {
			for i := 0; i < 5; i++ {
				appendAt(t, log, "bob", now.Add(-time.Duration(5-i)*time.Minute))
			}
			remaining, err := limiter.Remaining(ctx, "alice", "event-1", model.CategoryBestMoment)
			So(err, ShouldBeNil)
			So(remaining, ShouldEqual, 5)
		})

		Convey("When a custom limit is configured", func() {
			custom := session.New(log, session.WithLimit(2), session.WithClock(func() time.Time { return now }))
			So(custom.Limit(), ShouldEqual, 2)
		})
	})
}
