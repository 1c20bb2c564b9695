package schedule_test

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/okian/snapjudge/internal/adapters/catalog"
	"github.com/okian/snapjudge/internal/adapters/repository"
	"github.com/okian/snapjudge/internal/domain/matchup"
	"github.com/okian/snapjudge/internal/domain/model"
	schedule "github.com/okian/snapjudge/internal/domain/schedule"
	"github.com/okian/snapjudge/internal/domain/session"
	. "github.com/smartystreets/goconvey/convey"
)

const (
	eventID = "event-1"
	voterID = "viewer"
)

type fixture struct {
	store   *repository.MemStore
	log     *repository.MemLog
	cat     *catalog.InMemory
	limiter *session.Limiter
	sel     *matchup.Selector
	now     time.Time
}

func newFixture() *fixture {
	f := &fixture{
		store: repository.NewMemStore(),
		log:   repository.NewMemLog(),
		cat:   catalog.NewInMemory(),
		now:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.limiter = session.New(f.log, session.WithClock(func() time.Time { return f.now }))
	f.sel = matchup.NewSelector(f.store, f.log, f.cat)
	return f
}

func (f *fixture) scheduler() *schedule.Scheduler {
	return schedule.New(f.store, f.cat, f.limiter, f.sel, schedule.WithRand(rand.New(rand.NewSource(3))))
}

func (f *fixture) addPhoto(id, uploader string) {
	f.cat.AddPhoto(model.Photo{ID: id, EventID: eventID, UploadedBy: uploader})
}

// stabilize marks a photo's rating as settled in one category.
func (f *fixture) stabilize(t *testing.T, photoID string, category model.Category) {
	t.Helper()
	ctx := context.Background()
	r, err := f.store.GetOrCreate(ctx, model.RatingKey{PhotoID: photoID, EventID: eventID, Category: category})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r.Uncertainty = 60
	r.ComparisonCount = 12
	r.IsBootstrapped = true
	r.IsStable = true
	if _, err := f.store.Update(ctx, r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// spendQuota logs limit comparisons for the voter today in one category.
func (f *fixture) spendQuota(t *testing.T, category model.Category, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		_, err := f.log.Append(ctx, model.Comparison{
			EventID:   eventID,
			Category:  category,
			PhotoAID:  "p1",
			PhotoBID:  "p2",
			VoterID:   voterID,
			CreatedAt: f.now.Add(time.Duration(i-n) * time.Minute),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
}

func TestSelectCategory(t *testing.T) {
	Convey("Given an event with two eligible photos", t, func() {
		ctx := context.Background()
		f := newFixture()
		f.addPhoto("p1", "alice")
		f.addPhoto("p2", "bob")

		Convey("When every category still needs data", func() {
			sched := f.scheduler()
			category, ok, err := sched.SelectCategory(ctx, voterID, eventID)
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(category.Valid(), ShouldBeTrue)
		})

		Convey("When one category's quota is exhausted", func() {
			f.spendQuota(t, model.CategoryBestMoment, 5)
			sched := f.scheduler()

			Convey("Then that category is never selected while others are", func() {
				for i := 0; i < 100; i++ {
					category, ok, err := sched.SelectCategory(ctx, voterID, eventID)
					So(err, ShouldBeNil)
					So(ok, ShouldBeTrue)
					So(category, ShouldNotEqual, model.CategoryBestMoment)
				}
			})
		})

		Convey("When every category's quota is exhausted", func() {
			for _, category := range model.Categories() {
				f.spendQuota(t, category, 5)
			}
			sched := f.scheduler()
			_, ok, err := sched.SelectCategory(ctx, voterID, eventID)
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given an event with fewer than two eligible photos", t, func() {
		ctx := context.Background()
		f := newFixture()
		f.addPhoto("p1", "alice")
		f.addPhoto("mine", voterID)

		Convey("Then no category is selectable", func() {
			sched := f.scheduler()
			_, ok, err := sched.SelectCategory(ctx, voterID, eventID)
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})
	})
}

func TestSelectCategory_WeightsDataScarcity(t *testing.T) {
	Convey("Given one settled category and one starving category", t, func() {
		ctx := context.Background()
		f := newFixture()
		f.addPhoto("p1", "alice")
		f.addPhoto("p2", "bob")
		f.addPhoto("p3", "carol")

		// best_moment fully settled; funniest and most_artistic untouched.
		for _, id := range []string{"p1", "p2", "p3"} {
			f.stabilize(t, id, model.CategoryBestMoment)
		}

		Convey("Then the starving categories dominate the draw", func() {
			sched := f.scheduler()
			counts := map[model.Category]int{}
			for i := 0; i < 300; i++ {
				category, ok, err := sched.SelectCategory(ctx, voterID, eventID)
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				counts[category]++
			}
			// settled: priority 1; starving: 1 + 2*3 + 0.5*3 = 8.5 each.
			So(counts[model.CategoryFunniest], ShouldBeGreaterThan, counts[model.CategoryBestMoment])
			So(counts[model.CategoryMostArtistic], ShouldBeGreaterThan, counts[model.CategoryBestMoment])
		})
	})
}
