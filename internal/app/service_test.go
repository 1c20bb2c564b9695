package app

import (
	"context"
	"os"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/snapjudge/internal/adapters/catalog"
	"github.com/okian/snapjudge/internal/domain/model"
	"github.com/okian/snapjudge/internal/domain/types"
	"github.com/okian/snapjudge/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

var fixedNow = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

// newFixture seeds an event in ranking with three photos, each from a
// different uploader, so the voter "alice" can judge any pair.
func newFixture(t *testing.T, opts ...Option) *Service {
	t.Helper()

	cat := catalog.NewInMemory()
	cat.PutEvent(model.Event{
		ID:        "event-1",
		MemberIDs: []string{"alice", "bob", "carol", "dave"},
		Status:    model.StatusRanking,
	})
	cat.AddPhoto(model.Photo{ID: "p1", EventID: "event-1", UploadedBy: "bob"})
	cat.AddPhoto(model.Photo{ID: "p2", EventID: "event-1", UploadedBy: "carol"})
	cat.AddPhoto(model.Photo{ID: "p3", EventID: "event-1", UploadedBy: "dave"})

	base := []Option{
		WithRandSeed(42),
		WithClock(func() time.Time { return fixedNow }),
	}
	svc := New(cat, cat, append(base, opts...)...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func TestSubmitComparisonScoring(t *testing.T) {
	ctx := context.Background()

	Convey("Given a fresh event", t, func() {
		svc := newFixture(t)

		Convey("When alice judges p1 over p2 for the first time", func() {
			res, err := svc.SubmitComparison(ctx, "alice", "event-1", model.CategoryBestMoment, "p1", "p2", "p1")
			So(err, ShouldBeNil)
			So(res.Recorded, ShouldBeTrue)
			So(res.ComparisonID, ShouldNotBeEmpty)
			So(res.RemainingInSession, ShouldEqual, 4)
			So(res.MoreAvailable, ShouldBeTrue)

			Convey("Then the winner gains and the loser loses half the K factor", func() {
				stats, reason, err := svc.PhotoStats(ctx, "alice", "event-1", "p1")
				So(err, ShouldBeNil)
				So(reason, ShouldBeEmpty)
				So(stats.PerCategory[0].Category, ShouldEqual, model.CategoryBestMoment)
				So(stats.PerCategory[0].Score, ShouldEqual, 1520)
				So(stats.PerCategory[0].Wins, ShouldEqual, 1)
				So(stats.PerCategory[0].WinRate, ShouldEqual, 1)

				loser, _, err := svc.PhotoStats(ctx, "alice", "event-1", "p2")
				So(err, ShouldBeNil)
				So(loser.PerCategory[0].Score, ShouldEqual, 1480)
				So(loser.PerCategory[0].Wins, ShouldEqual, 0)
			})

			Convey("Then the leaderboard ranks the winner first", func() {
				board, reason, err := svc.Leaderboard(ctx, "alice", "event-1", model.CategoryBestMoment, 0)
				So(err, ShouldBeNil)
				So(reason, ShouldBeEmpty)
				So(board.TotalPhotos, ShouldEqual, 2)
				So(board.TotalComparisons, ShouldEqual, 1)
				So(board.Rankings[0].PhotoID, ShouldEqual, "p1")
				So(board.Rankings[0].Rank, ShouldEqual, 1)
				So(board.Rankings[0].Score, ShouldEqual, 1520)
				So(board.Rankings[1].PhotoID, ShouldEqual, "p2")
				So(board.Rankings[1].Rank, ShouldEqual, 2)
			})

			Convey("Then the other categories are untouched", func() {
				stats, _, err := svc.PhotoStats(ctx, "alice", "event-1", "p1")
				So(err, ShouldBeNil)
				So(stats.PerCategory[1].Score, ShouldEqual, 1500)
				So(stats.PerCategory[1].Comparisons, ShouldEqual, 0)
				So(stats.PerCategory[2].Score, ShouldEqual, 1500)
			})
		})
	})
}

func TestSubmitComparisonValidation(t *testing.T) {
	ctx := context.Background()

	Convey("Given a fresh event", t, func() {
		svc := newFixture(t)

		Convey("An unknown event is rejected", func() {
			res, err := svc.SubmitComparison(ctx, "alice", "ghost", model.CategoryBestMoment, "p1", "p2", "p1")
			So(err, ShouldBeNil)
			So(res.Recorded, ShouldBeFalse)
			So(res.Reason, ShouldEqual, types.ReasonEventNotFound)
		})

		Convey("A non-member is rejected", func() {
			res, err := svc.SubmitComparison(ctx, "mallory", "event-1", model.CategoryBestMoment, "p1", "p2", "p1")
			So(err, ShouldBeNil)
			So(res.Reason, ShouldEqual, types.ReasonNotMember)
		})

		Convey("An unknown category is rejected", func() {
			res, err := svc.SubmitComparison(ctx, "alice", "event-1", "cutest", "p1", "p2", "p1")
			So(err, ShouldBeNil)
			So(res.Reason, ShouldEqual, types.ReasonInvalidCategory)
		})

		Convey("A pair with an unknown photo is rejected", func() {
			res, err := svc.SubmitComparison(ctx, "alice", "event-1", model.CategoryBestMoment, "p1", "ghost", "p1")
			So(err, ShouldBeNil)
			So(res.Reason, ShouldEqual, types.ReasonInvalidPair)
		})

		Convey("A pair of the same photo is rejected", func() {
			res, err := svc.SubmitComparison(ctx, "alice", "event-1", model.CategoryBestMoment, "p1", "p1", "p1")
			So(err, ShouldBeNil)
			So(res.Reason, ShouldEqual, types.ReasonInvalidPair)
		})

		Convey("A voter judging their own photo is rejected", func() {
			res, err := svc.SubmitComparison(ctx, "bob", "event-1", model.CategoryBestMoment, "p1", "p2", "p2")
			So(err, ShouldBeNil)
			So(res.Reason, ShouldEqual, types.ReasonInvalidPair)
		})

		Convey("A winner outside the pair is rejected", func() {
			res, err := svc.SubmitComparison(ctx, "alice", "event-1", model.CategoryBestMoment, "p1", "p2", "p3")
			So(err, ShouldBeNil)
			So(res.Reason, ShouldEqual, types.ReasonInvalidWinner)
		})

		Convey("Rejected submissions leave ratings untouched", func() {
			_, err := svc.SubmitComparison(ctx, "alice", "event-1", model.CategoryBestMoment, "p1", "p2", "p3")
			So(err, ShouldBeNil)
			stats, _, err := svc.PhotoStats(ctx, "alice", "event-1", "p1")
			So(err, ShouldBeNil)
			So(stats.PerCategory[0].Comparisons, ShouldEqual, 0)
		})
	})

	Convey("Given an event still in draft", t, func() {
		cat := catalog.NewInMemory()
		cat.PutEvent(model.Event{ID: "event-2", MemberIDs: []string{"alice"}, Status: model.StatusDraft})
		svc := New(cat, cat, WithClock(func() time.Time { return fixedNow }))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("Submissions are rejected", func() {
			res, err := svc.SubmitComparison(ctx, "alice", "event-2", model.CategoryBestMoment, "p1", "p2", "p1")
			So(err, ShouldBeNil)
			So(res.Reason, ShouldEqual, types.ReasonNotRanking)
		})
	})
}

func TestSkipComparison(t *testing.T) {
	ctx := context.Background()

	Convey("Given a fresh event", t, func() {
		svc := newFixture(t)

		Convey("When alice skips the p1/p2 pairing", func() {
			res, err := svc.SkipComparison(ctx, "alice", "event-1", model.CategoryBestMoment, "p1", "p2")
			So(err, ShouldBeNil)
			So(res.Recorded, ShouldBeTrue)
			So(res.RemainingInSession, ShouldEqual, 4)

			Convey("Then neither photo's rating moved", func() {
				for _, id := range []string{"p1", "p2"} {
					stats, _, err := svc.PhotoStats(ctx, "alice", "event-1", id)
					So(err, ShouldBeNil)
					So(stats.PerCategory[0].Score, ShouldEqual, 1500)
					So(stats.PerCategory[0].Comparisons, ShouldEqual, 0)
					So(stats.PerCategory[0].Uncertainty, ShouldEqual, 350)
				}
			})

			Convey("Then the skip is on the audit trail", func() {
				records, reason, err := svc.History(ctx, "alice", "event-1", model.CategoryBestMoment, 10, 0)
				So(err, ShouldBeNil)
				So(reason, ShouldBeEmpty)
				So(records, ShouldHaveLength, 1)
				So(records[0].WasSkipped, ShouldBeTrue)
				So(records[0].WinnerPhotoID, ShouldBeEmpty)
				So(records[0].VoterID, ShouldEqual, "alice")
			})

			Convey("Then the session budget still shrank", func() {
				budgets, _, err := svc.SessionBudget(ctx, "alice", "event-1")
				So(err, ShouldBeNil)
				for _, b := range budgets {
					if b.Category == model.CategoryBestMoment {
						So(b.Remaining, ShouldEqual, 4)
					} else {
						So(b.Remaining, ShouldEqual, 5)
					}
				}
			})
		})
	})
}

func TestSessionQuota(t *testing.T) {
	ctx := context.Background()

	Convey("Given a session limit of one comparison", t, func() {
		svc := newFixture(t, WithSessionLimit(1))

		Convey("When alice spends her budget", func() {
			res, err := svc.SubmitComparison(ctx, "alice", "event-1", model.CategoryBestMoment, "p1", "p2", "p1")
			So(err, ShouldBeNil)
			So(res.Recorded, ShouldBeTrue)
			So(res.RemainingInSession, ShouldEqual, 0)
			So(res.MoreAvailable, ShouldBeFalse)

			Convey("Then further submissions in that category are denied", func() {
				res, err := svc.SubmitComparison(ctx, "alice", "event-1", model.CategoryBestMoment, "p1", "p3", "p1")
				So(err, ShouldBeNil)
				So(res.Recorded, ShouldBeFalse)
				So(res.Reason, ShouldEqual, types.ReasonQuotaExhausted)
			})

			Convey("Then other categories keep their own budget", func() {
				res, err := svc.SubmitComparison(ctx, "alice", "event-1", model.CategoryFunniest, "p1", "p3", "p3")
				So(err, ShouldBeNil)
				So(res.Recorded, ShouldBeTrue)
			})

			Convey("Then other voters keep their own budget", func() {
				res, err := svc.SubmitComparison(ctx, "bob", "event-1", model.CategoryBestMoment, "p2", "p3", "p2")
				So(err, ShouldBeNil)
				So(res.Recorded, ShouldBeTrue)
			})
		})
	})
}

func TestNextMatchup(t *testing.T) {
	ctx := context.Background()

	Convey("Given a fresh event", t, func() {
		svc := newFixture(t)

		Convey("When alice asks for a matchup", func() {
			m, reason, err := svc.NextMatchup(ctx, "alice", "event-1")
			So(err, ShouldBeNil)
			So(reason, ShouldBeEmpty)
			So(m, ShouldNotBeNil)

			Convey("Then the pair is judgeable by her", func() {
				So(m.PhotoA.ID, ShouldNotEqual, m.PhotoB.ID)
				So(m.PhotoA.UploadedBy, ShouldNotEqual, "alice")
				So(m.PhotoB.UploadedBy, ShouldNotEqual, "alice")
				So(m.PhotoA.UploadedBy, ShouldNotEqual, m.PhotoB.UploadedBy)
				So(m.Category.Valid(), ShouldBeTrue)
				So(m.Prompt, ShouldEqual, m.Category.Prompt())
				So(m.RemainingInSession, ShouldEqual, 5)
			})
		})

		Convey("Preconditions are enforced", func() {
			_, reason, err := svc.NextMatchup(ctx, "alice", "ghost")
			So(err, ShouldBeNil)
			So(reason, ShouldEqual, types.ReasonEventNotFound)

			_, reason, err = svc.NextMatchup(ctx, "mallory", "event-1")
			So(err, ShouldBeNil)
			So(reason, ShouldEqual, types.ReasonNotMember)
		})
	})

	Convey("Given an event with a single photo", t, func() {
		cat := catalog.NewInMemory()
		cat.PutEvent(model.Event{ID: "event-3", MemberIDs: []string{"alice", "bob"}, Status: model.StatusRanking})
		cat.AddPhoto(model.Photo{ID: "only", EventID: "event-3", UploadedBy: "bob"})
		svc := New(cat, cat, WithClock(func() time.Time { return fixedNow }))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("No matchup is available", func() {
			m, reason, err := svc.NextMatchup(ctx, "alice", "event-3")
			So(err, ShouldBeNil)
			So(m, ShouldBeNil)
			So(reason, ShouldEqual, types.ReasonNoneAvailable)
		})
	})

	Convey("Given an exhausted session", t, func() {
		svc := newFixture(t, WithSessionLimit(1))
		res, err := svc.SubmitComparison(ctx, "alice", "event-1", model.CategoryBestMoment, "p1", "p2", "p1")
		So(err, ShouldBeNil)
		So(res.Recorded, ShouldBeTrue)
		_, err = svc.SubmitComparison(ctx, "alice", "event-1", model.CategoryFunniest, "p1", "p3", "p1")
		So(err, ShouldBeNil)
		_, err = svc.SubmitComparison(ctx, "alice", "event-1", model.CategoryMostArtistic, "p2", "p3", "p2")
		So(err, ShouldBeNil)

		Convey("No category has budget left, so nothing is offered", func() {
			m, reason, err := svc.NextMatchup(ctx, "alice", "event-1")
			So(err, ShouldBeNil)
			So(m, ShouldBeNil)
			So(reason, ShouldEqual, types.ReasonNoneAvailable)
		})
	})
}

func TestHistoryPagination(t *testing.T) {
	ctx := context.Background()

	Convey("Given several recorded comparisons", t, func() {
		svc := newFixture(t)

		r1, err := svc.SubmitComparison(ctx, "alice", "event-1", model.CategoryBestMoment, "p1", "p2", "p1")
		So(err, ShouldBeNil)
		r2, err := svc.SubmitComparison(ctx, "alice", "event-1", model.CategoryBestMoment, "p1", "p3", "p3")
		So(err, ShouldBeNil)
		r3, err := svc.SubmitComparison(ctx, "bob", "event-1", model.CategoryBestMoment, "p2", "p3", "p2")
		So(err, ShouldBeNil)

		Convey("History lists newest first", func() {
			records, _, err := svc.History(ctx, "alice", "event-1", model.CategoryBestMoment, 10, 0)
			So(err, ShouldBeNil)
			So(records, ShouldHaveLength, 3)
			So(records[0].ID, ShouldEqual, r3.ComparisonID)
			So(records[1].ID, ShouldEqual, r2.ComparisonID)
			So(records[2].ID, ShouldEqual, r1.ComparisonID)
		})

		Convey("Limit and offset page through the log", func() {
			records, _, err := svc.History(ctx, "alice", "event-1", model.CategoryBestMoment, 1, 1)
			So(err, ShouldBeNil)
			So(records, ShouldHaveLength, 1)
			So(records[0].ID, ShouldEqual, r2.ComparisonID)
		})

		Convey("Other categories have an empty history", func() {
			records, _, err := svc.History(ctx, "alice", "event-1", model.CategoryFunniest, 10, 0)
			So(err, ShouldBeNil)
			So(records, ShouldBeEmpty)
		})
	})
}

func TestPhotoStats(t *testing.T) {
	ctx := context.Background()

	Convey("Given two judged comparisons", t, func() {
		svc := newFixture(t)

		_, err := svc.SubmitComparison(ctx, "alice", "event-1", model.CategoryBestMoment, "p1", "p2", "p1")
		So(err, ShouldBeNil)
		_, err = svc.SubmitComparison(ctx, "alice", "event-1", model.CategoryBestMoment, "p1", "p3", "p1")
		So(err, ShouldBeNil)

		Convey("The double winner ranks first of three", func() {
			stats, reason, err := svc.PhotoStats(ctx, "alice", "event-1", "p1")
			So(err, ShouldBeNil)
			So(reason, ShouldBeEmpty)
			So(stats.PerCategory[0].Rank, ShouldEqual, 1)
			So(stats.PerCategory[0].TotalInCategory, ShouldEqual, 3)
			So(stats.PerCategory[0].Comparisons, ShouldEqual, 2)
			So(stats.PerCategory[0].Wins, ShouldEqual, 2)
		})

		Convey("An unjudged category reports the initial rating", func() {
			stats, _, err := svc.PhotoStats(ctx, "alice", "event-1", "p1")
			So(err, ShouldBeNil)
			So(stats.PerCategory[1].Score, ShouldEqual, 1500)
			So(stats.PerCategory[1].Rank, ShouldEqual, 1)
			So(stats.PerCategory[1].TotalInCategory, ShouldEqual, 0)
		})

		Convey("An unknown photo yields a reason", func() {
			stats, reason, err := svc.PhotoStats(ctx, "alice", "event-1", "ghost")
			So(err, ShouldBeNil)
			So(stats, ShouldBeNil)
			So(reason, ShouldEqual, types.ReasonPhotoNotFound)
		})

		Convey("Non-members cannot read stats", func() {
			_, reason, err := svc.PhotoStats(ctx, "mallory", "event-1", "p1")
			So(err, ShouldBeNil)
			So(reason, ShouldEqual, types.ReasonNotMember)
		})
	})
}

func TestGetStats(t *testing.T) {
	ctx := context.Background()

	Convey("Given a running service with some activity", t, func() {
		svc := newFixture(t)
		_, err := svc.SubmitComparison(ctx, "alice", "event-1", model.CategoryBestMoment, "p1", "p2", "p1")
		So(err, ShouldBeNil)

		Convey("GetStats reports configuration and store sizes", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldBeTrue)
			So(stats["ratingsTracked"], ShouldEqual, 2)
			So(stats["comparisonsLogged"], ShouldEqual, 1)
		})
	})
}
