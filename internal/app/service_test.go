package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/okian/pairwise/internal/adapters/repository"
	service "github.com/okian/pairwise/internal/app"
	"github.com/okian/pairwise/internal/domain/catalog"
	"github.com/okian/pairwise/pkg/metrics"
	. "github.com/smartystreets/goconvey/convey"
)

func testCatalog(fruits string) *catalog.Catalog {
	return catalog.New(fstest.MapFS{
		"index.json":        {Data: []byte(`["fruits", "solo"]`)},
		"lists/fruits.json": {Data: []byte(fruits)},
		"lists/solo.json":   {Data: []byte(`["Only"]`)},
	})
}

func newService(store repository.BlobStore, fruits string, opts ...service.Option) *service.Service {
	base := []service.Option{
		service.WithCatalog(testCatalog(fruits)),
		service.WithPersistence(repository.NewGateway(store)),
		service.WithSeed(7),
	}
	return service.New(append(base, opts...)...)
}

var errStoreClosed = errors.New("store closed")

// closingStore fails every call after Close, like a real network client.
type closingStore struct {
	*repository.MemoryStore
	mu     sync.Mutex
	closed bool
}

func (c *closingStore) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, errStoreClosed
	}
	return c.MemoryStore.Get(ctx, key)
}

func (c *closingStore) Set(ctx context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errStoreClosed
	}
	return c.MemoryStore.Set(ctx, key, value)
}

func (c *closingStore) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// waitForStored polls store until check accepts the persisted state.
func waitForStored(store repository.BlobStore, check func(ids []string) bool) bool {
	gw := repository.NewGateway(store)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if st, ok := gw.Load(context.Background()).Lists["fruits"]; ok && check(st.ItemIDs) {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func votesSeries(list string) bool {
	families, err := metrics.GetRegistry().Gather()
	if err != nil {
		return false
	}
	for _, f := range families {
		if f.GetName() != "pairwise_ranking_votes_recorded_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "list" && lp.GetValue() == list {
					return true
				}
			}
		}
	}
	return false
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a service without a catalog", t, func() {
		svc := service.New()

		Convey("Start fails", func() {
			So(errors.Is(svc.Start(context.Background()), service.ErrNoCatalog), ShouldBeTrue)
		})
	})

	Convey("Given a configured service", t, func() {
		svc := newService(repository.NewMemoryStore(), `["Apple", "Pear", "Plum"]`)
		ctx := context.Background()

		Convey("Operations before Start fail", func() {
			_, err := svc.Matchup(ctx, "fruits")
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})

		Convey("Start and Stop toggle the started flag", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.GetStats()["started"], ShouldEqual, true)
			svc.Stop()
			svc.Stop()
			So(svc.GetStats()["started"], ShouldEqual, false)
		})
	})

	Convey("Given a service over a store that fails once closed", t, func() {
		store := &closingStore{MemoryStore: repository.NewMemoryStore()}
		svc := newService(store, `["Apple", "Pear", "Plum"]`)
		ctx := context.Background()

		So(svc.Start(ctx), ShouldBeNil)
		_, err := svc.SelectList(ctx, "fruits")
		So(err, ShouldBeNil)
		_, err = svc.RecordVote(ctx, service.Vote{ListID: "fruits", WinnerID: "pear", LoserID: "apple"})
		So(err, ShouldBeNil)

		Convey("When it is stopped and started again", func() {
			svc.Stop()
			So(store.closed, ShouldBeFalse)
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()

			Convey("Then the history survives the restart", func() {
				entries, err := svc.Ranking(ctx, "fruits")
				So(err, ShouldBeNil)
				So(entries[0].ItemID, ShouldEqual, "pear")
				So(entries[0].Wins, ShouldEqual, 1)
			})
		})

		Convey("When it is closed", func() {
			So(svc.Close(), ShouldBeNil)
			So(svc.Close(), ShouldBeNil)

			Convey("Then storage is released and Start refuses", func() {
				So(store.closed, ShouldBeTrue)
				So(errors.Is(svc.Start(ctx), service.ErrClosed), ShouldBeTrue)
			})

			Convey("And the final state was written before closing", func() {
				raw, err := store.MemoryStore.Get(ctx, repository.DefaultKey)
				So(err, ShouldBeNil)
				So(string(raw), ShouldContainSubstring, "pear")
			})
		})
	})
}

func TestService_SelectList(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := newService(repository.NewMemoryStore(), `["Apple", "Pear", "Plum"]`)
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("Lists returns the catalog index", func() {
			lists, err := svc.Lists(ctx)
			So(err, ShouldBeNil)
			So(len(lists), ShouldEqual, 2)
			So(lists[0].Label, ShouldEqual, "Fruits")
		})

		Convey("Selecting a list returns its items and a matchup", func() {
			view, err := svc.SelectList(ctx, "fruits")
			So(err, ShouldBeNil)
			So(view.List.ID, ShouldEqual, "fruits")
			So(len(view.Items), ShouldEqual, 3)
			So(view.Comparisons, ShouldEqual, 0)
			So(view.Matchup, ShouldNotBeNil)
			So(view.Matchup.Left.ID, ShouldNotEqual, view.Matchup.Right.ID)
			So(view.Matchup.LeftWinProbability, ShouldAlmostEqual, 0.5, 1e-9)

			selected, ok := svc.Selected(ctx)
			So(ok, ShouldBeTrue)
			So(selected, ShouldEqual, "fruits")
		})

		Convey("An unknown list suggests the closest id", func() {
			_, err := svc.SelectList(ctx, "fruit")
			So(errors.Is(err, service.ErrListNotFound), ShouldBeTrue)
			var nf *service.ListNotFoundError
			So(errors.As(err, &nf), ShouldBeTrue)
			So(nf.Suggestion, ShouldEqual, "fruits")
		})

		Convey("A single item list has no matchup", func() {
			view, err := svc.SelectList(ctx, "solo")
			So(err, ShouldBeNil)
			So(view.Matchup, ShouldBeNil)

			_, err = svc.Matchup(ctx, "solo")
			So(errors.Is(err, service.ErrNoMatchup), ShouldBeTrue)
		})
	})
}

func TestService_Voting(t *testing.T) {
	Convey("Given a started service with the uniform sampler", t, func() {
		svc := newService(repository.NewMemoryStore(), `["Apple", "Pear", "Plum"]`, service.WithSampler("uniform"))
		ctx := context.Background()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		current, err := svc.Matchup(ctx, "fruits")
		So(err, ShouldBeNil)

		Convey("The current matchup is stable until something happens", func() {
			again, err := svc.Matchup(ctx, "fruits")
			So(err, ShouldBeNil)
			So(again.Pair(), ShouldResemble, current.Pair())
		})

		Convey("Skip never repeats the skipped pair with three items", func() {
			for i := 0; i < 20; i++ {
				next, err := svc.Skip(ctx, "fruits")
				So(err, ShouldBeNil)
				So(next.Pair().Matches(current.Pair().Left, current.Pair().Right), ShouldBeFalse)
				current = next
			}
		})

		Convey("Recording a vote rewards the winner", func() {
			res, err := svc.RecordVote(ctx, service.Vote{
				VoteID: "v1", ListID: "fruits", WinnerID: current.Left.ID, LoserID: current.Right.ID,
			})
			So(err, ShouldBeNil)
			So(res.Duplicate, ShouldBeFalse)
			So(res.VoteID, ShouldEqual, "v1")
			So(res.Matchup, ShouldNotBeNil)
			So(res.Matchup.Pair().Matches(current.Pair().Left, current.Pair().Right), ShouldBeFalse)

			entries, err := svc.Ranking(ctx, "fruits")
			So(err, ShouldBeNil)
			So(entries[0].ItemID, ShouldEqual, current.Left.ID)
			So(entries[0].Rank, ShouldEqual, 1)
			So(entries[0].Wins, ShouldEqual, 1)
			So(entries[0].Matches, ShouldEqual, 1)

			Convey("And replaying the vote id changes nothing", func() {
				dup, err := svc.RecordVote(ctx, service.Vote{
					VoteID: "v1", ListID: "fruits", WinnerID: current.Right.ID, LoserID: current.Left.ID,
				})
				So(err, ShouldBeNil)
				So(dup.Duplicate, ShouldBeTrue)

				after, err := svc.Ranking(ctx, "fruits")
				So(err, ShouldBeNil)
				So(after, ShouldResemble, entries)
			})
		})

		Convey("A vote without an id gets one", func() {
			res, err := svc.RecordVote(ctx, service.Vote{ListID: "fruits", WinnerID: "apple", LoserID: "pear"})
			So(err, ShouldBeNil)
			So(res.VoteID, ShouldNotBeEmpty)
		})

		Convey("Invalid votes are rejected", func() {
			_, err := svc.RecordVote(ctx, service.Vote{ListID: "fruits", WinnerID: "apple", LoserID: "apple"})
			So(errors.Is(err, service.ErrInvalidVote), ShouldBeTrue)

			_, err = svc.RecordVote(ctx, service.Vote{ListID: "fruits", WinnerID: "apple"})
			So(errors.Is(err, service.ErrInvalidVote), ShouldBeTrue)

			_, err = svc.RecordVote(ctx, service.Vote{VoteID: "x", ListID: "fruits", WinnerID: "apple", LoserID: "kiwi"})
			So(errors.Is(err, service.ErrUnknownItem), ShouldBeTrue)

			Convey("And a rejected vote id can be reused", func() {
				res, err := svc.RecordVote(ctx, service.Vote{VoteID: "x", ListID: "fruits", WinnerID: "apple", LoserID: "plum"})
				So(err, ShouldBeNil)
				So(res.Duplicate, ShouldBeFalse)
			})

			_, err = svc.RecordVote(ctx, service.Vote{ListID: "vegetables", WinnerID: "a", LoserID: "b"})
			So(errors.Is(err, service.ErrListNotFound), ShouldBeTrue)
		})

		Convey("Repeated wins produce a consistent ranking", func() {
			order := []string{"plum", "apple", "pear"}
			for i := 0; i < 5; i++ {
				for a := 0; a < len(order); a++ {
					for b := a + 1; b < len(order); b++ {
						_, err := svc.RecordVote(ctx, service.Vote{ListID: "fruits", WinnerID: order[a], LoserID: order[b]})
						So(err, ShouldBeNil)
					}
				}
			}
			entries, err := svc.Ranking(ctx, "fruits")
			So(err, ShouldBeNil)
			So(entries[0].ItemID, ShouldEqual, "plum")
			So(entries[1].ItemID, ShouldEqual, "apple")
			So(entries[2].ItemID, ShouldEqual, "pear")
			So(entries[0].DisplayRating, ShouldBeGreaterThan, entries[2].DisplayRating)
			So(entries[0].Matches, ShouldEqual, 10)

			total := 0.0
			for _, e := range entries {
				total += e.Ability
			}
			So(total, ShouldAlmostEqual, 1.0, 1e-9)

			Convey("And Reset drops the history", func() {
				So(votesSeries("fruits"), ShouldBeTrue)
				So(svc.Reset(ctx, "fruits"), ShouldBeNil)
				So(votesSeries("fruits"), ShouldBeFalse)
				fresh, err := svc.Ranking(ctx, "fruits")
				So(err, ShouldBeNil)
				for _, e := range fresh {
					So(e.Matches, ShouldEqual, 0)
					So(e.Ability, ShouldAlmostEqual, 1.0/3, 1e-9)
				}
				// Ties fall back to id order.
				So(fresh[0].ItemID, ShouldEqual, "apple")
			})
		})
	})
}

func TestService_Persistence(t *testing.T) {
	Convey("Given a service that recorded votes and stopped", t, func() {
		store := repository.NewMemoryStore()
		ctx := context.Background()

		first := newService(store, `["Apple", "Pear", "Plum"]`)
		So(first.Start(ctx), ShouldBeNil)
		_, err := first.SelectList(ctx, "fruits")
		So(err, ShouldBeNil)
		for i := 0; i < 3; i++ {
			_, err := first.RecordVote(ctx, service.Vote{ListID: "fruits", WinnerID: "pear", LoserID: "apple"})
			So(err, ShouldBeNil)
		}
		first.Stop()

		Convey("When a new service starts on the same store", func() {
			second := newService(store, `["Apple", "Pear", "Plum"]`)
			So(second.Start(ctx), ShouldBeNil)
			defer second.Stop()

			Convey("Then the selection and history are restored", func() {
				selected, ok := second.Selected(ctx)
				So(ok, ShouldBeTrue)
				So(selected, ShouldEqual, "fruits")

				entries, err := second.Ranking(ctx, "fruits")
				So(err, ShouldBeNil)
				So(entries[0].ItemID, ShouldEqual, "pear")
				So(entries[0].Wins, ShouldEqual, 3)
			})
		})

		Convey("When the list changes and is first read through Ranking", func() {
			second := newService(store, `["Kiwi", "Pear", "Apple"]`)
			So(second.Start(ctx), ShouldBeNil)
			defer second.Stop()

			_, err := second.Ranking(ctx, "fruits")
			So(err, ShouldBeNil)

			Convey("Then the remapped state is stored without waiting for Stop", func() {
				remapped := waitForStored(store, func(ids []string) bool {
					return len(ids) == 3 && ids[0] == "kiwi" && ids[1] == "pear" && ids[2] == "apple"
				})
				So(remapped, ShouldBeTrue)
			})
		})

		Convey("When the list changes before the next start", func() {
			second := newService(store, `["Kiwi", "Pear", "Apple"]`)
			So(second.Start(ctx), ShouldBeNil)
			defer second.Stop()

			view, err := second.SelectList(ctx, "fruits")
			So(err, ShouldBeNil)

			Convey("Then history follows the items that remain", func() {
				So(view.Comparisons, ShouldEqual, 3)
				entries, err := second.Ranking(ctx, "fruits")
				So(err, ShouldBeNil)
				byID := map[string]uint32{}
				for _, e := range entries {
					byID[e.ItemID] = e.Wins
				}
				So(byID["pear"], ShouldEqual, 3)
				So(byID["kiwi"], ShouldEqual, 0)
				So(byID, ShouldNotContainKey, "plum")
			})
		})
	})
}
