package reel_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"papermill_reel_tracker/badgerstore"
	"papermill_reel_tracker/models"
	"papermill_reel_tracker/reel"
)

// tick is a clock that advances one second per reading.
type tick struct {
	mu sync.Mutex
	t  time.Time
}

func (c *tick) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type recorder struct {
	mu     sync.Mutex
	events []reel.Event
}

func (r *recorder) Publish(_ context.Context, ev reel.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) types() []reel.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]reel.EventType, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

// flaky fails PatchReel for selected reel ids. A hook set with onNextList
// runs once, inside the next ListReels call.
type flaky struct {
	reel.Store
	mu       sync.Mutex
	fail     map[string]bool
	nextList func()
}

var errDisk = errors.New("disk on fire")

func (f *flaky) failOn(id string, on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail == nil {
		f.fail = map[string]bool{}
	}
	f.fail[id] = on
}

func (f *flaky) PatchReel(ctx context.Context, id string, p models.Patch, now time.Time) (*models.Reel, error) {
	f.mu.Lock()
	bad := f.fail[id]
	f.mu.Unlock()
	if bad {
		return nil, errDisk
	}
	return f.Store.PatchReel(ctx, id, p, now)
}

func (f *flaky) onNextList(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextList = fn
}

func (f *flaky) ListReels(ctx context.Context, flt reel.Filter) ([]models.Reel, error) {
	f.mu.Lock()
	hook := f.nextList
	f.nextList = nil
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return f.Store.ListReels(ctx, flt)
}

type fixture struct {
	svc   *reel.Service
	store *flaky
	pub   *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	bs, err := badgerstore.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = bs.Close() })

	clock := &tick{t: time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)}
	f := &fixture{store: &flaky{Store: bs}, pub: &recorder{}}
	f.svc = reel.NewService(f.store,
		reel.WithClock(clock.now),
		reel.WithPublisher(f.pub),
	)
	return f
}

func (f *fixture) create(t *testing.T, reelNo, weight string) *models.Reel {
	t.Helper()
	r, err := f.svc.Create(context.Background(), reel.CreateInput{
		ReelNo:  reelNo,
		Size:    "70x100",
		GSM:     "58",
		Quality: "Maplitho",
		Mill:    "North",
		Weight:  weight,
	})
	require.NoError(t, err)
	return r
}

func (f *fixture) assigned(t *testing.T, reelNo, operator string) *models.Reel {
	t.Helper()
	r := f.create(t, reelNo, "500")
	r, err := f.svc.Assign(context.Background(), r.ID, operator)
	require.NoError(t, err)
	return r
}

func output(reams, sheets, length, width string) reel.OutputInput {
	return reel.OutputInput{OutputReams: reams, LooseSheets: sheets, OutputLength: length, OutputWidth: width}
}
