package poller

import (
	"context"
	"errors"
	"natbwdash/internal/log"
	"natbwdash/internal/models"
	"natbwdash/internal/reporting"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	log.SetDiscardLogger()
}

type fakeTicker struct {
	c       chan time.Time
	stopped atomic.Bool
}

func (f *fakeTicker) C() <-chan time.Time { return f.c }
func (f *fakeTicker) Stop()               { f.stopped.Store(true) }

type fakeClock struct {
	ticker   *fakeTicker
	interval time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{ticker: &fakeTicker{c: make(chan time.Time)}}
}

func (f *fakeClock) Now() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }

func (f *fakeClock) NewTicker(d time.Duration) Ticker {
	f.interval = d
	return f.ticker
}

// tick blocks until the scheduler loop has taken the tick. Since the loop
// handles one tick at a time, a returning tick also means the previous one
// has been fully processed.
func (f *fakeClock) tick(t *testing.T) {
	t.Helper()
	select {
	case f.ticker.c <- time.Time{}:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler loop did not take tick")
	}
}

// call is one pending Fetch.
type call struct {
	key    models.OrderKey
	result chan fetchResult
}

type fetchResult struct {
	stats models.Stats
	err   error
}

// gatedFetcher blocks every Fetch until the test releases it.
type gatedFetcher struct {
	calls chan *call
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{calls: make(chan *call, 16)}
}

func (g *gatedFetcher) Fetch(ctx context.Context, key models.OrderKey) (models.Stats, error) {
	c := &call{key: key, result: make(chan fetchResult, 1)}
	g.calls <- c
	select {
	case r := <-c.result:
		return r.stats, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *gatedFetcher) next(t *testing.T) *call {
	t.Helper()
	select {
	case c := <-g.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("expected a fetch")
		return nil
	}
}

func (g *gatedFetcher) none(t *testing.T) {
	t.Helper()
	select {
	case c := <-g.calls:
		t.Fatalf("unexpected fetch for %q", c.key)
	case <-time.After(50 * time.Millisecond):
	}
}

func (c *call) reply(stats models.Stats, err error) {
	c.result <- fetchResult{stats: stats, err: err}
}

// recorder collects rendered snapshots.
type recorder struct {
	mu       sync.Mutex
	rendered []models.Snapshot
	notify   chan models.Snapshot
}

func newRecorder() *recorder {
	return &recorder{notify: make(chan models.Snapshot, 16)}
}

func (r *recorder) Render(snap models.Snapshot, active models.OrderKey) error {
	r.mu.Lock()
	r.rendered = append(r.rendered, snap)
	r.mu.Unlock()
	r.notify <- snap
	return nil
}

func (r *recorder) wait(t *testing.T) models.Snapshot {
	t.Helper()
	select {
	case s := <-r.notify:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("expected a render")
		return models.Snapshot{}
	}
}

func newTestScheduler(f Fetcher, r Renderer) (*Scheduler, *fakeClock) {
	clock := newFakeClock()
	s := NewScheduler(f, r)
	s.Clock = clock
	return s, clock
}

func TestSchedulerPreconditions(t *testing.T) {
	s := NewScheduler(nil, newRecorder())
	assert.ErrorIs(t, s.Start(context.Background()), ErrNoFetcher)

	s = NewScheduler(newGatedFetcher(), nil)
	assert.ErrorIs(t, s.Start(context.Background()), ErrNoRenderer)
}

func TestSchedulerStartRefreshesAndTicks(t *testing.T) {
	f := newGatedFetcher()
	r := newRecorder()
	s, clock := newTestScheduler(f, r)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()
	assert.Equal(t, DefaultInterval, clock.interval)
	assert.ErrorIs(t, s.Start(context.Background()), ErrAlreadyStarted)

	first := f.next(t)
	assert.Equal(t, models.OrderByIP, first.key)
	first.reply(models.Stats{{IP: "10.0.0.1"}}, nil)
	snap := r.wait(t)
	assert.Equal(t, uint64(1), snap.Seq)

	clock.tick(t)
	second := f.next(t)
	second.reply(models.Stats{{IP: "10.0.0.2"}}, nil)
	snap = r.wait(t)
	assert.Equal(t, uint64(2), snap.Seq)
	assert.Equal(t, "10.0.0.2", s.Board.Latest().Stats[0].IP)
}

func TestSchedulerSetOrderBy(t *testing.T) {
	for _, key := range models.OrderKeys {
		t.Run(string(key), func(t *testing.T) {
			f := newGatedFetcher()
			r := newRecorder()
			s, _ := newTestScheduler(f, r)
			require.NoError(t, s.Start(context.Background()))
			defer s.Stop()

			f.next(t).reply(nil, nil)
			r.wait(t)

			s.SetOrderBy(key)
			assert.Equal(t, key, s.OrderBy())

			c := f.next(t)
			assert.Equal(t, key, c.key)
			f.none(t)

			c.reply(models.Stats{}, nil)
			assert.Equal(t, key, r.wait(t).OrderBy)
		})
	}
}

func TestSchedulerSetOrderByUnknownKey(t *testing.T) {
	f := newGatedFetcher()
	r := newRecorder()
	s, _ := newTestScheduler(f, r)
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()
	f.next(t).reply(nil, nil)

	s.SetOrderBy("uptime")
	assert.Equal(t, models.OrderKey("uptime"), f.next(t).key)
}

func TestSchedulerSelectionSuppressesTick(t *testing.T) {
	f := newGatedFetcher()
	r := newRecorder()
	s, clock := newTestScheduler(f, r)

	var selecting atomic.Bool
	selecting.Store(true)
	s.Suppressors = []Suppressor{SelectionActive(selecting.Load)}

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()
	f.next(t).reply(nil, nil)
	r.wait(t)

	clock.tick(t)
	clock.tick(t)
	f.none(t)

	// explicit order changes are not suppressed
	s.SetOrderBy(models.OrderByName)
	f.next(t).reply(nil, nil)
	r.wait(t)

	selecting.Store(false)
	clock.tick(t)
	f.next(t)
}

func TestSchedulerHiddenSuppressesTick(t *testing.T) {
	f := newGatedFetcher()
	s, clock := newTestScheduler(f, newRecorder())

	var hidden atomic.Bool
	hidden.Store(true)
	s.Suppressors = []Suppressor{Hidden(hidden.Load)}

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()
	f.next(t).reply(nil, nil)

	clock.tick(t)
	f.none(t)

	hidden.Store(false)
	clock.tick(t)
	f.next(t)
}

func TestSchedulerOverlappingRefreshes(t *testing.T) {
	f := newGatedFetcher()
	r := newRecorder()
	s, clock := newTestScheduler(f, r)
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	older := f.next(t)
	// a tick while the first refresh is in flight starts another one
	clock.tick(t)
	newer := f.next(t)

	newer.reply(models.Stats{{IP: "10.0.0.2"}}, nil)
	assert.Equal(t, uint64(2), r.wait(t).Seq)

	older.reply(models.Stats{{IP: "10.0.0.1"}}, nil)
	select {
	case snap := <-r.notify:
		t.Fatalf("stale refresh %d was rendered", snap.Seq)
	case <-time.After(50 * time.Millisecond):
	}

	s.Stop()
	assert.Equal(t, "10.0.0.2", s.Board.Latest().Stats[0].IP)
	c := s.Board.GetCounters()
	assert.Equal(t, int64(1), c.Applied)
	assert.Equal(t, int64(1), c.Discarded)
}

func TestSchedulerFailureKeepsLastTable(t *testing.T) {
	f := newGatedFetcher()
	container := reporting.NewContainer("hosts", reporting.DefaultLayout())
	s, clock := newTestScheduler(f, container)

	var failures atomic.Int32
	s.OnError = func(err error) { failures.Add(1) }

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	f.next(t).reply(models.Stats{{IP: "10.0.0.1", InRate: 2048}}, nil)
	require.Eventually(t, func() bool { return container.Seq() == 1 }, 2*time.Second, 5*time.Millisecond)
	good := container.HTML()

	clock.tick(t)
	boom := errors.New("connection refused")
	f.next(t).reply(nil, boom)
	require.Eventually(t, func() bool { return failures.Load() == 1 }, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, good, container.HTML())
	assert.Equal(t, uint64(1), container.Seq())
	assert.ErrorIs(t, s.Board.GetCounters().LastError, boom)

	// the next good cycle renders again
	clock.tick(t)
	f.next(t).reply(models.Stats{}, nil)
	require.Eventually(t, func() bool { return container.Seq() == 3 }, 2*time.Second, 5*time.Millisecond)
}

func TestSchedulerStopCancelsInFlight(t *testing.T) {
	f := newGatedFetcher()
	r := newRecorder()
	s, clock := newTestScheduler(f, r)
	var failures atomic.Int32
	s.OnError = func(err error) { failures.Add(1) }

	require.NoError(t, s.Start(context.Background()))
	f.next(t)

	s.Stop()
	assert.True(t, clock.ticker.stopped.Load())
	assert.Equal(t, int32(0), failures.Load())
	assert.False(t, s.Refresh())
	// idempotent
	s.Stop()
}
