// Package poller periodically refreshes the host table.
package poller

import (
	"context"
	"errors"
	"natbwdash/internal/analysis"
	"natbwdash/internal/log"
	"natbwdash/internal/models"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// DefaultInterval is the refresh period.
const DefaultInterval = 900 * time.Millisecond

var (
	ErrNoFetcher      = errors.New("scheduler has no fetcher")
	ErrNoRenderer     = errors.New("scheduler has no renderer")
	ErrAlreadyStarted = errors.New("scheduler already started")
)

// Fetcher requests host statistics sorted by key.
type Fetcher interface {
	Fetch(ctx context.Context, key models.OrderKey) (models.Stats, error)
}

// Renderer replaces the displayed table with snap.
type Renderer interface {
	Render(snap models.Snapshot, active models.OrderKey) error
}

// Scheduler runs refresh cycles (fetch then render) on a fixed period and on
// demand.
//
// Cycles are not queued: a tick that fires while a cycle is in flight starts
// another one. Each cycle takes a sequence number when it starts and its
// result is only rendered if no later-started cycle has been rendered yet.
type Scheduler struct {
	Fetcher     Fetcher
	Renderer    Renderer
	Board       *analysis.Board
	State       *ViewState
	Interval    time.Duration
	Clock       Clock
	Suppressors []Suppressor

	// OnError is called for every failed cycle.
	OnError func(err error)

	seq      atomic.Uint64
	renderMu sync.Mutex

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	running bool
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler with the default interval, a real clock
// and an empty board.
func NewScheduler(f Fetcher, r Renderer) *Scheduler {
	return &Scheduler{
		Fetcher:  f,
		Renderer: r,
		Board:    analysis.NewBoard(),
		State:    NewViewState(models.DefaultOrderKey),
		Interval: DefaultInterval,
		Clock:    RealClock{},
	}
}

// Start runs one refresh immediately and then one per interval until ctx is
// done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.Fetcher == nil {
		return ErrNoFetcher
	}
	if s.Renderer == nil {
		return ErrNoRenderer
	}
	if s.Board == nil {
		s.Board = analysis.NewBoard()
	}
	if s.State == nil {
		s.State = NewViewState(models.DefaultOrderKey)
	}
	if s.Clock == nil {
		s.Clock = RealClock{}
	}
	if s.Interval <= 0 {
		s.Interval = DefaultInterval
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true
	ticker := s.Clock.NewTicker(s.Interval)
	s.wg.Add(1)
	s.mu.Unlock()

	log.Info().
		Dur("interval", s.Interval).
		Str("order_by", s.State.OrderBy().String()).
		Msg("starting refresh scheduler")

	s.Refresh()
	go s.loop(ticker)
	return nil
}

func (s *Scheduler) loop(ticker Ticker) {
	defer s.wg.Done()
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C():
			s.Tick()
		case <-s.ctx.Done():
			return
		}
	}
}

// Stop ends the periodic refresh and waits for running cycles to settle.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
}

// Tick starts a refresh unless a suppressor is active. It reports whether a
// refresh was started.
func (s *Scheduler) Tick() bool {
	for _, sup := range s.Suppressors {
		if sup.Active != nil && sup.Active() {
			log.Trace().Str("suppressor", sup.Name).Msg("tick suppressed")
			return false
		}
	}
	return s.Refresh()
}

// SetOrderBy changes the sort key and starts a refresh right away. The key
// is not validated, the upstream decides what to do with unknown keys.
func (s *Scheduler) SetOrderBy(key models.OrderKey) {
	if s.State == nil {
		s.State = NewViewState(key)
	} else {
		s.State.setOrderBy(key)
	}
	log.Debug().Str("order_by", key.String()).Msg("order changed")
	s.Refresh()
}

// OrderBy returns the active sort key.
func (s *Scheduler) OrderBy() models.OrderKey {
	if s.State == nil {
		return models.DefaultOrderKey
	}
	return s.State.OrderBy()
}

// Refresh starts one refresh cycle and reports whether it was started. It
// does nothing unless the scheduler is running.
func (s *Scheduler) Refresh() bool {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return false
	}
	ctx := s.ctx
	seq := s.seq.Add(1)
	key := s.State.OrderBy()
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		s.run(ctx, seq, key)
	}()
	return true
}

func (s *Scheduler) run(ctx context.Context, seq uint64, key models.OrderKey) {
	logger := log.With().
		Str("cycle", uuid.NewString()).
		Uint64("seq", seq).
		Str("order_by", key.String()).
		Logger()

	start := s.Clock.Now()
	stats, err := s.Fetcher.Fetch(ctx, key)
	if err != nil {
		if ctx.Err() != nil {
			logger.Debug().Err(err).Msg("refresh cancelled")
			return
		}
		s.fail(err)
		logger.Warn().Err(err).Msg("refresh failed, keeping last table")
		return
	}

	snap := models.Snapshot{
		Seq:       seq,
		OrderBy:   key,
		Stats:     stats,
		FetchedAt: s.Clock.Now(),
	}

	s.renderMu.Lock()
	defer s.renderMu.Unlock()
	if !s.Board.Apply(snap) {
		logger.Debug().Msg("discarding out of order refresh")
		return
	}
	if err := s.Renderer.Render(snap, key); err != nil {
		s.fail(err)
		logger.Error().Err(err).Msg("render failed")
		return
	}
	logger.Trace().
		Int("hosts", len(stats)).
		Dur("dur", snap.FetchedAt.Sub(start)).
		Msg("refreshed")
}

func (s *Scheduler) fail(err error) {
	s.Board.RecordError(err)
	if s.OnError != nil {
		s.OnError(err)
	}
}
