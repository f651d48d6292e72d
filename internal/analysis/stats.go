package analysis

import (
	"natbwdash/internal/models"
	"sync"
	"time"
)

// Counters holds refresh bookkeeping for the status line.
type Counters struct {
	Applied   int64
	Discarded int64 // completed out of order and dropped
	Failures  int64
	LastError error
	LastErrAt time.Time
}

// Board holds the most recently applied snapshot.
//
// Refreshes may overlap, so every snapshot carries the sequence number its
// refresh was started with and Apply only accepts a snapshot newer than the
// one currently held.
type Board struct {
	mu       sync.Mutex
	latest   models.Snapshot
	counters Counters

	detector *ChangeDetector
}

// NewBoard creates an empty Board.
func NewBoard() *Board {
	return &Board{
		detector: NewChangeDetector(DefaultConfig()),
	}
}

// Apply stores snap if it is newer than the current snapshot and reports
// whether it was accepted.
func (b *Board) Apply(snap models.Snapshot) bool {
	b.mu.Lock()
	if snap.Seq <= b.latest.Seq {
		b.counters.Discarded++
		b.mu.Unlock()
		return false
	}
	prev := b.latest
	b.latest = snap
	b.counters.Applied++
	b.mu.Unlock()

	// Detector has its own mutex
	b.detector.Compare(prev, snap)
	return true
}

// RecordError notes a failed refresh. The current snapshot is kept.
func (b *Board) RecordError(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.counters.Failures++
	b.counters.LastError = err
	b.counters.LastErrAt = time.Now()
}

// Empty reports whether no snapshot has been applied yet.
func (b *Board) Empty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.latest.Empty()
}

// Latest returns the most recently applied snapshot.
func (b *Board) Latest() models.Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.latest
}

// Totals returns the summed inbound and outbound rates of the latest snapshot.
func (b *Board) Totals() (float64, float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var in, out float64
	for _, s := range b.latest.Stats {
		in += s.InRate
		out += s.OutRate
	}
	return in, out
}

// GetCounters returns a copy of the refresh counters.
func (b *Board) GetCounters() Counters {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counters
}

// GetAlerts returns the most recent change alerts, newest last.
func (b *Board) GetAlerts(limit int) []Alert {
	return b.detector.GetRecentAlerts(limit)
}
