package tui

import (
	"natbwdash/internal/models"

	tea "github.com/charmbracelet/bubbletea"
)

// SnapshotMsg carries a newly applied snapshot to the model.
type SnapshotMsg struct {
	Snapshot models.Snapshot
	Active   models.OrderKey
}

// Renderer hands snapshots from the scheduler to the bubbletea program.
// Only the newest undelivered snapshot is kept.
type Renderer struct {
	updates chan SnapshotMsg
}

// NewRenderer creates a Renderer.
func NewRenderer() *Renderer {
	return &Renderer{updates: make(chan SnapshotMsg, 1)}
}

// Render queues snap for display, replacing a snapshot the UI has not
// picked up yet.
func (r *Renderer) Render(snap models.Snapshot, active models.OrderKey) error {
	msg := SnapshotMsg{Snapshot: snap, Active: active}
	for {
		select {
		case r.updates <- msg:
			return nil
		default:
		}
		select {
		case <-r.updates:
		default:
		}
	}
}

// Wait returns a command that delivers the next snapshot.
func (r *Renderer) Wait() tea.Cmd {
	return func() tea.Msg {
		return <-r.updates
	}
}
