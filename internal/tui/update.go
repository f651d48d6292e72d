package tui

import (
	"natbwdash/internal/models"
	"natbwdash/internal/reporting"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
)

// Header position in View: title and status lines, then the box border.
const (
	headerRow  = 3
	tableLeftX = 3 // margin + border + padding
)

func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Hold):
			m.hold.Store(!m.hold.Load())
			return m, nil
		}
		for i, b := range m.keys.Order {
			if key.Matches(msg, b) {
				m.ctrl.SetOrderBy(models.OrderKeys[i])
				return m, nil
			}
		}

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionRelease && msg.Button == tea.MouseButtonLeft && msg.Y == headerRow {
			if k, ok := m.columnAt(msg.X); ok {
				m.ctrl.SetOrderBy(k)
			}
			return m, nil
		}

	case tea.FocusMsg:
		m.blurred.Store(false)
		return m, nil

	case tea.BlurMsg:
		m.blurred.Store(true)
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		// title, status, box borders, table header and help
		h := msg.Height - 9
		if h < 3 {
			h = 3
		}
		m.table.SetHeight(h)
		return m, nil

	case SnapshotMsg:
		m.apply(msg)
		return m, m.renderer.Wait()

	case TickMsg:
		m.counters = m.board.GetCounters()
		m.alerts = m.board.GetAlerts(3)
		m.totalIn, m.totalOut = m.board.Totals()
		return m, tickCmd()
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *DashboardModel) apply(msg SnapshotMsg) {
	m.view = reporting.BuildTable(msg.Snapshot, msg.Active, m.layout)
	m.lastUpdate = msg.Snapshot.FetchedAt

	rows := make([]table.Row, len(m.view.Rows))
	for i, r := range m.view.Rows {
		row := table.Row{r.IP, r.Name, r.InRate, r.OutRate, r.HWAddr}
		if m.layout.Manufacturer {
			row = append(row, r.Manufacturer)
		}
		rows[i] = row
	}
	// Columns first, SetRows re-renders against the current columns.
	m.table.SetRows(nil)
	m.table.SetColumns(columnsFor(m.view, m.layout))
	m.table.SetRows(rows)
}

// columnAt maps a screen column on the header row to its order key.
func (m DashboardModel) columnAt(x int) (models.OrderKey, bool) {
	off := tableLeftX
	for i, c := range m.table.Columns() {
		w := c.Width + 2 // cell padding
		if x >= off && x < off+w {
			return models.OrderKeys[i], true
		}
		off += w
	}
	return "", false
}
