package tui

import (
	"natbwdash/internal/analysis"
	"natbwdash/internal/models"
	"natbwdash/internal/poller"
	"natbwdash/internal/reporting"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Controller changes what the dashboard is sorted by.
type Controller interface {
	SetOrderBy(key models.OrderKey)
	OrderBy() models.OrderKey
}

// TickMsg refreshes the status line.
type TickMsg time.Time

type keyMap struct {
	Order [6]key.Binding
	Hold  key.Binding
	Quit  key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Order[0], k.Order[2], k.Hold, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.Order[:], {k.Hold, k.Quit}}
}

func newKeyMap() keyMap {
	var km keyMap
	for i, k := range models.OrderKeys {
		n := string(rune('1' + i))
		km.Order[i] = key.NewBinding(
			key.WithKeys(n),
			key.WithHelp(n, "sort by "+reporting.ColumnTitle(k)),
		)
	}
	km.Hold = key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "hold for copy"))
	km.Quit = key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit"))
	return km
}

// DashboardModel is the bubbletea model of the host table.
type DashboardModel struct {
	ctrl     Controller
	board    *analysis.Board
	renderer *Renderer
	layout   reporting.Layout
	source   string

	table table.Model
	help  help.Model
	keys  keyMap

	// shared with the scheduler suppressors
	hold    *atomic.Bool
	blurred *atomic.Bool

	view       reporting.TableView
	lastUpdate time.Time
	counters   analysis.Counters
	alerts     []analysis.Alert
	totalIn    float64
	totalOut   float64
	width      int
	now        func() time.Time
}

// NewDashboardModel creates the model. source is shown in the title.
func NewDashboardModel(ctrl Controller, board *analysis.Board, r *Renderer, layout reporting.Layout, source string) DashboardModel {
	t := table.New(
		table.WithColumns(columnsFor(reporting.TableView{}, layout)),
		table.WithFocused(true),
		table.WithHeight(20),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return DashboardModel{
		ctrl:     ctrl,
		board:    board,
		renderer: r,
		layout:   layout,
		source:   source,
		table:    t,
		help:     help.New(),
		keys:     newKeyMap(),
		hold:     new(atomic.Bool),
		blurred:  new(atomic.Bool),
		now:      time.Now,
	}
}

// Suppressors returns the scheduler suppressors driven by this model:
// copy-hold and terminal focus.
func (m DashboardModel) Suppressors() []poller.Suppressor {
	return []poller.Suppressor{
		poller.SelectionActive(m.hold.Load),
		poller.Hidden(m.blurred.Load),
	}
}

func (m DashboardModel) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.renderer.Wait())
}

func tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

var baseWidths = map[models.OrderKey]int{
	models.OrderByIP:           15,
	models.OrderByName:         16,
	models.OrderByInRate:       12,
	models.OrderByOutRate:      12,
	models.OrderByHWAddr:       17,
	models.OrderByManufacturer: 20,
}

// columnsFor sizes the columns to fit the widest cell.
func columnsFor(tv reporting.TableView, layout reporting.Layout) []table.Column {
	keys := models.OrderKeys
	if !layout.Manufacturer {
		keys = keys[:len(keys)-1]
	}
	cols := make([]table.Column, len(keys))
	for i, k := range keys {
		title := reporting.ColumnTitle(k)
		w := baseWidths[k]
		for _, c := range tv.Columns {
			if c.Key == k && c.Active {
				title += " ▾"
			}
		}
		if lipgloss.Width(title) > w {
			w = lipgloss.Width(title)
		}
		for _, r := range tv.Rows {
			if l := lipgloss.Width(cellText(r, k)); l > w {
				w = l
			}
		}
		cols[i] = table.Column{Title: title, Width: w}
	}
	return cols
}

func cellText(r reporting.RowView, k models.OrderKey) string {
	switch k {
	case models.OrderByIP:
		return r.IP
	case models.OrderByName:
		return r.Name
	case models.OrderByInRate:
		return r.InRate
	case models.OrderByOutRate:
		return r.OutRate
	case models.OrderByHWAddr:
		return r.HWAddr
	case models.OrderByManufacturer:
		return r.Manufacturer
	}
	return ""
}
