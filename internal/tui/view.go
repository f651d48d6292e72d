package tui

import (
	"fmt"
	"natbwdash/internal/analysis"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFF7DB")).
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			Margin(0, 1)

	inStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#43BF6D"))
	outStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F25D94"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB347")).Bold(true)
	alertStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#D9534F"))
)

func (m DashboardModel) View() string {
	title := titleStyle.Render(fmt.Sprintf("natbwdash - %s", m.source))

	body := lipgloss.JoinVertical(lipgloss.Left,
		title,
		m.statusLine(),
		infoStyle.Render(m.table.View()),
	)

	if len(m.alerts) > 0 {
		var lines []string
		for _, a := range m.alerts {
			lines = append(lines, alertStyle.Render(fmt.Sprintf("%s %s %s",
				a.Timestamp.Format("15:04:05"), a.Type, a.Message)))
		}
		body = lipgloss.JoinVertical(lipgloss.Left, body, strings.Join(lines, "\n"))
	}

	return body + "\n" + m.help.View(m.keys)
}

func (m DashboardModel) statusLine() string {
	var parts []string

	if m.lastUpdate.IsZero() {
		parts = append(parts, dimStyle.Render("waiting for data..."))
	} else {
		parts = append(parts,
			fmt.Sprintf("%d hosts", len(m.view.Rows)),
			inStyle.Render("in "+orDash(analysis.FmtRateDefault(m.totalIn))),
			outStyle.Render("out "+orDash(analysis.FmtRateDefault(m.totalOut))),
			dimStyle.Render("updated "+humanize.RelTime(m.lastUpdate, m.now(), "ago", "from now")),
		)
	}
	if m.counters.Failures > 0 {
		parts = append(parts, warnStyle.Render(fmt.Sprintf("%s errors, last: %v",
			humanize.Comma(m.counters.Failures), m.counters.LastError)))
	}
	if m.hold.Load() {
		parts = append(parts, warnStyle.Render("HOLD"))
	}
	if m.blurred.Load() {
		parts = append(parts, dimStyle.Render("paused (unfocused)"))
	}
	return " " + strings.Join(parts, "  ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
