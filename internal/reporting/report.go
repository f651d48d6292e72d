package reporting

import (
	"fmt"
	"natbwdash/internal/analysis"
	"natbwdash/internal/models"
	"os"
	"time"
)

type reportData struct {
	Title    string
	Source   string
	Date     string
	TotalIn  string
	TotalOut string
	Table    TableView
}

// WriteReport writes a standalone HTML page with the host table of snap to
// filename. An empty filename picks report_<timestamp>.html. The name of the
// written file is returned.
func WriteReport(filename, source string, snap models.Snapshot, layout Layout) (string, error) {
	now := snap.FetchedAt
	if now.IsZero() {
		now = time.Now()
	}
	if filename == "" {
		filename = fmt.Sprintf("report_%s.html", now.Format("20060102_150405"))
	}

	var in, out float64
	for _, s := range snap.Stats {
		in += s.InRate
		out += s.OutRate
	}

	data := reportData{
		Title:    "natbwdash host report",
		Source:   source,
		Date:     now.Format(time.RFC1123),
		TotalIn:  analysis.FmtRateDefault(in),
		TotalOut: analysis.FmtRateDefault(out),
		Table:    BuildTable(snap, snap.OrderBy, layout),
	}

	file, err := os.Create(filename)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if err := templates.ExecuteTemplate(file, "report.html", data); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return filename, nil
}
