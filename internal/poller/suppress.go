package poller

// Suppressor skips scheduled refreshes while Active reports true. It never
// affects refreshes already running or explicit ones from SetOrderBy.
type Suppressor struct {
	Name   string
	Active func() bool
}

// SelectionActive suppresses ticks while the user holds a selection, so
// copied data is not replaced under the cursor.
func SelectionActive(active func() bool) Suppressor {
	return Suppressor{Name: "selection", Active: active}
}

// Hidden suppresses ticks while the dashboard is not visible.
func Hidden(hidden func() bool) Suppressor {
	return Suppressor{Name: "hidden", Active: hidden}
}
