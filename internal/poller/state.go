package poller

import (
	"natbwdash/internal/models"
	"sync"
)

// ViewState is the state that survives between refreshes: the column the
// upstream sorts by.
type ViewState struct {
	mu      sync.RWMutex
	orderBy models.OrderKey
}

// NewViewState returns a state ordered by key, or by the default key when
// key is empty.
func NewViewState(key models.OrderKey) *ViewState {
	if key == "" {
		key = models.DefaultOrderKey
	}
	return &ViewState{orderBy: key}
}

// OrderBy returns the active order key.
func (v *ViewState) OrderBy() models.OrderKey {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.orderBy
}

func (v *ViewState) setOrderBy(key models.OrderKey) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.orderBy = key
}
