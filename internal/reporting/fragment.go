package reporting

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"io"
	"natbwdash/internal/models"
	"sync"
)

// ErrNoContainer is returned when rendering into a container that does not
// exist.
var ErrNoContainer = errors.New("host table container is missing")

//go:embed template
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "template/*.html"))

// RenderFragment writes the table body (header row and one row per host)
// as HTML. Every field is escaped for the context it ends up in.
func RenderFragment(w io.Writer, tv TableView) error {
	return templates.ExecuteTemplate(w, "hosts", tv)
}

// Container holds the most recently rendered table fragment.
type Container struct {
	ID     string
	Layout Layout

	mu   sync.RWMutex
	html []byte
	seq  uint64
}

// NewContainer creates an empty container.
func NewContainer(id string, layout Layout) *Container {
	return &Container{ID: id, Layout: layout}
}

// Render replaces the container contents with the table for snap. The
// previous contents are kept if rendering fails or snap is not newer than
// what is shown.
func (c *Container) Render(snap models.Snapshot, active models.OrderKey) error {
	_, _, err := c.Update(snap, active)
	return err
}

// Update renders snap like Render and returns the fragment held afterwards.
// applied is false when snap was older than the current contents, the
// returned html is then the newer fragment already held.
func (c *Container) Update(snap models.Snapshot, active models.OrderKey) (html []byte, applied bool, err error) {
	if c == nil {
		return nil, false, ErrNoContainer
	}
	var buf bytes.Buffer
	if err := RenderFragment(&buf, BuildTable(snap, active, c.Layout)); err != nil {
		return nil, false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.html != nil && snap.Seq <= c.seq {
		return c.html, false, nil
	}
	c.html = buf.Bytes()
	c.seq = snap.Seq
	return c.html, true, nil
}

// HTML returns the current fragment, nil before the first render.
func (c *Container) HTML() []byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.html
}

// Seq returns the sequence number of the snapshot currently shown.
func (c *Container) Seq() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.seq
}
