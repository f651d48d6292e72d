// Package server serves the host table as an HTML fragment that a page
// swaps in on every refresh.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"natbwdash/internal/log"
	"natbwdash/internal/models"
	"natbwdash/internal/poller"
	"natbwdash/internal/reporting"
	"natbwdash/internal/server/assets"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/hashfs"
	"github.com/justinas/alice"
	"github.com/rs/zerolog/hlog"
)

// StaleHeader is set on fragment responses served from the last good
// render because the upstream request failed.
const StaleHeader = "X-Natbwdash-Stale"

// Server contains the page and fragment routes.
type Server struct {
	Fetcher  poller.Fetcher
	Layout   reporting.Layout
	Source   string
	Interval time.Duration

	seq        atomic.Uint64
	mu         sync.Mutex
	containers map[models.OrderKey]*reporting.Container
}

// New creates a Server rendering rows from f.
func New(f poller.Fetcher, layout reporting.Layout, source string) *Server {
	return &Server{
		Fetcher:    f,
		Layout:     layout,
		Source:     source,
		Interval:   poller.DefaultInterval,
		containers: make(map[models.OrderKey]*reporting.Container),
	}
}

// Routes returns a handler with all the application request handlers.
func (s *Server) Routes() http.Handler {
	c := alice.New(
		hlog.NewHandler(log.Logger),
		hlog.RequestIDHandler("req_id", "Request-Id"),
		hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
			hlog.FromRequest(r).Debug().
				Str("caller", "http").
				Str("method", r.Method).
				Stringer("url", r.URL).
				Int("status", status).
				Int("size", size).
				Dur("dur", duration).
				Str("addr", r.RemoteAddr).
				Msg("")
		}),
		MaxBytesReaderMiddleware(1024*1024),
	)

	mux := http.NewServeMux()
	mux.Handle("/", c.Then(s.Index()))
	mux.Handle("/hosts", c.Then(s.Hosts()))
	mux.Handle("/static/", c.Then(hashfs.FileServer(assets.StaticHashFS)))
	return mux
}

type indexTemplateData struct {
	Title          string
	Source         string
	IntervalMillis int64
	OrderBy        models.OrderKey
	Fragment       template.HTML
}

// Index serves the page shell with an initial table.
func (s *Server) Index() AppHandler {
	tmpl, err := template.New("index.html").
		Funcs(template.FuncMap{
			"static": assets.StaticHashFS.HashName,
		}).
		ParseFS(assets.TemplateFS, "template/index.html")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse index template")
	}
	return func(w http.ResponseWriter, r *http.Request) error {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return nil
		}
		key := orderKey(r)
		frag, _, err := s.fragment(r.Context(), key)
		if err != nil {
			// the page script fills the table on its next tick
			log.FromRequest(r).Warn().Err(err).Msg("initial table unavailable")
			var buf bytes.Buffer
			if err := reporting.RenderFragment(&buf, reporting.BuildTable(models.Snapshot{}, key, s.Layout)); err != nil {
				return err
			}
			frag = buf.Bytes()
		}
		d := indexTemplateData{
			Title:          "natbwdash",
			Source:         s.Source,
			IntervalMillis: s.Interval.Milliseconds(),
			OrderBy:        key,
			// rendered by html/template with escaping
			Fragment: template.HTML(frag),
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		return tmpl.Execute(w, &d)
	}
}

// Hosts serves the table fragment sorted by the order_by query parameter.
func (s *Server) Hosts() AppHandler {
	return func(w http.ResponseWriter, r *http.Request) error {
		frag, stale, err := s.fragment(r.Context(), orderKey(r))
		if err != nil {
			return StatusError{Code: http.StatusBadGateway, Err: err}
		}
		if stale {
			w.Header().Set(StaleHeader, "1")
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_, err = w.Write(frag)
		return err
	}
}

func orderKey(r *http.Request) models.OrderKey {
	if v := r.URL.Query().Get("order_by"); v != "" {
		return models.OrderKey(v)
	}
	return models.DefaultOrderKey
}

// fragment fetches and renders the table for key. When the fetch fails the
// last good render for key is returned and stale is true. The sequence
// number is taken before fetching so a slow request never replaces the
// render of one started after it.
func (s *Server) fragment(ctx context.Context, key models.OrderKey) ([]byte, bool, error) {
	c := s.container(key)
	seq := s.seq.Add(1)
	stats, err := s.Fetcher.Fetch(ctx, key)
	if err != nil {
		if c != nil {
			if html := c.HTML(); html != nil {
				return html, true, nil
			}
		}
		return nil, false, fmt.Errorf("fetching hosts: %w", err)
	}

	snap := models.Snapshot{
		Seq:       seq,
		OrderBy:   key,
		Stats:     stats,
		FetchedAt: time.Now(),
	}
	if c == nil {
		// unknown keys are rendered but not cached
		var buf bytes.Buffer
		err := reporting.RenderFragment(&buf, reporting.BuildTable(snap, key, s.Layout))
		return buf.Bytes(), false, err
	}
	html, applied, err := c.Update(snap, key)
	if err != nil {
		return nil, false, err
	}
	if !applied {
		log.Debug().Uint64("seq", seq).Uint64("shown", c.Seq()).Str("order_by", key.String()).
			Msg("discarding out of order fragment")
	}
	return html, false, nil
}

func (s *Server) container(key models.OrderKey) *reporting.Container {
	if !key.Valid() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.containers == nil {
		s.containers = make(map[models.OrderKey]*reporting.Container)
	}
	c, ok := s.containers[key]
	if !ok {
		c = reporting.NewContainer(string(key), s.Layout)
		s.containers[key] = c
	}
	return c
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("serving dashboard")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
