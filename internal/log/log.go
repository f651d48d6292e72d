// Package log wraps a global zerolog logger.
package log

import (
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

func Trace() *zerolog.Event { return Logger.Trace() }
func Debug() *zerolog.Event { return Logger.Debug() }
func Info() *zerolog.Event  { return Logger.Info() }
func Warn() *zerolog.Event  { return Logger.Warn() }
func Error() *zerolog.Event { return Logger.Error() }
func Fatal() *zerolog.Event { return Logger.Fatal() }

// With returns a child logger context of Logger.
func With() zerolog.Context { return Logger.With() }

// FromRequest returns the request scoped logger set up by the hlog
// middleware. It already carries the request id.
func FromRequest(r *http.Request) *zerolog.Logger {
	return hlog.FromRequest(r)
}
