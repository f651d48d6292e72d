package server

import (
	"errors"
	"natbwdash/internal/log"
	"net/http"
)

// StatusError is an error with the status code it should be reported with.
type StatusError struct {
	Code int
	Err  error
}

func (e StatusError) Error() string { return e.Err.Error() }
func (e StatusError) Unwrap() error { return e.Err }

// AppHandler adds generic error handling to a handler func.
//
// A handler func that writes its own error response should typically not
// return an error.
type AppHandler func(http.ResponseWriter, *http.Request) error

func (fn AppHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rw := &responseWriter{ResponseWriter: w}
	if err := fn(rw, r); err != nil {
		if rw.hasWritten {
			logger := log.FromRequest(r)
			logger.Warn().Err(err).Msg("error returned to AppHandler after response has been written to")
			return
		}
		code := http.StatusInternalServerError
		var se StatusError
		if errors.As(err, &se) {
			code = se.Code
		}
		http.Error(w, err.Error(), code)
	}
}

// responseWriter is a http.ResponseWriter that tracks if it has been written to.
type responseWriter struct {
	http.ResponseWriter
	hasWritten bool
}

func (r *responseWriter) WriteHeader(code int) {
	r.hasWritten = true
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseWriter) Write(b []byte) (int, error) {
	r.hasWritten = true
	return r.ResponseWriter.Write(b)
}

type maxBytesReaderMiddleware struct {
	h http.Handler
	N int64
}

func (b maxBytesReaderMiddleware) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, b.N)
	b.h.ServeHTTP(w, r)
}

// MaxBytesReaderMiddleware limits request bodies to maxSize bytes.
func MaxBytesReaderMiddleware(maxSize int64) func(h http.Handler) http.Handler {
	if maxSize <= 0 {
		log.Fatal().Msgf("maxSize cannot be equal or less than 0: %v", maxSize)
	}
	return func(h http.Handler) http.Handler {
		return maxBytesReaderMiddleware{h: h, N: maxSize}
	}
}
