package log

import (
	"io"
	stdlog "log"
	"os"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

var (
	// Logger is the application logger, it adds caller information.
	Logger zerolog.Logger
	// LoggerWithoutCaller is used where the caller would always be the same,
	// such as the http access log.
	LoggerWithoutCaller zerolog.Logger
)

func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	zerolog.TimeFieldFormat = time.RFC3339Nano
	stdlog.SetFlags(stdlog.Lshortfile)
	SetBlockingLogger(os.Stderr)
}

func setup() {
	stdlog.SetOutput(
		LoggerWithoutCaller.
			With().
			Str("module", "stdlog").
			Str("level", "info").
			Logger())
	zlog.Logger = Logger
}

// SetDiscardLogger sets global log level to trace and logs to io.Discard.
// Use in tests to ensure that writing logs don't panic and are silenced.
func SetDiscardLogger() {
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	Logger = zerolog.New(io.Discard)
	LoggerWithoutCaller = zerolog.New(io.Discard)
	setup()
}

// SetBlockingLogger sets up a logger with a blocking writer
func SetBlockingLogger(w io.Writer) {
	LoggerWithoutCaller = zerolog.New(w).With().Timestamp().Logger()
	Logger = LoggerWithoutCaller.With().Caller().Logger()
	setup()
}

// SetConsoleLogger sets up human readable logging to w.
func SetConsoleLogger(w io.Writer) {
	wr := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05.000",
	}
	LoggerWithoutCaller = zerolog.New(wr).With().Timestamp().Logger()
	Logger = LoggerWithoutCaller.With().Caller().Logger()
	setup()
}
