package log

import (
	"flag"
	"io"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Flags is a collection of stdlib flags configuring logging
type Flags struct {
	Debug          bool
	Trace          bool
	Console        bool
	FileName       string
	FileMaxBackups int
	FileMaxSize    int
	FileMaxAge     int
}

// Register registers the flags in a flag.FlagSet
func (f *Flags) Register(fs *flag.FlagSet) {
	fs.BoolVar(&f.Debug, "log.debug", false, "debug logging")
	fs.BoolVar(&f.Trace, "log.trace", false, "trace logging")
	fs.BoolVar(&f.Console, "log.console", false, "console formatter")
	fs.StringVar(&f.FileName, "log.file.name", "", "log file name")
	fs.IntVar(&f.FileMaxBackups, "log.file.maxbackups", 10, "max log file backups")
	fs.IntVar(&f.FileMaxSize, "log.file.maxsize", 5, "max log file size (megabytes)")
	fs.IntVar(&f.FileMaxAge, "log.file.maxage", 60, "max log file age (days)")
}

// Setup sets up logging according to the flag values.
//
// stderr is where logs go when no file is configured. The terminal
// dashboard passes io.Discard since it owns the screen.
func (f Flags) Setup(stderr io.Writer) error {
	switch {
	case f.Trace:
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	case f.Debug:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	switch {
	case f.FileName != "":
		SetBlockingLogger(&lumberjack.Logger{
			Filename:   f.FileName,
			MaxBackups: f.FileMaxBackups,
			MaxSize:    f.FileMaxSize,
			MaxAge:     f.FileMaxAge,
		})
	case f.Console:
		SetConsoleLogger(stderr)
	default:
		SetBlockingLogger(stderr)
	}
	return nil
}
