package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup builds the CLI logger. Output goes to stderr so command output on stdout
// stays machine readable. Debug mode switches to a console writer with callers.
func Setup(dev bool) zerolog.Logger {
	return New(os.Stderr, dev)
}

// New builds a logger writing to w.
func New(w io.Writer, dev bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if dev {
		level = zerolog.DebugLevel
	}

	if !dev {
		return zerolog.New(w).Level(level).With().Timestamp().Logger()
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}).
		Level(level).
		With().Timestamp().Caller().
		Logger()
}

// Install sets the global logger used through the zerolog log package.
func Install(dev bool) zerolog.Logger {
	l := Setup(dev)
	log.Logger = l
	zerolog.DefaultContextLogger = &log.Logger
	return l
}
