// Package logger wraps zerolog for the manbo CLI.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger so callers can share one handle.
type Logger struct {
	zerolog.Logger
}

// ParseLevel maps a config string onto a zerolog level. Unknown values fall back to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// New creates a console logger on stderr. Stdout is reserved for rendered reports.
func New(level string) *Logger {
	return NewConsole(level, os.Stderr)
}

// NewConsole creates a human-readable logger writing to w.
func NewConsole(level string, w io.Writer) *Logger {
	if w == nil {
		w = os.Stderr
	}
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.Kitchen,
	}
	return newLogger(level, output)
}

// NewJSON creates a logger emitting one JSON object per line.
func NewJSON(level string, w io.Writer) *Logger {
	return newLogger(level, w)
}

func newLogger(level string, w io.Writer) *Logger {
	l := zerolog.New(w).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Logger()
	return &Logger{Logger: l}
}

// NewSilent discards everything. Used by tests and library callers that pass nil.
func NewSilent() *Logger {
	return &Logger{Logger: zerolog.New(io.Discard)}
}

// OrSilent returns l, or a silent logger when l is nil.
func OrSilent(l *Logger) *Logger {
	if l == nil {
		return NewSilent()
	}
	return l
}

// Component returns a child logger tagged with the component name.
func (l *Logger) Component(name string) *Logger {
	return &Logger{Logger: l.With().Str("component", name).Logger()}
}
