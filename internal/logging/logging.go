package logging

import (
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// New creates a configured logger writing to stderr.
//
// level: debug, info, warn, error
// format: "text" (human-readable) or "json" (structured)
func New(level log.Level, format string) *log.Logger {
	return NewWithWriter(level, format, os.Stderr)
}

// NewWithWriter creates a logger writing to the given writer.
func NewWithWriter(level log.Level, format string, w io.Writer) *log.Logger {
	l := log.New()
	l.SetOutput(w)
	l.SetLevel(level)

	switch strings.ToLower(format) {
	case "json":
		l.SetFormatter(&log.JSONFormatter{})
	default:
		l.SetFormatter(&log.TextFormatter{DisableColors: true, FullTimestamp: true})
	}
	return l
}

// ParseLevel converts a string log level to a logrus level.
// Returns InfoLevel for unrecognized values.
func ParseLevel(s string) log.Level {
	switch strings.ToLower(s) {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// Discard returns a logger that drops everything, for tests.
func Discard() *log.Logger {
	return NewWithWriter(log.PanicLevel, "text", io.Discard)
}
