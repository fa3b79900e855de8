package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// ServiceName is attached to every log line
const ServiceName = "aero-hr-user-wizard"

// New creates a new zerolog logger with structured output. LOG_LEVEL sets
// the level; ENV=development switches to pretty console output.
func New() zerolog.Logger {
	format := "json"
	if os.Getenv("ENV") == "development" {
		format = "pretty"
	}
	return NewWithOptions(os.Stdout, os.Getenv("LOG_LEVEL"), format)
}

// NewWithOptions creates a logger writing to out. format is "json" or
// "pretty".
func NewWithOptions(out io.Writer, level, format string) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	// Use pretty console output in development
	if format == "pretty" {
		return zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).
			Level(ParseLevel(level)).
			With().
			Timestamp().
			Caller().
			Str("service", ServiceName).
			Logger()
	}

	// JSON output for production
	return zerolog.New(out).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Str("service", ServiceName).
		Logger()
}

// ParseLevel maps a LOG_LEVEL value to a zerolog level, defaulting to info
func ParseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
