// Package logging builds the zerolog logger shared by the CLI and the parsing
// pipeline.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/oops"
)

type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

const DefaultLevel = "warn"

type Options struct {
	Level  string
	Format Format
	Writer io.Writer
}

// New returns a logger writing to opts.Writer (stderr when nil). Console
// output is meant for people, JSON for tools.
func New(opts Options) (zerolog.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return zerolog.Nop(), err
	}

	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	switch opts.Format {
	case FormatJSON:
	case FormatConsole, "":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	default:
		return zerolog.Nop(), oops.
			Code("INVALID_ARGS").
			With("format", opts.Format).
			Hint("Supported log formats: console, json").
			Errorf("unknown log format %q", opts.Format)
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}

// ParseLevel maps a configured level name to a zerolog level. An empty name
// selects DefaultLevel.
func ParseLevel(name string) (zerolog.Level, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = DefaultLevel
	}
	switch name {
	case "debug":
		return zerolog.DebugLevel, nil
	case "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "off", "disabled":
		return zerolog.Disabled, nil
	default:
		return zerolog.NoLevel, oops.
			Code("INVALID_ARGS").
			With("level", name).
			Hint("Supported log levels: debug, info, warn, error, off").
			Errorf("unknown log level %q", name)
	}
}
