// Package weftlog provides the structured logger threaded through the core
// as an explicit value, never a package-level singleton.
package weftlog

import (
	"io"
	"os"
	"sort"

	"github.com/rs/zerolog"
)

// Options configures a Logger at construction time.
type Options struct {
	Level    string // debug, info, warn, error; defaults to info
	Writer   io.Writer
	JSON     bool // when false, use zerolog's console writer
	Component string
}

// Logger wraps a zerolog.Logger with the field-derivation style the rest of
// the core expects: WithFields returns a derived logger that always writes
// the supplied fields.
type Logger struct {
	base zerolog.Logger
}

// New constructs a configured Logger.
func New(opts Options) *Logger {
	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}
	if !opts.JSON {
		writer = zerolog.ConsoleWriter{Out: writer, TimeFormat: "15:04:05"}
	}

	level := parseLevel(opts.Level)
	base := zerolog.New(writer).Level(level).With().Timestamp().Logger()
	if opts.Component != "" {
		base = base.With().Str("component", opts.Component).Logger()
	}

	return &Logger{base: base}
}

func parseLevel(level string) zerolog.Level {
	if level == "" {
		return zerolog.InfoLevel
	}
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return parsed
}

// WithFields returns a derived logger that always writes the supplied
// fields, sorted by key for deterministic output.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	if l == nil || len(fields) == 0 {
		return l
	}

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	ctx := l.base.With()
	for _, key := range keys {
		ctx = ctx.Interface(key, fields[key])
	}
	return &Logger{base: ctx.Logger()}
}

// Info writes an informational log entry.
func (l *Logger) Info(msg string) {
	if l == nil {
		return
	}
	l.base.Info().Msg(msg)
}

// Debug writes a debug-level log entry.
func (l *Logger) Debug(msg string) {
	if l == nil {
		return
	}
	l.base.Debug().Msg(msg)
}

// Warn writes a warning-level log entry.
func (l *Logger) Warn(msg string) {
	if l == nil {
		return
	}
	l.base.Warn().Msg(msg)
}

// Error writes an error log entry including the supplied error context.
func (l *Logger) Error(err error, msg string) {
	if l == nil {
		return
	}
	l.base.Error().Err(err).Msg(msg)
}

// Nop returns a Logger that discards everything, for tests that don't care
// about log output.
func Nop() *Logger {
	return &Logger{base: zerolog.Nop()}
}
