// Package logging wraps zerolog into the small structured-diagnostics
// surface this program needs on stderr: key echo, collision warnings, and
// a per-run summary. It replaces the teacher's ad hoc printf/println
// helpers with the pack's structured-logging idiom.
package logging

import (
	"io"

	"github.com/rs/zerolog"
)

// Logger is a thin structured-logging wrapper around zerolog, scoped to
// stderr diagnostics for a single anonymization run.
type Logger struct {
	zl zerolog.Logger
}

// New creates a Logger writing human-readable console output to w. Pass
// os.Stderr for the program's normal diagnostic stream.
func New(w io.Writer, verbose bool) *Logger {
	console := zerolog.ConsoleWriter{Out: w, NoColor: false, TimeFormat: "15:04:05"}
	zl := zerolog.New(console).With().Timestamp().Logger()
	if verbose {
		zl = zl.Level(zerolog.DebugLevel)
	} else {
		zl = zl.Level(zerolog.InfoLevel)
	}
	return &Logger{zl: zl}
}

// Discard returns a Logger that drops everything, for tests.
func Discard() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// Debug logs a debug-level diagnostic.
func (l *Logger) Debug(msg string, kv ...interface{}) {
	l.event(l.zl.Debug(), msg, kv)
}

// Info logs an info-level diagnostic (key echo, per-run summary).
func (l *Logger) Info(msg string, kv ...interface{}) {
	l.event(l.zl.Info(), msg, kv)
}

// Warn logs a collision warning or other recoverable anomaly.
func (l *Logger) Warn(msg string, kv ...interface{}) {
	l.event(l.zl.Warn(), msg, kv)
}

// Error logs a fatal-path diagnostic immediately before the process exits
// with a non-zero status.
func (l *Logger) Error(msg string, kv ...interface{}) {
	l.event(l.zl.Error(), msg, kv)
}

// event appends alternating key/value pairs to ev before emitting msg.
// A malformed (odd-length, non-string-keyed) kv list is reported as an
// error field rather than panicking.
func (l *Logger) event(ev *zerolog.Event, msg string, kv []interface{}) {
	if len(kv)%2 != 0 {
		ev.Str("logging_error", "odd number of key/value arguments")
		ev.Msg(msg)
		return
	}
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			ev.Str("logging_error", "non-string key")
			continue
		}
		ev.Interface(key, kv[i+1])
	}
	ev.Msg(msg)
}
