// Package logging provides the leveled log sink hubs report diagnostics to.
//
// A Sink accepts (level, label, message) triples. NewSlogSink adapts any
// *slog.Logger; Filter drops records below a threshold the way the SDK's
// global log filter does.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
)

// Level is the severity of a log record.
type Level int

// Levels in increasing severity.
const (
	LevelTrace Level = iota
	LevelDebug
	LevelWarning
	LevelError
)

// String returns the level name.
func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "trace"
	case LevelDebug:
		return "debug"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseLevel parses a level name. Unknown names return LevelError and false.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LevelTrace, true
	case "debug":
		return LevelDebug, true
	case "warning", "warn":
		return LevelWarning, true
	case "error":
		return LevelError, true
	default:
		return LevelError, false
	}
}

// slogLevelTrace sits below slog.LevelDebug.
const slogLevelTrace = slog.LevelDebug - 4

func (l Level) slog() slog.Level {
	switch l {
	case LevelTrace:
		return slogLevelTrace
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// Sink receives leveled log records.
// Implementations must be safe for concurrent use.
type Sink interface {
	Log(level Level, label, message string)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(level Level, label, message string)

// Log implements Sink.
func (f SinkFunc) Log(level Level, label, message string) {
	f(level, label, message)
}

type slogSink struct {
	logger *slog.Logger
}

// NewSlogSink returns a Sink writing to logger. A nil logger uses slog.Default().
func NewSlogSink(logger *slog.Logger) Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &slogSink{logger: logger}
}

func (s *slogSink) Log(level Level, label, message string) {
	s.logger.Log(context.Background(), level.slog(), message, slog.String("label", label))
}

// Filter forwards records at or above a threshold to the next sink.
// The threshold can be changed while in use.
type Filter struct {
	next      Sink
	threshold atomic.Int32
}

// NewFilter wraps next, dropping records below threshold.
func NewFilter(next Sink, threshold Level) *Filter {
	f := &Filter{next: next}
	f.threshold.Store(int32(threshold))
	return f
}

// SetLevel changes the threshold.
func (f *Filter) SetLevel(level Level) {
	f.threshold.Store(int32(level))
}

// Level returns the current threshold.
func (f *Filter) Level() Level {
	return Level(f.threshold.Load())
}

// Log implements Sink.
func (f *Filter) Log(level Level, label, message string) {
	if level < f.Level() {
		return
	}
	f.next.Log(level, label, message)
}

// Tracef formats and logs at LevelTrace.
func Tracef(s Sink, label, format string, args ...any) {
	logf(s, LevelTrace, label, format, args...)
}

// Debugf formats and logs at LevelDebug.
func Debugf(s Sink, label, format string, args ...any) {
	logf(s, LevelDebug, label, format, args...)
}

// Warningf formats and logs at LevelWarning.
func Warningf(s Sink, label, format string, args ...any) {
	logf(s, LevelWarning, label, format, args...)
}

// Errorf formats and logs at LevelError.
func Errorf(s Sink, label, format string, args ...any) {
	logf(s, LevelError, label, format, args...)
}

func logf(s Sink, level Level, label, format string, args ...any) {
	if s == nil {
		return
	}
	s.Log(level, label, fmt.Sprintf(format, args...))
}
