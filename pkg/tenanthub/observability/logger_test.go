package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newJSONLogger returns a debug-level JSON logger and the buffer it writes to.
func newJSONLogger() (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})), buf
}

// lastRecord decodes the final JSON line in buf.
func lastRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[len(lines)-1]), &out))
	return out
}

func TestEnrichLogger(t *testing.T) {
	logger, buf := newJSONLogger()

	EnrichLogger(logger, "tenant-a").Info("hello")

	rec := lastRecord(t, buf)
	assert.Equal(t, "tenant-a", rec["tenant"])
	assert.Nil(t, EnrichLogger(nil, "x"))
}

func TestLogHelpers(t *testing.T) {
	tests := []struct {
		name    string
		log     func(*slog.Logger)
		level   string
		message string
		key     string
		value   any
	}{
		{
			name:    "hub created",
			log:     func(l *slog.Logger) { LogHubCreated(l, "t1") },
			level:   "DEBUG",
			message: "event hub created",
			key:     "tenant",
			value:   "t1",
		},
		{
			name:    "hub started",
			log:     func(l *slog.Logger) { LogHubStarted(l, 3, 1) },
			level:   "INFO",
			message: "event hub started",
			key:     "extensions",
			value:   float64(3),
		},
		{
			name:    "extension registered",
			log:     func(l *slog.Logger) { LogExtensionRegistered(l, "ext", 1.5) },
			level:   "DEBUG",
			message: "extension registered",
			key:     "extension",
			value:   "ext",
		},
		{
			name:    "extension error",
			log:     func(l *slog.Logger) { LogExtensionError(l, "ext", errors.New("dup")) },
			level:   "ERROR",
			message: "extension registration failed",
			key:     "error",
			value:   "dup",
		},
		{
			name:    "event dropped",
			log:     func(l *slog.Logger) { LogEventDropped(l, "e1", "name", "hub not started") },
			level:   "DEBUG",
			message: "event not delivered",
			key:     "reason",
			value:   "hub not started",
		},
		{
			name:    "listener error",
			log:     func(l *slog.Logger) { LogListenerError(l, "e1", errors.New("panic")) },
			level:   "WARN",
			message: "listener failed",
			key:     "event_id",
			value:   "e1",
		},
		{
			name:    "response timeout",
			log:     func(l *slog.Logger) { LogResponseTimeout(l, "e2", time.Second) },
			level:   "DEBUG",
			message: "response listener timed out",
			key:     "trigger_id",
			value:   "e2",
		},
		{
			name:    "history error",
			log:     func(l *slog.Logger) { LogHistoryError(l, "e3", errors.New("disk")) },
			level:   "WARN",
			message: "event history write failed",
			key:     "error",
			value:   "disk",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newJSONLogger()
			tt.log(logger)

			rec := lastRecord(t, buf)
			assert.Equal(t, tt.level, rec["level"])
			assert.Equal(t, tt.message, rec["msg"])
			assert.Equal(t, tt.value, rec[tt.key])
		})
	}
}

func TestLogHelpers_NilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		LogHubCreated(nil, "t")
		LogHubStarted(nil, 1, 0)
		LogExtensionRegistered(nil, "e", 0)
		LogExtensionError(nil, "e", errors.New("x"))
		LogEventDropped(nil, "id", "n", "r")
		LogListenerError(nil, "id", errors.New("x"))
		LogResponseTimeout(nil, "id", time.Second)
		LogHistoryError(nil, "id", errors.New("x"))
	})
}

func TestTimedOperation(t *testing.T) {
	done := TimedOperation()
	time.Sleep(5 * time.Millisecond)
	assert.GreaterOrEqual(t, done(), float64(5))
}
