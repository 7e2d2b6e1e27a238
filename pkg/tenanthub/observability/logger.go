// Package observability provides structured logging, metrics, and tracing
// for tenant hubs.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds hub context to a logger.
//
// Example:
//
//	enriched := EnrichLogger(logger, "tenant-a")
//	enriched.Info("doing work") // includes tenant
func EnrichLogger(logger *slog.Logger, tenant string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(slog.String("tenant", tenant))
}

// LogHubCreated logs creation of a tenant hub.
func LogHubCreated(logger *slog.Logger, tenant string) {
	if logger == nil {
		return
	}
	logger.Debug("event hub created",
		slog.String("tenant", tenant),
	)
}

// LogHubStarted logs the NotStarted -> Running transition.
func LogHubStarted(logger *slog.Logger, extensions int, flushed int) {
	if logger == nil {
		return
	}
	logger.Info("event hub started",
		slog.Int("extensions", extensions),
		slog.Int("flushed_events", flushed),
	)
}

// LogExtensionRegistered logs a completed extension registration.
func LogExtensionRegistered(logger *slog.Logger, extension string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("extension registered",
		slog.String("extension", extension),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogExtensionError logs a failed extension registration.
func LogExtensionError(logger *slog.Logger, extension string, err error) {
	if logger == nil {
		return
	}
	logger.Error("extension registration failed",
		slog.String("extension", extension),
		slog.String("error", err.Error()),
	)
}

// LogEventDropped logs an event that was not delivered to listeners.
func LogEventDropped(logger *slog.Logger, eventID, eventName, reason string) {
	if logger == nil {
		return
	}
	logger.Debug("event not delivered",
		slog.String("event_id", eventID),
		slog.String("event_name", eventName),
		slog.String("reason", reason),
	)
}

// LogListenerError logs a listener failure (non-fatal).
func LogListenerError(logger *slog.Logger, eventID string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("listener failed",
		slog.String("event_id", eventID),
		slog.String("error", err.Error()),
	)
}

// LogResponseTimeout logs a response listener that expired without a response.
func LogResponseTimeout(logger *slog.Logger, triggerID string, timeout time.Duration) {
	if logger == nil {
		return
	}
	logger.Debug("response listener timed out",
		slog.String("trigger_id", triggerID),
		slog.Duration("timeout", timeout),
	)
}

// LogHistoryError logs an event history write failure (non-fatal).
func LogHistoryError(logger *slog.Logger, eventID string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("event history write failed",
		slog.String("event_id", eventID),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000
	}
}
