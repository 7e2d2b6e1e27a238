package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/randalmurphal/tenanthub/pkg/tenanthub"
	"github.com/randalmurphal/tenanthub/pkg/tenanthub/history"
	"github.com/randalmurphal/tenanthub/pkg/tenanthub/logging"
	"github.com/randalmurphal/tenanthub/pkg/tenanthub/observability"
)

// Setting keys.
const (
	KeyLogLevel           = "log_level"
	KeyAPITimeout         = "api_timeout"
	KeyPreStartPolicy     = "pre_start_policy"
	KeyPreStartQueueLimit = "pre_start_queue_limit"
	KeyMetrics            = "metrics"
	KeyTracing            = "tracing"
	KeyHistory            = "history"
	KeyHistoryPath        = "history_path"
)

// DefaultAPITimeout bounds how long request helpers wait for a response.
const DefaultAPITimeout = time.Second

// Settings configures every hub in a registry.
type Settings struct {
	// LogLevel is the threshold of the diagnostic sink.
	LogLevel logging.Level

	// APITimeout is the response timeout used by request helpers.
	APITimeout time.Duration

	PreStartPolicy     tenanthub.PreStartPolicy
	PreStartQueueLimit int

	Metrics bool
	Tracing bool

	// History enables the event history. HistoryPath selects a SQLite
	// database; empty keeps history in memory.
	History     bool
	HistoryPath string
}

// Default returns the settings used when no file is supplied.
func Default() Settings {
	return Settings{
		LogLevel:           logging.LevelError,
		APITimeout:         DefaultAPITimeout,
		PreStartPolicy:     tenanthub.DropBeforeStart,
		PreStartQueueLimit: 100,
	}
}

// Load reads settings from a YAML or JSON file.
func Load(path string) (Settings, error) {
	v, err := FromFile(path)
	if err != nil {
		return Settings{}, err
	}
	return Parse(v)
}

// Parse builds settings from values. Missing keys keep their defaults.
func Parse(v Values) (Settings, error) {
	s := Default()

	if v.Has(KeyLogLevel) {
		name := v.String(KeyLogLevel, "")
		level, ok := logging.ParseLevel(name)
		if !ok {
			return Settings{}, fmt.Errorf("invalid %s %q", KeyLogLevel, name)
		}
		s.LogLevel = level
	}

	s.APITimeout = v.Duration(KeyAPITimeout, s.APITimeout)
	if s.APITimeout <= 0 {
		return Settings{}, fmt.Errorf("%s must be positive", KeyAPITimeout)
	}

	if v.Has(KeyPreStartPolicy) {
		name := v.String(KeyPreStartPolicy, "")
		policy, ok := tenanthub.ParsePreStartPolicy(name)
		if !ok {
			return Settings{}, fmt.Errorf("invalid %s %q", KeyPreStartPolicy, name)
		}
		s.PreStartPolicy = policy
	}

	s.PreStartQueueLimit = v.Int(KeyPreStartQueueLimit, s.PreStartQueueLimit)
	if s.PreStartQueueLimit <= 0 {
		return Settings{}, fmt.Errorf("%s must be positive", KeyPreStartQueueLimit)
	}

	s.Metrics = v.Bool(KeyMetrics, s.Metrics)
	s.Tracing = v.Bool(KeyTracing, s.Tracing)
	s.HistoryPath = v.String(KeyHistoryPath, "")
	s.History = v.Bool(KeyHistory, s.HistoryPath != "")

	return s, nil
}

// HubOptions converts the settings into hub options. The returned store
// is nil unless history is enabled; the caller owns closing it.
func (s Settings) HubOptions(logger *slog.Logger) ([]tenanthub.Option, history.Store, error) {
	opts := []tenanthub.Option{
		tenanthub.WithPreStartPolicy(s.PreStartPolicy),
		tenanthub.WithPreStartQueueLimit(s.PreStartQueueLimit),
	}

	if logger != nil {
		opts = append(opts,
			tenanthub.WithLogger(logger),
			tenanthub.WithSink(logging.NewFilter(logging.NewSlogSink(logger), s.LogLevel)),
		)
	}
	if s.Metrics {
		opts = append(opts, tenanthub.WithMetrics(observability.NewMetricsRecorder()))
	}
	if s.Tracing {
		opts = append(opts, tenanthub.WithTracing(observability.NewSpanManager()))
	}

	var store history.Store
	if s.History {
		if s.HistoryPath == "" {
			store = history.NewMemoryStore()
		} else {
			sqlite, err := history.NewSQLiteStore(s.HistoryPath)
			if err != nil {
				return nil, nil, fmt.Errorf("open event history: %w", err)
			}
			store = sqlite
		}
		opts = append(opts, tenanthub.WithHistory(store))
	}

	return opts, store, nil
}
