package tenanthub

import (
	"log/slog"

	"github.com/juju/clock"

	"github.com/randalmurphal/tenanthub/pkg/tenanthub/history"
	"github.com/randalmurphal/tenanthub/pkg/tenanthub/logging"
	"github.com/randalmurphal/tenanthub/pkg/tenanthub/observability"
)

// PreStartPolicy decides what a hub does with events dispatched before Start.
type PreStartPolicy int

const (
	// DropBeforeStart discards events dispatched while the hub is not
	// started. Response correlation still happens.
	DropBeforeStart PreStartPolicy = iota

	// QueueBeforeStart holds events dispatched before Start and delivers
	// them in order once the hub starts.
	QueueBeforeStart
)

// String returns the policy name used in settings files.
func (p PreStartPolicy) String() string {
	switch p {
	case DropBeforeStart:
		return "drop"
	case QueueBeforeStart:
		return "queue"
	default:
		return "unknown"
	}
}

// ParsePreStartPolicy parses "drop" or "queue".
func ParsePreStartPolicy(s string) (PreStartPolicy, bool) {
	switch s {
	case "drop":
		return DropBeforeStart, true
	case "queue":
		return QueueBeforeStart, true
	default:
		return DropBeforeStart, false
	}
}

// hubConfig holds configuration shared by a hub and its collaborators.
type hubConfig struct {
	logger        *slog.Logger
	sink          logging.Sink
	clock         clock.Clock
	metrics       observability.MetricsRecorder
	spans         observability.SpanManager
	history       history.Store
	preStart      PreStartPolicy
	preStartLimit int
}

// defaultHubConfig returns the default hub configuration.
func defaultHubConfig() hubConfig {
	return hubConfig{
		sink:          logging.NewFilter(logging.NewSlogSink(slog.Default()), logging.LevelError),
		clock:         clock.WallClock,
		metrics:       observability.NoopMetrics{},
		spans:         observability.NoopSpanManager{},
		preStart:      DropBeforeStart,
		preStartLimit: 100,
	}
}

func buildHubConfig(opts []Option) hubConfig {
	cfg := defaultHubConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Option configures a hub. Options passed to NewRegistry apply to every
// hub the registry creates.
type Option func(*hubConfig)

// WithLogger sets the structured logger for hub lifecycle logs.
// Default: nil (no structured logging)
func WithLogger(logger *slog.Logger) Option {
	return func(c *hubConfig) {
		c.logger = logger
	}
}

// WithSink sets the leveled sink that receives registration diagnostics.
// Default: slog.Default() filtered at logging.LevelError
func WithSink(sink logging.Sink) Option {
	return func(c *hubConfig) {
		if sink != nil {
			c.sink = sink
		}
	}
}

// WithClock sets the clock that drives response listener deadlines.
// Default: clock.WallClock
//
// Tests use testclock to expire listeners deterministically:
//
//	clk := testclock.NewClock(time.Now())
//	hub := tenanthub.NewHub(tenant, tenanthub.WithClock(clk))
func WithClock(clk clock.Clock) Option {
	return func(c *hubConfig) {
		if clk != nil {
			c.clock = clk
		}
	}
}

// WithMetrics sets the metrics recorder.
// Default: observability.NoopMetrics{}
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(c *hubConfig) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithTracing sets the span manager.
// Default: observability.NoopSpanManager{}
func WithTracing(s observability.SpanManager) Option {
	return func(c *hubConfig) {
		if s != nil {
			c.spans = s
		}
	}
}

// WithHistory records every delivered event in store.
// Default: nil (no history)
func WithHistory(store history.Store) Option {
	return func(c *hubConfig) {
		c.history = store
	}
}

// WithPreStartPolicy sets how events dispatched before Start are handled.
// Default: DropBeforeStart
func WithPreStartPolicy(p PreStartPolicy) Option {
	return func(c *hubConfig) {
		c.preStart = p
	}
}

// WithPreStartQueueLimit caps the events held under QueueBeforeStart.
// Events past the limit are dropped.
// Default: 100
func WithPreStartQueueLimit(n int) Option {
	return func(c *hubConfig) {
		if n > 0 {
			c.preStartLimit = n
		}
	}
}
