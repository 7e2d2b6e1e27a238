package configuration

import (
	"context"
	"log/slog"
	"maps"
	"sync"

	"github.com/randalmurphal/tenanthub/pkg/tenanthub"
	"github.com/randalmurphal/tenanthub/pkg/tenanthub/config"
	huberrors "github.com/randalmurphal/tenanthub/pkg/tenanthub/errors"
	"github.com/randalmurphal/tenanthub/pkg/tenanthub/event"
)

// Type is the tenant-aware extension type for Configuration. One Type may
// be shared by any number of hubs; each hub gets its own Extension.
type Type struct {
	fetcher RemoteFetcher
	retry   huberrors.RetryConfig
	initial map[string]any
}

var _ tenanthub.TenantAware = (*Type)(nil)

// Option configures a Type.
type Option func(*Type)

// WithFetcher sets the fetcher used by configure-with-app-ID requests.
// Default: nil (app IDs are recorded but nothing is fetched)
func WithFetcher(f RemoteFetcher) Option {
	return func(t *Type) {
		t.fetcher = f
	}
}

// WithRetry sets the retry policy for remote fetches.
// Default: errors.DefaultRetry
func WithRetry(cfg huberrors.RetryConfig) Option {
	return func(t *Type) {
		t.retry = cfg
	}
}

// WithInitial seeds every new extension with a base configuration.
func WithInitial(cfg map[string]any) Option {
	return func(t *Type) {
		t.initial = maps.Clone(cfg)
	}
}

// NewType creates the Configuration extension type.
func NewType(opts ...Option) *Type {
	t := &Type{retry: huberrors.DefaultRetry}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name implements tenanthub.ExtensionType.
func (t *Type) Name() string { return Name }

// TenantAware implements tenanthub.TenantAware.
func (t *Type) TenantAware() {}

// New implements tenanthub.ExtensionType.
func (t *Type) New() tenanthub.Extension {
	base := maps.Clone(t.initial)
	if base == nil {
		base = make(map[string]any)
	}
	return &Extension{
		fetcher: t.fetcher,
		retry:   t.retry,
		base:    base,
		updates: make(map[string]any),
	}
}

// Extension holds one tenant's configuration.
//
// The effective configuration is the base configuration (from an app ID or
// a file) overlaid with programmatic updates. An update with a nil value
// removes the key.
type Extension struct {
	fetcher RemoteFetcher
	retry   huberrors.RetryConfig

	rt     tenanthub.Runtime
	logger *slog.Logger

	mu      sync.Mutex
	appID   string
	base    map[string]any
	updates map[string]any
}

// Name implements tenanthub.Extension.
func (e *Extension) Name() string { return Name }

// OnRegistered implements tenanthub.Extension.
func (e *Extension) OnRegistered(rt tenanthub.Runtime) error {
	e.rt = rt
	e.logger = rt.Logger()
	rt.RegisterListener(event.TypeConfiguration, event.SourceRequestContent, e.handleRequest)
	return nil
}

// Current returns a copy of the effective configuration.
func (e *Extension) Current() map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.effectiveLocked()
}

func (e *Extension) effectiveLocked() map[string]any {
	out := maps.Clone(e.base)
	if out == nil {
		out = make(map[string]any)
	}
	for k, v := range e.updates {
		if v == nil {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}

func (e *Extension) handleRequest(ctx context.Context, evt *event.Event) {
	switch {
	case evt.String(KeyAppID) != "":
		e.configureWithAppID(ctx, evt.String(KeyAppID))
	case evt.String(KeyFilePath) != "":
		e.configureWithFile(ctx, evt.String(KeyFilePath))
	case hasKey(evt, KeyUpdateConfig):
		e.update(ctx, evt)
	case isTrue(evt, KeyClearUpdatedConfig):
		e.clearUpdates(ctx)
	case isTrue(evt, KeyRetrieveConfig):
		e.respond(ctx, evt)
	default:
		e.logger.Debug("ignoring configuration request",
			slog.String("event_id", evt.ID()),
			slog.String("event_name", evt.Name()),
		)
	}
}

func (e *Extension) configureWithAppID(ctx context.Context, appID string) {
	e.mu.Lock()
	e.appID = appID
	e.mu.Unlock()

	if e.fetcher == nil {
		e.logger.Warn("no remote fetcher configured, app id recorded only",
			slog.String("app_id", appID))
		return
	}

	// Listeners run on the hub drain goroutine.
	go e.fetch(ctx, appID)
}

func (e *Extension) fetch(ctx context.Context, appID string) {
	result := huberrors.WithRetryContext(ctx, e.retry, func(ctx context.Context) (map[string]any, error) {
		return e.fetcher.Fetch(ctx, appID)
	})
	if result.Err != nil {
		e.logger.Error("remote configuration fetch failed",
			slog.String("app_id", appID),
			slog.Int("attempts", result.Attempts),
			slog.String("error", result.Err.Error()),
		)
		return
	}

	e.mu.Lock()
	if e.appID != appID {
		e.mu.Unlock()
		e.logger.Debug("discarding stale remote configuration", slog.String("app_id", appID))
		return
	}
	e.base = maps.Clone(result.Value)
	e.mu.Unlock()

	e.publish(ctx)
}

func (e *Extension) configureWithFile(ctx context.Context, path string) {
	values, err := config.FromFile(path)
	if err != nil {
		e.logger.Error("configure with file failed",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return
	}

	e.mu.Lock()
	e.appID = ""
	e.base = values.Map()
	e.mu.Unlock()

	e.publish(ctx)
}

func (e *Extension) update(ctx context.Context, evt *event.Event) {
	raw, _ := evt.Value(KeyUpdateConfig)
	changes, ok := raw.(map[string]any)
	if !ok {
		e.logger.Warn("configuration update is not a map", slog.String("event_id", evt.ID()))
		return
	}

	e.mu.Lock()
	for k, v := range changes {
		e.updates[k] = v
	}
	e.mu.Unlock()

	e.publish(ctx)
}

func (e *Extension) clearUpdates(ctx context.Context) {
	e.mu.Lock()
	e.updates = make(map[string]any)
	e.mu.Unlock()

	e.publish(ctx)
}

// publish broadcasts the effective configuration to the hub.
func (e *Extension) publish(ctx context.Context) {
	evt := event.New(EventConfigurationResponse, event.TypeConfiguration, event.SourceResponseContent, e.Current())
	if err := e.rt.Dispatch(ctx, evt); err != nil {
		e.logger.Warn("publish configuration failed", slog.String("error", err.Error()))
	}
}

// respond answers a retrieve request with a response correlated to it.
func (e *Extension) respond(ctx context.Context, trigger *event.Event) {
	resp := event.NewResponse(trigger, EventConfigurationResponse, event.TypeConfiguration, event.SourceResponseContent, e.Current())
	if err := e.rt.Dispatch(ctx, resp); err != nil {
		e.logger.Warn("respond to configuration request failed", slog.String("error", err.Error()))
	}
}

func hasKey(evt *event.Event, key string) bool {
	_, ok := evt.Value(key)
	return ok
}

func isTrue(evt *event.Event, key string) bool {
	v, _ := evt.Value(key)
	b, _ := v.(bool)
	return b
}
