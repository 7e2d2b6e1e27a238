// Package core is the convenience layer over tenant hubs.
//
// Every call names its tenant by ID ("" is the default tenant) and is
// translated into hub registrations and events. The Configuration
// extension is registered on every hub ahead of the caller's extensions.
package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/randalmurphal/tenanthub/pkg/tenanthub"
	"github.com/randalmurphal/tenanthub/pkg/tenanthub/config"
	"github.com/randalmurphal/tenanthub/pkg/tenanthub/configuration"
	"github.com/randalmurphal/tenanthub/pkg/tenanthub/event"
	"github.com/randalmurphal/tenanthub/pkg/tenanthub/history"
)

// ErrUnknownTenant is returned when dispatching to a tenant whose hub was
// never created.
var ErrUnknownTenant = errors.New("unknown tenant")

// Core owns a registry and the Configuration extension type shared by its hubs.
type Core struct {
	registry   *tenanthub.Registry
	configType *configuration.Type
	apiTimeout time.Duration
	logger     *slog.Logger
	history    history.Store
}

// Option configures a Core.
type Option func(*Core)

// WithAPITimeout sets how long GetPrivacyStatus waits for a response.
// Default: config.DefaultAPITimeout
func WithAPITimeout(d time.Duration) Option {
	return func(c *Core) {
		if d > 0 {
			c.apiTimeout = d
		}
	}
}

// WithConfigurationType replaces the Configuration extension type, for
// example to supply a remote fetcher.
func WithConfigurationType(t *configuration.Type) Option {
	return func(c *Core) {
		if t != nil {
			c.configType = t
		}
	}
}

// WithLogger sets the logger for convenience-layer logs.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Core) {
		c.logger = logger
	}
}

// New creates a Core over registry.
func New(registry *tenanthub.Registry, opts ...Option) *Core {
	c := &Core{
		registry:   registry,
		configType: configuration.NewType(),
		apiTimeout: config.DefaultAPITimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FromSettings builds a registry from settings and wraps it.
// Close releases the event history, if any.
func FromSettings(s config.Settings, logger *slog.Logger, opts ...Option) (*Core, error) {
	hubOpts, store, err := s.HubOptions(logger)
	if err != nil {
		return nil, err
	}
	base := []Option{WithAPITimeout(s.APITimeout), WithLogger(logger)}
	c := New(tenanthub.NewRegistry(hubOpts...), append(base, opts...)...)
	c.history = store
	return c, nil
}

// Registry returns the underlying registry.
func (c *Core) Registry() *tenanthub.Registry {
	return c.registry
}

// History returns the event history store, or nil.
func (c *Core) History() history.Store {
	return c.history
}

// Close releases resources opened by FromSettings.
func (c *Core) Close() error {
	if c.history == nil {
		return nil
	}
	return c.history.Close()
}

func (c *Core) withConfiguration(extensions []tenanthub.ExtensionType) []tenanthub.ExtensionType {
	all := make([]tenanthub.ExtensionType, 0, len(extensions)+1)
	all = append(all, c.configType)
	return append(all, extensions...)
}

// RegisterExtensions creates the tenant's hub if needed, registers the
// Configuration extension plus every tenant-aware extension given, and
// starts the hub. completion runs once the hub is running.
func (c *Core) RegisterExtensions(tenantID string, extensions []tenanthub.ExtensionType, completion func()) {
	hub := c.registry.CreateOrGet(tenantFor(tenantID))
	hub.RegisterExtensions(c.withConfiguration(extensions), completion)
}

// RegisterExtensionsWait is RegisterExtensions that blocks until the hub
// is running. It returns the first registration error, if any; the hub
// starts regardless. If ctx ends first, ctx.Err() is returned and the hub
// still starts once registration finishes.
func (c *Core) RegisterExtensionsWait(ctx context.Context, tenantID string, extensions ...tenanthub.ExtensionType) error {
	hub := c.registry.CreateOrGet(tenantFor(tenantID))
	accepted := hub.FilterTenantAware(c.withConfiguration(extensions))

	barrier := tenanthub.NewBarrier(len(accepted), hub.Start)
	var g errgroup.Group
	for _, typ := range accepted {
		done := make(chan error, 1)
		hub.RegisterExtension(typ, func(err error) {
			barrier.Arrive()
			done <- err
		})
		g.Go(func() error {
			return <-done
		})
	}

	wait := make(chan error, 1)
	go func() {
		wait <- g.Wait()
	}()

	select {
	case err := <-wait:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dispatch sends evt to the tenant's hub.
func (c *Core) Dispatch(ctx context.Context, tenantID string, evt *event.Event) error {
	if evt == nil {
		return tenanthub.ErrNilEvent
	}
	hub, ok := c.registry.Get(tenantFor(tenantID))
	if !ok {
		return fmt.Errorf("dispatch %q: %w", evt.Name(), ErrUnknownTenant)
	}
	return hub.Dispatch(ctx, evt)
}

func (c *Core) request(ctx context.Context, tenantID, name string, data map[string]any) error {
	evt := event.New(name, event.TypeConfiguration, event.SourceRequestContent, data)
	return c.Dispatch(ctx, tenantID, evt)
}

// ConfigureWithAppID asks the tenant's Configuration extension to load the
// remote configuration published for appID.
func (c *Core) ConfigureWithAppID(ctx context.Context, tenantID, appID string) error {
	return c.request(ctx, tenantID, configuration.EventConfigureWithAppID,
		map[string]any{configuration.KeyAppID: appID})
}

// ConfigureWithFilePath loads the tenant's configuration from a local
// JSON or YAML file.
func (c *Core) ConfigureWithFilePath(ctx context.Context, tenantID, filePath string) error {
	return c.request(ctx, tenantID, configuration.EventConfigureWithFilePath,
		map[string]any{configuration.KeyFilePath: filePath})
}

// UpdateConfiguration overlays values on the tenant's configuration.
// A nil value removes the key.
func (c *Core) UpdateConfiguration(ctx context.Context, tenantID string, values map[string]any) error {
	return c.request(ctx, tenantID, configuration.EventConfigurationUpdate,
		map[string]any{configuration.KeyUpdateConfig: values})
}

// ClearUpdatedConfiguration drops every update made by UpdateConfiguration
// and SetPrivacyStatus.
func (c *Core) ClearUpdatedConfiguration(ctx context.Context, tenantID string) error {
	return c.request(ctx, tenantID, configuration.EventClearUpdatedConfiguration,
		map[string]any{configuration.KeyClearUpdatedConfig: true})
}

// SetPrivacyStatus updates the tenant's privacy status.
func (c *Core) SetPrivacyStatus(ctx context.Context, tenantID string, status configuration.PrivacyStatus) error {
	return c.UpdateConfiguration(ctx, tenantID, map[string]any{configuration.KeyPrivacy: string(status)})
}

// GetPrivacyStatus requests the tenant's privacy status and passes it to
// completion. Missing or unrecognized answers, including a timeout, are
// reported as configuration.Unknown. completion runs exactly once unless
// Dispatch fails, in which case the error is returned and completion is
// never called.
func (c *Core) GetPrivacyStatus(ctx context.Context, tenantID string, completion func(configuration.PrivacyStatus)) error {
	trigger := event.New(configuration.EventPrivacyStatusRequest, event.TypeConfiguration, event.SourceRequestContent,
		map[string]any{configuration.KeyRetrieveConfig: true})

	hub := c.registry.CreateOrGet(tenantFor(tenantID))
	cancel := hub.RegisterResponseListener(trigger, c.apiTimeout, func(resp *event.Event) {
		if resp == nil {
			if c.logger != nil {
				c.logger.Debug("privacy status request timed out",
					slog.String("tenant", tenantID),
					slog.Duration("timeout", c.apiTimeout),
				)
			}
			completion(configuration.Unknown)
			return
		}
		v, _ := resp.Value(configuration.KeyPrivacy)
		completion(configuration.ParsePrivacyStatus(v))
	})

	if err := hub.Dispatch(ctx, trigger); err != nil {
		cancel()
		return err
	}
	return nil
}

// PrivacyStatus is GetPrivacyStatus that blocks for the answer.
func (c *Core) PrivacyStatus(ctx context.Context, tenantID string) (configuration.PrivacyStatus, error) {
	got := make(chan configuration.PrivacyStatus, 1)
	if err := c.GetPrivacyStatus(ctx, tenantID, func(s configuration.PrivacyStatus) { got <- s }); err != nil {
		return configuration.Unknown, err
	}

	select {
	case s := <-got:
		return s, nil
	case <-ctx.Done():
		return configuration.Unknown, ctx.Err()
	}
}

// tenantFor maps a caller-supplied ID to its tenant. "" addresses Default.
func tenantFor(id string) tenanthub.Tenant {
	if id == "" {
		return tenanthub.Default
	}
	return tenanthub.Named(id)
}
