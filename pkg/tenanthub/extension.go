package tenanthub

import (
	"context"
	"log/slog"
	"time"

	"github.com/randalmurphal/tenanthub/pkg/tenanthub/event"
)

// ExtensionType describes a kind of extension a hub can instantiate.
type ExtensionType interface {
	// Name identifies the extension type. Names are unique per hub.
	Name() string

	// New creates a fresh extension instance for one hub.
	New() Extension
}

// TenantAware is the capability a hub requires before it will register an
// extension type. Types that only implement ExtensionType are rejected
// with a diagnostic.
type TenantAware interface {
	ExtensionType

	// TenantAware marks the type as safe to instantiate once per tenant.
	TenantAware()
}

// Extension is one registered instance living inside a hub.
type Extension interface {
	Name() string

	// OnRegistered is called once while the hub registers the extension.
	// Listeners should be registered here. A non-nil error aborts the
	// registration.
	OnRegistered(rt Runtime) error
}

// Runtime is the view of a hub handed to its extensions.
type Runtime interface {
	Tenant() Tenant
	RegisterListener(eventType, source string, l event.Listener)
	Dispatch(ctx context.Context, evt *event.Event) error
	RegisterResponseListener(trigger *event.Event, timeout time.Duration, fn ResponseFunc) CancelFunc
	Logger() *slog.Logger
}

// ResponseFunc receives the response correlated to a trigger event, or nil
// if the listener timed out. It is called exactly once unless cancelled.
type ResponseFunc func(resp *event.Event)

// CancelFunc withdraws a response listener. It returns true only if the
// listener was still pending, in which case its ResponseFunc never runs.
type CancelFunc func() bool

// hubRuntime binds an extension's name to its hub.
type hubRuntime struct {
	hub    *Hub
	owner  string
	logger *slog.Logger
}

var _ Runtime = (*hubRuntime)(nil)

func newRuntime(h *Hub, owner string) *hubRuntime {
	logger := h.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &hubRuntime{
		hub:    h,
		owner:  owner,
		logger: logger.With(slog.String("extension", owner)),
	}
}

func (r *hubRuntime) Tenant() Tenant {
	return r.hub.tenant
}

func (r *hubRuntime) RegisterListener(eventType, source string, l event.Listener) {
	r.hub.addListener(event.Registration{
		Owner:    r.owner,
		Type:     eventType,
		Source:   source,
		Listener: l,
	})
}

func (r *hubRuntime) Dispatch(ctx context.Context, evt *event.Event) error {
	return r.hub.Dispatch(ctx, evt)
}

func (r *hubRuntime) RegisterResponseListener(trigger *event.Event, timeout time.Duration, fn ResponseFunc) CancelFunc {
	return r.hub.RegisterResponseListener(trigger, timeout, fn)
}

func (r *hubRuntime) Logger() *slog.Logger {
	return r.logger
}
