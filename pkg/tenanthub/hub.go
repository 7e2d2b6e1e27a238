package tenanthub

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/randalmurphal/tenanthub/pkg/tenanthub/event"
	"github.com/randalmurphal/tenanthub/pkg/tenanthub/logging"
	"github.com/randalmurphal/tenanthub/pkg/tenanthub/observability"
)

// State is the lifecycle state of a hub.
type State int32

const (
	// NotStarted hubs accept registrations and dispatches but deliver
	// nothing to listeners.
	NotStarted State = iota

	// Running hubs deliver events. A hub never leaves Running.
	Running
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Running:
		return "running"
	default:
		return "unknown"
	}
}

// diagnosticLabel is the sink label for hub diagnostics.
const diagnosticLabel = "TenantHub"

// queued is one dispatched event waiting for the drain goroutine.
type queued struct {
	ctx     context.Context
	evt     *event.Event
	span    trace.Span
	at      time.Time
	running bool // hub state when the event was dispatched
	resolve bool // whether to run response correlation
}

// Hub is the event bus for one tenant.
//
// Events are delivered in dispatch order by a single drain goroutine that
// exists only while the hub has queued work. Listeners and response
// callbacks run on that goroutine and must not block.
type Hub struct {
	tenant    Tenant
	cfg       hubConfig
	logger    *slog.Logger
	responses *responseTable

	state atomic.Int32

	mu         sync.Mutex
	extensions map[string]bool // name -> registration completed
	listeners  []event.Registration
	queue      []queued
	held       []queued // QueueBeforeStart buffer
	draining   bool
}

// NewHub creates a hub for tenant in the NotStarted state.
func NewHub(tenant Tenant, opts ...Option) *Hub {
	h := newHub(tenant, buildHubConfig(opts))
	h.announce()
	return h
}

// newHub builds a hub without side effects so the registry can call it
// inside its critical section.
func newHub(tenant Tenant, cfg hubConfig) *Hub {
	h := &Hub{
		tenant:     tenant,
		cfg:        cfg,
		logger:     observability.EnrichLogger(cfg.logger, tenant.String()),
		extensions: make(map[string]bool),
	}
	h.responses = newResponseTable(cfg.clock, h.observeResponse, h.responseFailed)
	return h
}

func (h *Hub) announce() {
	observability.LogHubCreated(h.logger, h.tenant.String())
	h.cfg.metrics.RecordHubCreated(context.Background(), h.tenant.String())
}

// Tenant returns the tenant this hub serves.
func (h *Hub) Tenant() Tenant {
	return h.tenant
}

// State returns the current lifecycle state.
func (h *Hub) State() State {
	return State(h.state.Load())
}

// Extensions returns the names of successfully registered extensions, sorted.
func (h *Hub) Extensions() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	names := make([]string, 0, len(h.extensions))
	for name, done := range h.extensions {
		if done {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// PendingResponses returns the number of response listeners still waiting.
func (h *Hub) PendingResponses() int {
	return h.responses.len()
}

// RegisterExtension registers one extension asynchronously.
//
// onRegistered, if non-nil, is called exactly once from the registering
// goroutine with nil on success or the reason registration failed.
func (h *Hub) RegisterExtension(typ TenantAware, onRegistered func(error)) {
	go func() {
		err := h.register(typ)
		if onRegistered != nil {
			onRegistered(err)
		}
	}()
}

func (h *Hub) register(typ TenantAware) error {
	if typ == nil {
		return &RegistrationError{Tenant: h.tenant, Err: ErrNilExtension}
	}
	name := typ.Name()
	elapsed := observability.TimedOperation()

	ctx, span := h.cfg.spans.StartRegistrationSpan(context.Background(), h.tenant.String(), name)
	err := h.registerInstance(typ, name)
	h.cfg.spans.EndSpanWithError(span, err)
	h.cfg.metrics.RecordRegistration(ctx, h.tenant.String(), name, err == nil)

	if err != nil {
		observability.LogExtensionError(h.logger, name, err)
		return err
	}
	observability.LogExtensionRegistered(h.logger, name, elapsed())
	return nil
}

func (h *Hub) registerInstance(typ TenantAware, name string) error {
	fail := func(err error) error {
		return &RegistrationError{Tenant: h.tenant, Extension: name, Err: err}
	}

	h.mu.Lock()
	switch {
	case h.State() == Running:
		h.mu.Unlock()
		return fail(ErrHubRunning)
	case h.hasExtensionLocked(name):
		h.mu.Unlock()
		return fail(ErrDuplicateExtension)
	}
	h.extensions[name] = false
	h.mu.Unlock()

	ext := typ.New()
	var err error
	if ext == nil {
		err = ErrNilExtension
	} else {
		err = ext.OnRegistered(newRuntime(h, name))
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err == nil && h.State() == Running {
		err = ErrHubRunning
	}
	if err != nil {
		delete(h.extensions, name)
		h.removeListenersLocked(name)
		return fail(err)
	}
	h.extensions[name] = true
	return nil
}

func (h *Hub) hasExtensionLocked(name string) bool {
	_, ok := h.extensions[name]
	return ok
}

// RegisterExtensions filters candidates by capability, registers every
// tenant-aware one concurrently, then starts the hub and calls onComplete
// once all of them have reported back. It returns the number of
// candidates accepted for registration.
//
// With no accepted candidates the hub starts before RegisterExtensions
// returns.
func (h *Hub) RegisterExtensions(candidates []ExtensionType, onComplete func()) int {
	accepted := h.FilterTenantAware(candidates)

	barrier := NewBarrier(len(accepted), func() {
		h.Start()
		if onComplete != nil {
			onComplete()
		}
	})
	for _, ta := range accepted {
		h.RegisterExtension(ta, func(error) {
			barrier.Arrive()
		})
	}
	return len(accepted)
}

// FilterTenantAware returns the candidates that implement TenantAware, in
// order. Each rejected candidate produces one Error diagnostic on the sink.
func (h *Hub) FilterTenantAware(candidates []ExtensionType) []TenantAware {
	accepted := make([]TenantAware, 0, len(candidates))
	for _, c := range candidates {
		ta, ok := c.(TenantAware)
		if !ok {
			h.reject(c)
			continue
		}
		accepted = append(accepted, ta)
	}
	return accepted
}

func (h *Hub) reject(c ExtensionType) {
	name := "nil"
	if c != nil {
		name = c.Name()
	}
	logging.Errorf(h.cfg.sink, diagnosticLabel,
		"%s extension will not be registered as it is not tenant-aware.", name)
	h.cfg.metrics.RecordRegistration(context.Background(), h.tenant.String(), name, false)
}

// Start moves the hub to Running. Events held under QueueBeforeStart are
// delivered in order, ahead of anything dispatched afterwards. Calling
// Start on a running hub does nothing.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.State() == Running {
		h.mu.Unlock()
		return
	}
	h.state.Store(int32(Running))

	held := h.held
	h.held = nil
	for _, item := range held {
		item.running = true
		item.resolve = false
		h.enqueueLocked(item)
	}
	extensions := 0
	for _, done := range h.extensions {
		if done {
			extensions++
		}
	}
	h.mu.Unlock()

	observability.LogHubStarted(h.logger, extensions, len(held))
}

// Dispatch queues evt for delivery and returns immediately.
//
// On a running hub, evt reaches every matching listener. Before Start, evt
// is dropped or held according to the pre-start policy. In both states a
// response event resolves the listeners waiting on its trigger.
func (h *Hub) Dispatch(ctx context.Context, evt *event.Event) error {
	if evt == nil {
		return ErrNilEvent
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := h.cfg.spans.StartDispatchSpan(context.WithoutCancel(ctx), h.tenant.String(), evt.ID(), evt.Name())

	h.mu.Lock()
	defer h.mu.Unlock()

	item := queued{
		ctx:     ctx,
		evt:     evt,
		span:    span,
		at:      h.cfg.clock.Now(),
		running: h.State() == Running,
		resolve: true,
	}
	if !item.running && h.cfg.preStart == QueueBeforeStart {
		if len(h.held) < h.cfg.preStartLimit {
			// Resolve now; deliver on Start.
			h.held = append(h.held, queued{ctx: ctx, evt: evt, span: span, at: item.at})
			item.span = nil
		} else {
			h.cfg.spans.AddSpanEvent(ctx, "pre_start_queue_full",
				attribute.Int("limit", h.cfg.preStartLimit))
		}
	}
	h.enqueueLocked(item)
	return nil
}

func (h *Hub) enqueueLocked(item queued) {
	h.queue = append(h.queue, item)
	if !h.draining {
		h.draining = true
		go h.drain()
	}
}

// drain delivers queued events until the queue is empty, then exits.
func (h *Hub) drain() {
	for {
		h.mu.Lock()
		if len(h.queue) == 0 {
			h.draining = false
			h.mu.Unlock()
			return
		}
		item := h.queue[0]
		h.queue[0] = queued{}
		h.queue = h.queue[1:]
		listeners := h.listeners
		h.mu.Unlock()

		h.deliver(item, listeners)
	}
}

func (h *Hub) deliver(item queued, listeners []event.Registration) {
	evt := item.evt
	if item.resolve && evt.IsResponse() {
		h.responses.resolve(evt.ResponseID(), evt)
	}

	if !item.running {
		if item.span != nil {
			observability.LogEventDropped(h.logger, evt.ID(), evt.Name(), "hub not started")
			h.cfg.metrics.RecordDispatch(item.ctx, h.tenant.String(), false, h.cfg.clock.Now().Sub(item.at))
			h.cfg.spans.EndSpanWithError(item.span, nil)
		}
		return
	}

	if h.cfg.history != nil {
		if err := h.cfg.history.Record(h.tenant.ID(), evt); err != nil {
			observability.LogHistoryError(h.logger, evt.ID(), err)
		}
	}

	var firstErr error
	for _, reg := range listeners {
		if !reg.Wants(evt) {
			continue
		}
		if err := reg.Invoke(item.ctx, evt); err != nil {
			observability.LogListenerError(h.logger, evt.ID(), err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	h.cfg.metrics.RecordDispatch(item.ctx, h.tenant.String(), true, h.cfg.clock.Now().Sub(item.at))
	h.cfg.spans.EndSpanWithError(item.span, firstErr)
}

// RegisterResponseListener calls fn exactly once: with the first response
// event whose ResponseID is trigger's ID, or with nil once timeout elapses.
// The returned CancelFunc withdraws the listener if it has not fired.
//
// A nil trigger or fn registers nothing.
func (h *Hub) RegisterResponseListener(trigger *event.Event, timeout time.Duration, fn ResponseFunc) CancelFunc {
	if trigger == nil || fn == nil {
		return func() bool { return false }
	}
	return h.responses.add(trigger.ID(), timeout, fn)
}

func (h *Hub) observeResponse(triggerID, outcome string, timeout time.Duration) {
	if outcome == observability.OutcomeTimeout {
		observability.LogResponseTimeout(h.logger, triggerID, timeout)
	}
	h.cfg.metrics.RecordResponse(context.Background(), h.tenant.String(), outcome)
}

func (h *Hub) responseFailed(triggerID string, err error) {
	observability.LogListenerError(h.logger, triggerID, err)
}

func (h *Hub) addListener(reg event.Registration) {
	if reg.Listener == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, reg)
}

func (h *Hub) removeListenersLocked(owner string) {
	h.listeners = slices.DeleteFunc(slices.Clone(h.listeners), func(reg event.Registration) bool {
		return reg.Owner == owner
	})
}
