package tenanthub_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/tenanthub/pkg/tenanthub"
	"github.com/randalmurphal/tenanthub/pkg/tenanthub/event"
	"github.com/randalmurphal/tenanthub/pkg/tenanthub/logging"
)

// recorder is an extension that records every event it is delivered.
type recorder struct {
	name  string
	setup func(rt tenanthub.Runtime) error

	mu     sync.Mutex
	events []*event.Event
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) OnRegistered(rt tenanthub.Runtime) error {
	rt.RegisterListener(event.Wildcard, event.Wildcard, func(_ context.Context, evt *event.Event) {
		r.mu.Lock()
		r.events = append(r.events, evt)
		r.mu.Unlock()
	})
	if r.setup != nil {
		return r.setup(rt)
	}
	return nil
}

func (r *recorder) received() []*event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*event.Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *recorder) names() []string {
	var names []string
	for _, evt := range r.received() {
		names = append(names, evt.Name())
	}
	return names
}

// plainType is a recognized extension type without the tenant-aware capability.
type plainType struct {
	ext *recorder
}

func (p *plainType) Name() string              { return p.ext.name }
func (p *plainType) New() tenanthub.Extension { return p.ext }

// awareType is a tenant-aware extension type. New returns the same
// recorder every time, so each awareType must be used with one hub.
type awareType struct {
	plainType
}

func (a *awareType) TenantAware() {}

func newAware(name string) (*awareType, *recorder) {
	ext := &recorder{name: name}
	return &awareType{plainType{ext: ext}}, ext
}

func newPlain(name string) *plainType {
	return &plainType{ext: &recorder{name: name}}
}

// sinkEntry is one message captured by captureSink.
type sinkEntry struct {
	Level   logging.Level
	Label   string
	Message string
}

type captureSink struct {
	mu      sync.Mutex
	entries []sinkEntry
}

func (s *captureSink) Log(level logging.Level, label, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, sinkEntry{Level: level, Label: label, Message: message})
}

func (s *captureSink) all() []sinkEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]sinkEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// registerSync registers typ and waits for its completion callback.
func registerSync(t *testing.T, hub *tenanthub.Hub, typ tenanthub.TenantAware) error {
	t.Helper()
	errCh := make(chan error, 1)
	hub.RegisterExtension(typ, func(err error) { errCh <- err })
	select {
	case err := <-errCh:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("registration did not complete")
		return nil
	}
}

// startWith registers exts, starts the hub and waits for it to run.
func startWith(t *testing.T, hub *tenanthub.Hub, types ...tenanthub.ExtensionType) {
	t.Helper()
	done := make(chan struct{})
	hub.RegisterExtensions(types, func() { close(done) })
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("hub did not start")
	}
	require.Equal(t, tenanthub.Running, hub.State())
}

func waitForEvents(t *testing.T, r *recorder, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(r.received()) >= n
	}, 5*time.Second, time.Millisecond)
}
