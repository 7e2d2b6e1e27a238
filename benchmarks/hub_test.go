package benchmarks

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/randalmurphal/tenanthub/pkg/tenanthub"
	"github.com/randalmurphal/tenanthub/pkg/tenanthub/event"
)

// sink is an extension that counts every event it sees.
type sink struct {
	seen atomic.Int64
}

func (s *sink) Name() string              { return "sink" }
func (s *sink) New() tenanthub.Extension { return s }
func (s *sink) TenantAware()              {}

func (s *sink) OnRegistered(rt tenanthub.Runtime) error {
	rt.RegisterListener(event.Wildcard, event.Wildcard, func(context.Context, *event.Event) {
		s.seen.Add(1)
	})
	return nil
}

func startedHub(b *testing.B, opts ...tenanthub.Option) (*tenanthub.Hub, *sink) {
	b.Helper()
	hub := tenanthub.NewHub(tenanthub.Named("bench"), opts...)
	s := &sink{}
	done := make(chan struct{})
	hub.RegisterExtensions([]tenanthub.ExtensionType{s}, func() { close(done) })
	<-done
	return hub, s
}

func waitSeen(s *sink, n int64) {
	for s.seen.Load() < n {
		time.Sleep(10 * time.Microsecond)
	}
}

// BenchmarkDispatch measures dispatch through delivery on one hub.
func BenchmarkDispatch(b *testing.B) {
	hub, s := startedHub(b)
	evt := event.New("bench", "t", "s", map[string]any{"k": "v"})
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = hub.Dispatch(ctx, evt)
	}
	waitSeen(s, int64(b.N))
}

// BenchmarkDispatch_Parallel measures concurrent dispatchers on one hub.
func BenchmarkDispatch_Parallel(b *testing.B) {
	hub, s := startedHub(b)
	evt := event.New("bench", "t", "s", nil)
	ctx := context.Background()
	var sent atomic.Int64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = hub.Dispatch(ctx, evt)
			sent.Add(1)
		}
	})
	waitSeen(s, sent.Load())
}

// BenchmarkNewEvent measures event construction.
func BenchmarkNewEvent(b *testing.B) {
	data := map[string]any{"config.appId": "launch-123", "global.privacy": "optedin"}
	for i := 0; i < b.N; i++ {
		_ = event.New("Configure with App ID", event.TypeConfiguration, event.SourceRequestContent, data)
	}
}

// BenchmarkResponseRoundTrip measures a request answered by a correlated response.
func BenchmarkResponseRoundTrip(b *testing.B) {
	hub, _ := startedHub(b)
	ctx := context.Background()
	got := make(chan struct{}, 1)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		trigger := event.New("req", "t", "s", nil)
		hub.RegisterResponseListener(trigger, time.Minute, func(*event.Event) { got <- struct{}{} })
		_ = hub.Dispatch(ctx, event.NewResponse(trigger, "resp", "t", "s", nil))
		<-got
	}
}

// BenchmarkRegistry_Get measures the read path of a registry with many tenants.
func BenchmarkRegistry_Get(b *testing.B) {
	reg := tenanthub.NewRegistry()
	tenants := make([]tenanthub.Tenant, 100)
	for i := range tenants {
		tenants[i] = tenanthub.Named(fmt.Sprintf("tenant-%03d", i))
		reg.CreateOrGet(tenants[i])
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			_, _ = reg.Get(tenants[i%len(tenants)])
			i++
		}
	})
}

// BenchmarkRegistry_CreateOrGet_New measures hub creation.
func BenchmarkRegistry_CreateOrGet_New(b *testing.B) {
	reg := tenanthub.NewRegistry()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		reg.CreateOrGet(tenanthub.Named(fmt.Sprintf("tenant-%d", i)))
	}
}
