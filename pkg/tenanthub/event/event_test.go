package event_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/tenanthub/pkg/tenanthub/event"
)

func TestNew(t *testing.T) {
	data := map[string]any{"config.appId": "app-1"}
	evt := event.New("Configure with App ID", event.TypeConfiguration, event.SourceRequestContent, data)

	assert.NotEmpty(t, evt.ID())
	assert.Equal(t, "Configure with App ID", evt.Name())
	assert.Equal(t, event.TypeConfiguration, evt.Type())
	assert.Equal(t, event.SourceRequestContent, evt.Source())
	assert.Equal(t, "app-1", evt.String("config.appId"))
	assert.False(t, evt.IsResponse())
	assert.WithinDuration(t, time.Now(), evt.Timestamp(), time.Second)
}

func TestNew_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		evt := event.New("e", "t", "s", nil)
		require.False(t, seen[evt.ID()], "duplicate id %s", evt.ID())
		seen[evt.ID()] = true
	}
}

func TestNew_CopiesData(t *testing.T) {
	data := map[string]any{"k": "v"}
	evt := event.New("e", "t", "s", data)

	data["k"] = "mutated"
	assert.Equal(t, "v", evt.String("k"))

	out := evt.Data()
	out["k"] = "mutated again"
	assert.Equal(t, "v", evt.String("k"))
}

func TestNew_Options(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	evt := event.New("e", "t", "s", nil,
		event.WithID("fixed"),
		event.WithTimestamp(ts),
	)

	assert.Equal(t, "fixed", evt.ID())
	assert.Equal(t, ts, evt.Timestamp())
	assert.Nil(t, evt.Data())
}

func TestNewResponse(t *testing.T) {
	trigger := event.New("req", event.TypeConfiguration, event.SourceRequestContent, nil)
	resp := event.NewResponse(trigger, "resp", event.TypeConfiguration, event.SourceResponseContent,
		map[string]any{"global.privacy": "optedin"})

	assert.True(t, resp.IsResponse())
	assert.Equal(t, trigger.ID(), resp.ResponseID())
	assert.NotEqual(t, trigger.ID(), resp.ID())
}

func TestMatches(t *testing.T) {
	evt := event.New("e", "type.a", "source.a", nil)

	tests := []struct {
		name      string
		eventType string
		source    string
		want      bool
	}{
		{"exact", "type.a", "source.a", true},
		{"wildcard type", event.Wildcard, "source.a", true},
		{"wildcard source", "type.a", event.Wildcard, true},
		{"wildcard both", event.Wildcard, event.Wildcard, true},
		{"wrong type", "type.b", "source.a", false},
		{"wrong source", "type.a", "source.b", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, evt.Matches(tt.eventType, tt.source))
		})
	}
}

func TestJSONRoundTrip(t *testing.T) {
	trigger := event.New("req", "t", "s", nil)
	evt := event.NewResponse(trigger, "resp", "t", "s", map[string]any{"k": "v"})

	raw, err := json.Marshal(evt)
	require.NoError(t, err)

	var decoded event.Event
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, evt.ID(), decoded.ID())
	assert.Equal(t, evt.ResponseID(), decoded.ResponseID())
	assert.Equal(t, "v", decoded.String("k"))
	assert.True(t, evt.Timestamp().Equal(decoded.Timestamp()))
}

func TestRegistration_Invoke(t *testing.T) {
	evt := event.New("e", "t", "s", nil)

	t.Run("delivers", func(t *testing.T) {
		var got *event.Event
		reg := event.Registration{Type: "t", Source: "s", Listener: func(_ context.Context, e *event.Event) {
			got = e
		}}
		require.True(t, reg.Wants(evt))
		require.NoError(t, reg.Invoke(context.Background(), evt))
		assert.Same(t, evt, got)
	})

	t.Run("recovers panic", func(t *testing.T) {
		reg := event.Registration{Owner: "ext", Type: "t", Source: "s", Listener: func(context.Context, *event.Event) {
			panic("boom")
		}}
		err := reg.Invoke(context.Background(), evt)
		require.Error(t, err)

		var lerr *event.ListenerError
		require.True(t, errors.As(err, &lerr))
		assert.Equal(t, "ext", lerr.Owner)
		assert.Contains(t, err.Error(), "boom")
	})

	t.Run("nil listener wants nothing", func(t *testing.T) {
		reg := event.Registration{Type: event.Wildcard, Source: event.Wildcard}
		assert.False(t, reg.Wants(evt))
	})
}
