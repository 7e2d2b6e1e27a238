package event

import (
	"encoding/json"
	"maps"
	"time"

	"github.com/google/uuid"
)

// Wildcard matches any event type or source when used in a listener registration.
const Wildcard = "*"

// Common event types and sources.
const (
	TypeConfiguration = "com.tenanthub.eventType.configuration"
	TypeHub           = "com.tenanthub.eventType.hub"

	SourceRequestContent  = "com.tenanthub.eventSource.requestContent"
	SourceResponseContent = "com.tenanthub.eventSource.responseContent"
	SourceSharedState     = "com.tenanthub.eventSource.sharedState"
)

// Event is an immutable message routed through a hub.
//
// ID is generated when the event is constructed and doubles as the
// correlation key for response listeners. ResponseID is set only on
// response events and names the trigger event they answer.
type Event struct {
	id         string
	name       string
	eventType  string
	source     string
	data       map[string]any
	timestamp  time.Time
	responseID string
}

// ID returns the unique event identifier.
func (e *Event) ID() string {
	return e.id
}

// Name returns the human readable event name.
func (e *Event) Name() string {
	return e.name
}

// Type returns the event type.
func (e *Event) Type() string {
	return e.eventType
}

// Source returns the event source.
func (e *Event) Source() string {
	return e.source
}

// Timestamp returns when the event was constructed.
func (e *Event) Timestamp() time.Time {
	return e.timestamp
}

// ResponseID returns the ID of the trigger event this event responds to,
// or "" if it is not a response.
func (e *Event) ResponseID() string {
	return e.responseID
}

// IsResponse reports whether the event answers a trigger event.
func (e *Event) IsResponse() bool {
	return e.responseID != ""
}

// Data returns a copy of the event payload. The copy is shallow.
func (e *Event) Data() map[string]any {
	if e.data == nil {
		return nil
	}
	return maps.Clone(e.data)
}

// Value returns a single payload value.
func (e *Event) Value(key string) (any, bool) {
	v, ok := e.data[key]
	return v, ok
}

// String returns a string payload value, or "" if missing or not a string.
func (e *Event) String(key string) string {
	s, _ := e.data[key].(string)
	return s
}

// DataBytes returns the JSON encoded payload.
func (e *Event) DataBytes() ([]byte, error) {
	return json.Marshal(e.data)
}

// Option configures event creation.
type Option func(*eventConfig)

type eventConfig struct {
	id         string
	timestamp  time.Time
	responseID string
}

// WithID sets a specific event ID (default: auto-generated UUID).
func WithID(id string) Option {
	return func(cfg *eventConfig) {
		cfg.id = id
	}
}

// WithTimestamp sets a specific timestamp (default: time.Now()).
func WithTimestamp(t time.Time) Option {
	return func(cfg *eventConfig) {
		cfg.timestamp = t
	}
}

// WithResponseID marks the event as a response to the event with the given ID.
func WithResponseID(triggerID string) Option {
	return func(cfg *eventConfig) {
		cfg.responseID = triggerID
	}
}

// New creates an event. The data map is copied so later mutations by the
// caller are not observed.
func New(name, eventType, source string, data map[string]any, opts ...Option) *Event {
	cfg := &eventConfig{
		id:        uuid.New().String(),
		timestamp: time.Now(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	var payload map[string]any
	if data != nil {
		payload = maps.Clone(data)
	}

	return &Event{
		id:         cfg.id,
		name:       name,
		eventType:  eventType,
		source:     source,
		data:       payload,
		timestamp:  cfg.timestamp,
		responseID: cfg.responseID,
	}
}

// NewResponse creates a response event correlated to trigger.
func NewResponse(trigger *Event, name, eventType, source string, data map[string]any, opts ...Option) *Event {
	allOpts := append([]Option{WithResponseID(trigger.ID())}, opts...)
	return New(name, eventType, source, data, allOpts...)
}

// Matches reports whether the event matches a listener registered for
// eventType and source. Wildcard matches anything.
func (e *Event) Matches(eventType, source string) bool {
	return (eventType == Wildcard || eventType == e.eventType) &&
		(source == Wildcard || source == e.source)
}

type wireEvent struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Type       string         `json:"type"`
	Source     string         `json:"source"`
	Data       map[string]any `json:"data,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
	ResponseID string         `json:"response_id,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (e *Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireEvent{
		ID:         e.id,
		Name:       e.name,
		Type:       e.eventType,
		Source:     e.source,
		Data:       e.data,
		Timestamp:  e.timestamp,
		ResponseID: e.responseID,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Event) UnmarshalJSON(data []byte) error {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*e = Event{
		id:         w.ID,
		name:       w.Name,
		eventType:  w.Type,
		source:     w.Source,
		data:       w.Data,
		timestamp:  w.Timestamp,
		responseID: w.ResponseID,
	}
	return nil
}
