package event

import (
	"context"
	"fmt"
)

// Listener receives events delivered by a hub.
type Listener func(ctx context.Context, evt *Event)

// Registration binds a listener to the event type and source it is interested in.
type Registration struct {
	Owner    string // Extension that registered the listener
	Type     string
	Source   string
	Listener Listener
}

// Wants reports whether the registration is interested in evt.
func (r Registration) Wants(evt *Event) bool {
	return r.Listener != nil && evt.Matches(r.Type, r.Source)
}

// Invoke calls the listener, turning a panic into a *ListenerError so a
// misbehaving extension cannot take down the delivery loop.
func (r Registration) Invoke(ctx context.Context, evt *Event) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &ListenerError{
				Event:   evt,
				Owner:   r.Owner,
				Message: fmt.Sprintf("listener panic: %v", p),
			}
		}
	}()
	r.Listener(ctx, evt)
	return nil
}
