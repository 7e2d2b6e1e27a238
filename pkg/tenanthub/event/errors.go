package event

import "fmt"

// ListenerError represents a failure while delivering an event to a listener.
type ListenerError struct {
	Event   *Event // The event being delivered
	Owner   string // Extension owning the listener (if known)
	Message string
	Err     error
}

// Error implements error interface.
func (e *ListenerError) Error() string {
	prefix := fmt.Sprintf("event %s", e.Event.ID())
	if e.Owner != "" {
		prefix += fmt.Sprintf(" (listener %s)", e.Owner)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the underlying error.
func (e *ListenerError) Unwrap() error {
	return e.Err
}
