// Package history records the events each tenant hub delivered.
package history

import (
	"errors"
	"time"

	"github.com/randalmurphal/tenanthub/pkg/tenanthub/event"
)

// Store keeps a per-tenant log of delivered events.
// Implementations must be safe for concurrent use.
type Store interface {
	// Record appends an event to the tenant's history.
	// Recording the same event ID twice for a tenant is a no-op.
	Record(tenant string, evt *event.Event) error

	// List returns the most recent limit records for a tenant in the order
	// they were recorded. limit <= 0 returns everything.
	// Returns empty slice (not error) if the tenant has no history.
	List(tenant string, limit int) ([]Record, error)

	// Get returns the record for an event ID.
	// Returns ErrNotFound if the event was never recorded for the tenant.
	Get(tenant, eventID string) (Record, error)

	// Count returns the number of records for a tenant.
	Count(tenant string) (int, error)

	// DeleteTenant removes all records for a tenant.
	DeleteTenant(tenant string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Record is one stored event.
type Record struct {
	Tenant     string
	Sequence   int64
	EventID    string
	Name       string
	Type       string
	Source     string
	ResponseID string
	Data       []byte // JSON encoded payload
	Timestamp  time.Time
}

// Sentinel errors for history operations.
var (
	// ErrNotFound indicates an event is not in the history.
	ErrNotFound = errors.New("history record not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("history store closed")
)

func newRecord(tenant string, evt *event.Event) (Record, error) {
	data, err := evt.DataBytes()
	if err != nil {
		return Record{}, err
	}
	return Record{
		Tenant:     tenant,
		EventID:    evt.ID(),
		Name:       evt.Name(),
		Type:       evt.Type(),
		Source:     evt.Source(),
		ResponseID: evt.ResponseID(),
		Data:       data,
		Timestamp:  evt.Timestamp().UTC(),
	}, nil
}
