package tenanthub

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrNilEvent is returned when dispatching a nil event.
	ErrNilEvent = errors.New("event is nil")

	// ErrNilExtension is reported when an extension type is nil or
	// constructs a nil extension.
	ErrNilExtension = errors.New("extension is nil")

	// ErrDuplicateExtension is reported when an extension with the same
	// name is already registered on the hub.
	ErrDuplicateExtension = errors.New("extension already registered")

	// ErrHubRunning is reported when registration is attempted after Start.
	ErrHubRunning = errors.New("hub is already running")

	// ErrNotTenantAware identifies candidates rejected by the capability check.
	ErrNotTenantAware = errors.New("extension is not tenant-aware")
)

// RegistrationError wraps a failed extension registration.
type RegistrationError struct {
	Tenant    Tenant
	Extension string
	Err       error
}

// Error implements the error interface.
func (e *RegistrationError) Error() string {
	return fmt.Sprintf("register extension %s on tenant %s: %v", e.Extension, e.Tenant, e.Err)
}

// Unwrap returns the underlying error.
func (e *RegistrationError) Unwrap() error {
	return e.Err
}
