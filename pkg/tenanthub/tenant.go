package tenanthub

import "strings"

// Tenant identifies one independent hub within a process.
//
// The zero value is the Default tenant. Tenants are comparable and are
// used directly as registry keys.
type Tenant struct {
	id    string
	named bool
}

// Default is the unnamed tenant every registry is seeded with.
var Default = Tenant{}

// Named returns the tenant with the given identifier.
// Named("") is a tenant of its own, distinct from Default.
func Named(id string) Tenant {
	return Tenant{id: id, named: true}
}

// IsDefault reports whether t is the Default tenant.
func (t Tenant) IsDefault() bool {
	return !t.named
}

// ID returns the tenant identifier, "" for Default.
func (t Tenant) ID() string {
	return t.id
}

// String returns the identifier, or "default" for the Default tenant.
func (t Tenant) String() string {
	if !t.named {
		return "default"
	}
	return t.id
}

// compareTenants orders Default first, then named tenants by ID.
func compareTenants(a, b Tenant) int {
	switch {
	case a.named == b.named:
		return strings.Compare(a.id, b.id)
	case !a.named:
		return -1
	default:
		return 1
	}
}
