package tenanthub

import (
	"slices"
	"sync"
)

// HubRegistry creates and looks up hubs by tenant.
type HubRegistry interface {
	CreateOrGet(t Tenant) *Hub
	Get(t Tenant) (*Hub, bool)
}

// Registry maps tenants to their hubs. Exactly one hub exists per tenant
// for the life of the registry. It is safe for concurrent use.
type Registry struct {
	cfg hubConfig

	mu   sync.RWMutex
	hubs map[Tenant]*Hub
}

var _ HubRegistry = (*Registry)(nil)

// NewRegistry creates a registry seeded with a hub for Default.
// opts apply to every hub the registry creates.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		cfg:  buildHubConfig(opts),
		hubs: make(map[Tenant]*Hub),
	}
	h := newHub(Default, r.cfg)
	r.hubs[Default] = h
	h.announce()
	return r
}

// CreateOrGet returns the hub for t, creating it if needed. Concurrent
// callers asking for the same new tenant all receive the same hub.
func (r *Registry) CreateOrGet(t Tenant) *Hub {
	// Fast path: read lock
	r.mu.RLock()
	h, ok := r.hubs[t]
	r.mu.RUnlock()
	if ok {
		return h
	}

	// Slow path: write lock with double-check
	r.mu.Lock()
	if h, ok = r.hubs[t]; ok {
		r.mu.Unlock()
		return h
	}
	h = newHub(t, r.cfg)
	r.hubs[t] = h
	r.mu.Unlock()

	h.announce()
	return h
}

// Get returns the hub for t. It never creates one.
func (r *Registry) Get(t Tenant) (*Hub, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.hubs[t]
	return h, ok
}

// Tenants returns every tenant with a hub, Default first and the rest
// sorted by ID.
func (r *Registry) Tenants() []Tenant {
	r.mu.RLock()
	tenants := make([]Tenant, 0, len(r.hubs))
	for t := range r.hubs {
		tenants = append(tenants, t)
	}
	r.mu.RUnlock()

	slices.SortFunc(tenants, compareTenants)
	return tenants
}

// Len returns the number of hubs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.hubs)
}
