package server

import (
	"sync"
)

// Registry is an in-memory identity→value mapping safe for use from
// concurrent transport callbacks. The relay holds two instances keyed by
// domain identity, one for devices and one for clients.
type Registry[V any] struct {
	mu    sync.RWMutex
	store map[string]V
}

func NewRegistry[V any]() *Registry[V] {
	return &Registry[V]{store: make(map[string]V)}
}

// Store adds or overwrites the mapping for id.
func (r *Registry[V]) Store(id string, v V) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store[id] = v
}

func (r *Registry[V]) Get(id string) (V, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	val, ok := r.store[id]
	return val, ok
}

// Delete removes the mapping for id. Deleting an absent id is a no-op.
func (r *Registry[V]) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.store, id)
}

// Identities returns a point-in-time snapshot of all registered identities.
func (r *Registry[V]) Identities() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.store))
	for id := range r.store {
		ids = append(ids, id)
	}
	return ids
}

// List returns a point-in-time snapshot of all registered values.
func (r *Registry[V]) List() []V {
	r.mu.RLock()
	defer r.mu.RUnlock()

	vals := make([]V, 0, len(r.store))
	for _, v := range r.store {
		vals = append(vals, v)
	}
	return vals
}

func (r *Registry[V]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.store)
}
