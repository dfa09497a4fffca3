package engine

import (
	"sync"
	"sync/atomic"
)

// ---------------------------------------------------------------------------
// ObjectRegistry: context-local registry of live objects
// ---------------------------------------------------------------------------

// ObjectRegistry tracks every object created in a context. The
// collector sweeps it; an object stays reachable from script only while
// it is registered. Thread-safe for concurrent registration and lookup.
type ObjectRegistry struct {
	mu      sync.RWMutex
	objects map[uint32]*Object
	nextID  atomic.Uint32
}

// NewObjectRegistry creates an empty registry.
func NewObjectRegistry() *ObjectRegistry {
	r := &ObjectRegistry{objects: make(map[uint32]*Object)}
	r.nextID.Store(0) // first Add yields 1; 0 means unregistered
	return r
}

// Add registers an object and assigns its identity.
func (r *ObjectRegistry) Add(obj *Object) uint32 {
	id := r.nextID.Add(1)
	r.mu.Lock()
	r.objects[id] = obj
	r.mu.Unlock()
	obj.id = id
	return id
}

// Get returns the object with the given identity, or nil.
func (r *ObjectRegistry) Get(id uint32) *Object {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.objects[id]
}

// Remove unregisters an object. Returns true if it was registered.
func (r *ObjectRegistry) Remove(id uint32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.objects[id]; !ok {
		return false
	}
	delete(r.objects, id)
	return true
}

// Contains reports whether the object is still registered.
func (r *ObjectRegistry) Contains(obj *Object) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.objects[obj.id] == obj
}

// Len returns the number of registered objects.
func (r *ObjectRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.objects)
}

// Snapshot returns the currently registered objects. The slice is a
// copy; the registry may change immediately after.
func (r *ObjectRegistry) Snapshot() []*Object {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Object, 0, len(r.objects))
	for _, obj := range r.objects {
		out = append(out, obj)
	}
	return out
}
