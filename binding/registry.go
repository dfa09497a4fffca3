package binding

import (
	"fmt"
	"reflect"
	"sync"
)

// ---------------------------------------------------------------------------
// Registry: descriptors indexed by class name and native type
// ---------------------------------------------------------------------------

// Registry indexes built class descriptors by class name and by native
// Go type, so export code can recover the descriptor for a value it
// meets at runtime. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*ClassDescriptor
	byType map[reflect.Type]*ClassDescriptor
}

// NewRegistry creates an empty descriptor registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*ClassDescriptor),
		byType: make(map[reflect.Type]*ClassDescriptor),
	}
}

// RegisterDescriptor records a descriptor under its class name and the
// pointer type of T. Re-registering either key is an error.
func RegisterDescriptor[T any](r *Registry, d *ClassDescriptor) error {
	goType := reflect.TypeOf((*T)(nil))
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[d.name]; exists {
		return fmt.Errorf("binding: class %q already registered", d.name)
	}
	if prior, exists := r.byType[goType]; exists {
		return fmt.Errorf("binding: type %s already registered as class %q", goType, prior.name)
	}
	r.byName[d.name] = d
	r.byType[goType] = d
	return nil
}

// Lookup finds a descriptor by class name, or nil.
func (r *Registry) Lookup(name string) *ClassDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[name]
}

// LookupByType finds the descriptor registered for T, or nil.
func LookupByType[T any](r *Registry) *ClassDescriptor {
	goType := reflect.TypeOf((*T)(nil))
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byType[goType]
}

// LookupValue finds the descriptor registered for a value's dynamic
// type, or nil.
func (r *Registry) LookupValue(v any) *ClassDescriptor {
	goType := reflect.TypeOf(v)
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byType[goType]
}

// Names returns the registered class names, unordered.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	return names
}
