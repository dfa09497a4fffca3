package binding

import (
	"sort"
	"sync"

	"github.com/arrix/HAL/engine"
)

// ---------------------------------------------------------------------------
// Dispatch: walking the descriptor chain for one property operation
// ---------------------------------------------------------------------------

// nativeState is the private data attached to every engine object
// created from a descriptor. It ties the native instance to its engine
// handle and records finalization.
type nativeState struct {
	desc     *ClassDescriptor
	instance any

	mu        sync.Mutex
	object    *engine.Object
	funcObjs  map[string]*engine.Object
	finalized bool
}

func (s *nativeState) isFinalized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finalized
}

// functionObject returns the shared callable for a declared function
// property, creating it on first access. The callable binds the binding
// state, not the engine object, so it stays valid when detached and
// called through another receiver; once the owner is finalized it
// refuses invocation instead of touching the swept instance.
func (s *nativeState) functionObject(fp *functionProperty) *engine.Object {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn, ok := s.funcObjs[fp.name]; ok {
		return fn
	}
	fn := s.desc.ctx.NewFunction(fp.name, func(this *engine.Object, args []engine.Value) (engine.Value, error) {
		if s.isFinalized() {
			return engine.Undefined, &InvalidStateError{Class: s.desc.name, Op: fp.name}
		}
		return fp.call(s.instance, args)
	})
	// The cache is the only reference the collector cannot see; pin the
	// callable until the owning object is finalized.
	fn.Protect()
	if s.funcObjs == nil {
		s.funcObjs = make(map[string]*engine.Object)
	}
	s.funcObjs[fp.name] = fn
	return fn
}

// dispatchHas probes the descriptor chain for a property. Each class is
// consulted most derived first: its declared properties, then its
// has-property callback, or a get-property probe when no has-property
// callback is configured.
func dispatchHas(s *nativeState, name string) (present bool, handled bool) {
	for d := s.desc; d != nil; d = d.parent {
		if _, ok := d.values[name]; ok {
			return true, true
		}
		if _, ok := d.functions[name]; ok {
			return true, true
		}
		if d.hasProperty != nil {
			if d.hasProperty(s.instance, name) {
				return true, true
			}
			continue
		}
		if d.getProperty != nil && !d.getProperty(s.instance, name).IsUndefined() {
			return true, true
		}
	}
	return false, false
}

// dispatchGet resolves a property read against the descriptor chain:
// declared value getters, declared functions, then the get-property
// callback, most derived class first.
func dispatchGet(s *nativeState, name string) (engine.Value, bool) {
	for d := s.desc; d != nil; d = d.parent {
		if vp, ok := d.values[name]; ok {
			return vp.get(s.instance), true
		}
		if fp, ok := d.functions[name]; ok {
			return engine.FromObject(s.functionObject(fp)), true
		}
		if d.getProperty != nil {
			if v := d.getProperty(s.instance, name); !v.IsUndefined() {
				return v, true
			}
		}
	}
	return engine.Undefined, false
}

// dispatchSet resolves a property write against the descriptor chain.
// A declared property always claims the write: its setter applies it,
// and a missing setter or a ReadOnly attribute drops it silently.
func dispatchSet(s *nativeState, name string, v engine.Value) (handled bool) {
	for d := s.desc; d != nil; d = d.parent {
		if vp, ok := d.values[name]; ok {
			if vp.set == nil || vp.flags&engine.PropFlagReadOnly != 0 {
				return true // rejected
			}
			vp.set(s.instance, v)
			return true
		}
		if _, ok := d.functions[name]; ok {
			return true // declared functions reject writes
		}
		if d.setProperty != nil && d.setProperty(s.instance, name, v) {
			return true
		}
	}
	return false
}

// dispatchDelete resolves a property delete against the descriptor
// chain. Declared properties are part of the class shape and report
// deletion failure; a delete-property callback may claim the request.
func dispatchDelete(s *nativeState, name string) (result bool, handled bool) {
	for d := s.desc; d != nil; d = d.parent {
		if _, ok := d.values[name]; ok {
			return false, true
		}
		if _, ok := d.functions[name]; ok {
			return false, true
		}
		if d.deleteProperty != nil && d.deleteProperty(s.instance, name) {
			return true, true
		}
	}
	return false, false
}

// dispatchNames accumulates enumerable property names from every class
// on the chain: declared names lexicographically per class, plus
// whatever each class's names callback contributes.
func dispatchNames(s *nativeState, acc *engine.PropertyNameAccumulator) {
	for d := s.desc; d != nil; d = d.parent {
		declared := make([]string, 0, len(d.values)+len(d.functions))
		for name, vp := range d.values {
			if vp.flags&engine.PropFlagDontEnum == 0 {
				declared = append(declared, name)
			}
		}
		for name, fp := range d.functions {
			if fp.flags&engine.PropFlagDontEnum == 0 {
				declared = append(declared, name)
			}
		}
		sort.Strings(declared)
		for _, name := range declared {
			acc.Add(name)
		}
		if d.getPropertyNames != nil {
			d.getPropertyNames(s.instance, acc)
		}
	}
}

// dispatchCall resolves a function invocation: the most derived class
// with a call callback claims it. When the object is invoked through a
// receiver and the class configures a with-this variant, the receiver
// is passed along.
func dispatchCall(s *nativeState, this *engine.Object, args []engine.Value) (_ engine.Value, handled bool, _ error) {
	for d := s.desc; d != nil; d = d.parent {
		if this != nil && d.callWithThis != nil {
			v, err := d.callWithThis(s.instance, this, args)
			return v, true, err
		}
		if d.callAsFunction != nil {
			v, err := d.callAsFunction(s.instance, args)
			return v, true, err
		}
		if d.callWithThis != nil {
			v, err := d.callWithThis(s.instance, nil, args)
			return v, true, err
		}
	}
	return engine.Undefined, false, nil
}

// dispatchConstruct resolves a 'new' invocation against the chain.
func dispatchConstruct(s *nativeState, args []engine.Value) (_ *engine.Object, handled bool, _ error) {
	for d := s.desc; d != nil; d = d.parent {
		if d.callAsConstructor != nil {
			obj, err := d.callAsConstructor(s.instance, args)
			return obj, true, err
		}
	}
	return nil, false, nil
}

// dispatchHasInstance resolves an instanceof check against the chain.
func dispatchHasInstance(s *nativeState, candidate engine.Value) (bool, bool) {
	for d := s.desc; d != nil; d = d.parent {
		if d.hasInstance != nil {
			return d.hasInstance(s.instance, candidate), true
		}
	}
	return false, false
}

// dispatchConvert resolves a number or string conversion against the
// chain. A callback returning Undefined forwards to the next class and
// finally to the engine default.
func dispatchConvert(s *nativeState, kind engine.Kind) (engine.Value, bool) {
	for d := s.desc; d != nil; d = d.parent {
		if d.convertToType != nil {
			if v := d.convertToType(s.instance, kind); !v.IsUndefined() {
				return v, true
			}
		}
	}
	return engine.Undefined, false
}

// initializeChain runs the initialize callbacks least derived class
// first, mirroring base-before-derived construction.
func initializeChain(s *nativeState) {
	for _, d := range s.desc.lineage() {
		if d.initialize != nil {
			d.initialize(s.instance)
		}
	}
}

// finalizeChain runs the finalize callbacks most derived class first.
// It may run on a collector goroutine; callbacks must not touch engine
// values.
func finalizeChain(s *nativeState) {
	for d := s.desc; d != nil; d = d.parent {
		if d.finalize != nil {
			d.finalize(s.instance)
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
