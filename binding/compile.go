package binding

import (
	"github.com/arrix/HAL/engine"
)

// ---------------------------------------------------------------------------
// Compiling a descriptor into an engine slot table
// ---------------------------------------------------------------------------

// stateOf recovers the binding state from an engine object's private
// data. Objects whose private data was cleared by the collector, or
// plain objects mixed into the chain, fall through to the engine's
// default semantics.
func stateOf(obj *engine.Object) *nativeState {
	s, _ := obj.Private().(*nativeState)
	return s
}

// chainAny reports whether any class on the chain satisfies pred.
func chainAny(d *ClassDescriptor, pred func(*ClassDescriptor) bool) bool {
	for ; d != nil; d = d.parent {
		if pred(d) {
			return true
		}
	}
	return false
}

// compile materializes the descriptor chain as an engine class
// definition. Property slots delegate to the chain dispatchers;
// invocation slots are installed only when some class on the chain
// configures them, so unconfigured objects keep the engine's
// not-callable behavior.
func (d *ClassDescriptor) compile() *engine.ClassDefinition {
	def := &engine.ClassDefinition{
		Name:       d.name,
		Attributes: d.classFlags,
	}

	def.Initialize = func(obj *engine.Object) error {
		if s := stateOf(obj); s != nil {
			initializeChain(s)
		}
		return nil
	}

	// The finalize slot may run on the collector goroutine. It severs
	// the state from its engine handle before the native callbacks run
	// so a callback cannot reach a half-dead object.
	def.Finalize = func(obj *engine.Object) {
		s := stateOf(obj)
		if s == nil {
			return
		}
		s.mu.Lock()
		if s.finalized {
			s.mu.Unlock()
			return
		}
		s.finalized = true
		s.object = nil
		for _, fn := range s.funcObjs {
			fn.Unprotect()
		}
		s.funcObjs = nil
		s.mu.Unlock()
		finalizeChain(s)
	}

	def.HasProperty = func(obj *engine.Object, name string) (bool, bool, error) {
		s := stateOf(obj)
		if s == nil {
			return false, false, nil
		}
		present, handled := dispatchHas(s, name)
		return present, handled, nil
	}

	def.GetProperty = func(obj *engine.Object, name string) (engine.Value, bool, error) {
		s := stateOf(obj)
		if s == nil {
			return engine.Undefined, false, nil
		}
		v, handled := dispatchGet(s, name)
		return v, handled, nil
	}

	def.SetProperty = func(obj *engine.Object, name string, v engine.Value) (bool, error) {
		s := stateOf(obj)
		if s == nil {
			return false, nil
		}
		return dispatchSet(s, name, v), nil
	}

	def.DeleteProperty = func(obj *engine.Object, name string) (bool, bool, error) {
		s := stateOf(obj)
		if s == nil {
			return false, false, nil
		}
		result, handled := dispatchDelete(s, name)
		return result, handled, nil
	}

	def.GetPropertyNames = func(obj *engine.Object, acc *engine.PropertyNameAccumulator) {
		if s := stateOf(obj); s != nil {
			dispatchNames(s, acc)
		}
	}

	if chainAny(d, func(c *ClassDescriptor) bool {
		return c.callAsFunction != nil || c.callWithThis != nil
	}) {
		def.CallAsFunction = func(obj, this *engine.Object, args []engine.Value) (engine.Value, error) {
			s := stateOf(obj)
			if s == nil {
				return engine.Undefined, engine.NewTypeException(d.name + " is not a function")
			}
			v, handled, err := dispatchCall(s, this, args)
			if !handled {
				return engine.Undefined, engine.NewTypeException(d.name + " is not a function")
			}
			return v, err
		}
	}

	if chainAny(d, func(c *ClassDescriptor) bool { return c.callAsConstructor != nil }) {
		def.CallAsConstructor = func(obj *engine.Object, args []engine.Value) (*engine.Object, error) {
			s := stateOf(obj)
			if s == nil {
				return nil, engine.NewTypeException(d.name + " is not a constructor")
			}
			out, handled, err := dispatchConstruct(s, args)
			if !handled {
				return nil, engine.NewTypeException(d.name + " is not a constructor")
			}
			return out, err
		}
	}

	if chainAny(d, func(c *ClassDescriptor) bool { return c.hasInstance != nil }) {
		def.HasInstance = func(obj *engine.Object, candidate engine.Value) bool {
			s := stateOf(obj)
			if s == nil {
				return false
			}
			result, _ := dispatchHasInstance(s, candidate)
			return result
		}
	}

	if chainAny(d, func(c *ClassDescriptor) bool { return c.convertToType != nil }) {
		def.ConvertToType = func(obj *engine.Object, kind engine.Kind) (engine.Value, bool, error) {
			s := stateOf(obj)
			if s == nil {
				return engine.Undefined, false, nil
			}
			v, handled := dispatchConvert(s, kind)
			return v, handled, nil
		}
	}

	return def
}
