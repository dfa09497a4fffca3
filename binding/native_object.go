package binding

import (
	"github.com/arrix/HAL/engine"
)

// ---------------------------------------------------------------------------
// NativeObject: the engine handle of one exported native instance
// ---------------------------------------------------------------------------

// NativeObject ties one native instance of T to the engine object
// exported for it. Property and invocation operations route through the
// descriptor chain before the engine's default semantics.
//
// Once the collector finalizes the underlying object every operation
// reports an InvalidStateError; the native instance itself stays
// reachable through Instance for teardown code that still holds the
// handle.
type NativeObject[T any] struct {
	desc     *ClassDescriptor
	instance *T
	state    *nativeState
}

// New exports instance under the class the descriptor describes. The
// descriptor's class is registered with the engine on first use; the
// initialize callbacks of the class chain run, least derived first,
// before New returns.
func New[T any](d *ClassDescriptor, instance *T) (*NativeObject[T], error) {
	if d == nil {
		return nil, configErrorf("descriptor", "nil class descriptor")
	}
	if instance == nil {
		return nil, configErrorf("instance", "class %q: nil native instance", d.name)
	}
	class, err := d.register()
	if err != nil {
		return nil, err
	}
	state := &nativeState{desc: d, instance: instance}
	obj, err := d.ctx.NewObject(class, state)
	if err != nil {
		return nil, wrapEngineError("create "+d.name, err)
	}
	state.mu.Lock()
	state.object = obj
	state.mu.Unlock()
	log.Debugf("exported %q instance as object %d", d.name, obj.ID())
	return &NativeObject[T]{desc: d, instance: instance, state: state}, nil
}

// Instance returns the native instance.
func (n *NativeObject[T]) Instance() *T { return n.instance }

// Descriptor returns the class descriptor the object was created from.
func (n *NativeObject[T]) Descriptor() *ClassDescriptor { return n.desc }

// Object returns the engine object, or nil after finalization.
func (n *NativeObject[T]) Object() *engine.Object {
	n.state.mu.Lock()
	defer n.state.mu.Unlock()
	return n.state.object
}

// live returns the engine object or an InvalidStateError.
func (n *NativeObject[T]) live(op string) (*engine.Object, error) {
	n.state.mu.Lock()
	defer n.state.mu.Unlock()
	if n.state.finalized || n.state.object == nil {
		return nil, &InvalidStateError{Class: n.desc.name, Op: op}
	}
	return n.state.object, nil
}

// HasProperty reports whether the exported object has the property,
// consulting the descriptor chain before the engine's own storage and
// prototype chain.
func (n *NativeObject[T]) HasProperty(name string) (bool, error) {
	obj, err := n.live("HasProperty")
	if err != nil {
		return false, err
	}
	return obj.HasProperty(name)
}

// GetProperty returns the property value, or Undefined when absent.
func (n *NativeObject[T]) GetProperty(name string) (engine.Value, error) {
	obj, err := n.live("GetProperty")
	if err != nil {
		return engine.Undefined, err
	}
	return obj.GetProperty(name)
}

// SetProperty writes a property. Writes rejected by a declared
// ReadOnly property are dropped without error.
func (n *NativeObject[T]) SetProperty(name string, v engine.Value) error {
	obj, err := n.live("SetProperty")
	if err != nil {
		return err
	}
	return obj.SetProperty(name, v)
}

// DeleteProperty deletes a property, reporting whether the delete took
// effect. Declared properties always report false.
func (n *NativeObject[T]) DeleteProperty(name string) (bool, error) {
	obj, err := n.live("DeleteProperty")
	if err != nil {
		return false, err
	}
	return obj.DeleteProperty(name)
}

// PropertyNames returns the enumerable property names visible on the
// exported object.
func (n *NativeObject[T]) PropertyNames() ([]string, error) {
	obj, err := n.live("PropertyNames")
	if err != nil {
		return nil, err
	}
	return obj.PropertyNames(), nil
}

// CallAsFunction invokes the object as a function. Without a call
// callback anywhere on the class chain the invocation fails with an
// InvocationError.
func (n *NativeObject[T]) CallAsFunction(args ...engine.Value) (engine.Value, error) {
	return n.CallWithThis(nil, args...)
}

// CallWithThis invokes the object as a function with an explicit
// receiver.
func (n *NativeObject[T]) CallWithThis(this *engine.Object, args ...engine.Value) (engine.Value, error) {
	obj, err := n.live("CallAsFunction")
	if err != nil {
		return engine.Undefined, err
	}
	if !chainAny(n.desc, func(c *ClassDescriptor) bool {
		return c.callAsFunction != nil || c.callWithThis != nil
	}) {
		return engine.Undefined, &InvocationError{Class: n.desc.name, Op: "object is not callable"}
	}
	return obj.CallAsFunction(this, args)
}

// CallAsConstructor invokes the object as the target of a 'new'
// expression. Without a constructor callback anywhere on the class
// chain the invocation fails with an InvocationError.
func (n *NativeObject[T]) CallAsConstructor(args ...engine.Value) (*engine.Object, error) {
	obj, err := n.live("CallAsConstructor")
	if err != nil {
		return nil, err
	}
	if !chainAny(n.desc, func(c *ClassDescriptor) bool { return c.callAsConstructor != nil }) {
		return nil, &InvocationError{Class: n.desc.name, Op: "object is not a constructor"}
	}
	return obj.CallAsConstructor(args)
}

// HasInstance answers an instanceof check against the exported object.
func (n *NativeObject[T]) HasInstance(candidate engine.Value) (bool, error) {
	obj, err := n.live("HasInstance")
	if err != nil {
		return false, err
	}
	return obj.HasInstance(candidate), nil
}

// ConvertToType converts the exported object to a primitive kind.
func (n *NativeObject[T]) ConvertToType(kind engine.Kind) (engine.Value, error) {
	obj, err := n.live("ConvertToType")
	if err != nil {
		return engine.Undefined, err
	}
	return obj.ConvertToType(kind)
}

// Protect pins the exported object against collection until a matching
// Unprotect.
func (n *NativeObject[T]) Protect() error {
	obj, err := n.live("Protect")
	if err != nil {
		return err
	}
	obj.Protect()
	return nil
}

// Unprotect releases one protection taken with Protect.
func (n *NativeObject[T]) Unprotect() error {
	obj, err := n.live("Unprotect")
	if err != nil {
		return err
	}
	obj.Unprotect()
	return nil
}

// Finalized reports whether the collector has finalized the object.
func (n *NativeObject[T]) Finalized() bool {
	return n.state.isFinalized()
}
