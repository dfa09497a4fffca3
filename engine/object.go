package engine

import (
	"math"
	"sync"
	"sync/atomic"
)

// ---------------------------------------------------------------------------
// Object: prototype-linked dynamic object
// ---------------------------------------------------------------------------

// propertySlot is one own-property entry: the stored value plus its
// packed attribute flags.
type propertySlot struct {
	value Value
	flags uint32
}

// Object is a heap object managed by the engine's collector.
//
// An object optionally belongs to a class, in which case the class
// definition's callback slots intercept property operations before the
// engine's default semantics apply. Private data carries the native
// binding for objects exported from native code.
type Object struct {
	ctx   *Context
	class *Class
	id    uint32

	mu        sync.Mutex
	proto     *Object
	props     map[string]propertySlot
	propOrder []string
	private   any

	protectCount atomic.Int32
	marked       atomic.Bool // collector working state
}

// Context returns the execution context that owns this object.
func (o *Object) Context() *Context { return o.ctx }

// Class returns the object's class, or nil for plain objects.
func (o *Object) Class() *Class { return o.class }

// ID returns the registry identity of the object.
func (o *Object) ID() uint32 { return o.id }

// Private returns the native data attached at creation time.
func (o *Object) Private() any {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.private
}

// SetPrivate replaces the native data. The collector clears it after
// finalization.
func (o *Object) SetPrivate(data any) {
	o.mu.Lock()
	o.private = data
	o.mu.Unlock()
}

// Prototype returns the object's prototype, or nil.
func (o *Object) Prototype() *Object {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.proto
}

// SetPrototype replaces the object's prototype.
func (o *Object) SetPrototype(proto *Object) {
	o.mu.Lock()
	o.proto = proto
	o.mu.Unlock()
}

// Protect extends the object's lifetime until a matching Unprotect.
// Native code that retains an object beyond a single callback invocation
// must protect it and release it on every exit path.
func (o *Object) Protect() {
	o.protectCount.Add(1)
}

// Unprotect releases one protection. Calls must pair with Protect; an
// unbalanced Unprotect is ignored and cannot absorb a concurrent
// Protect.
func (o *Object) Unprotect() {
	for {
		n := o.protectCount.Load()
		if n <= 0 {
			return
		}
		if o.protectCount.CompareAndSwap(n, n-1) {
			return
		}
	}
}

func (o *Object) displayName() string {
	if o.class != nil && o.class.def.Name != "" {
		return "[object " + o.class.def.Name + "]"
	}
	return "[object Object]"
}

func (o *Object) classDef() *ClassDefinition {
	if o.class == nil {
		return nil
	}
	return o.class.def
}

// ownProperty returns the own-property slot for name, if present.
func (o *Object) ownProperty(name string) (propertySlot, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	slot, ok := o.props[name]
	return slot, ok
}

// DefineOwnProperty creates or replaces an own property, bypassing
// attribute checks. Used by embedders to seed objects.
func (o *Object) DefineOwnProperty(name string, v Value, flags uint32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.storeOwnLocked(name, v, flags)
}

func (o *Object) storeOwnLocked(name string, v Value, flags uint32) {
	if o.props == nil {
		o.props = make(map[string]propertySlot)
	}
	if _, exists := o.props[name]; !exists {
		o.propOrder = append(o.propOrder, name)
	}
	o.props[name] = propertySlot{value: v, flags: flags}
}

func (o *Object) removeOwnLocked(name string) {
	delete(o.props, name)
	for i, n := range o.propOrder {
		if n == name {
			o.propOrder = append(o.propOrder[:i], o.propOrder[i+1:]...)
			break
		}
	}
}

// ---------------------------------------------------------------------------
// Property operations
// ---------------------------------------------------------------------------

// HasProperty reports whether the object or anything on its fallback
// sequence (class slots, own storage, prototype chain) has the property.
func (o *Object) HasProperty(name string) (bool, error) {
	if def := o.classDef(); def != nil {
		if def.HasProperty != nil {
			present, handled, err := def.HasProperty(o, name)
			if err != nil {
				return false, err
			}
			if handled {
				return present, nil
			}
		} else if def.GetProperty != nil {
			// No has slot: probe the get slot and treat a defined
			// result as presence.
			v, handled, err := def.GetProperty(o, name)
			if err != nil {
				return false, err
			}
			if handled && !v.IsUndefined() {
				return true, nil
			}
		}
	}
	if _, ok := o.ownProperty(name); ok {
		return true, nil
	}
	if proto := o.Prototype(); proto != nil {
		return proto.HasProperty(name)
	}
	return false, nil
}

// GetProperty returns the property value, or Undefined when absent.
func (o *Object) GetProperty(name string) (Value, error) {
	if def := o.classDef(); def != nil && def.GetProperty != nil {
		v, handled, err := def.GetProperty(o, name)
		if err != nil {
			return Undefined, err
		}
		if handled {
			return v, nil
		}
	}
	if slot, ok := o.ownProperty(name); ok {
		return slot.value, nil
	}
	if proto := o.Prototype(); proto != nil {
		return proto.GetProperty(name)
	}
	return Undefined, nil
}

// SetProperty writes a property. Writes rejected by a ReadOnly
// attribute are silently dropped, per dynamic-object convention.
func (o *Object) SetProperty(name string, v Value) error {
	if def := o.classDef(); def != nil && def.SetProperty != nil {
		handled, err := def.SetProperty(o, name, v)
		if err != nil {
			return err
		}
		if handled {
			return nil
		}
	}

	o.mu.Lock()
	if slot, ok := o.props[name]; ok {
		if slot.flags&PropFlagReadOnly != 0 {
			o.mu.Unlock()
			return nil // silent rejection
		}
		o.storeOwnLocked(name, v, slot.flags)
		o.mu.Unlock()
		return nil
	}
	o.mu.Unlock()

	// Walk the prototype chain: a claiming setter slot or a ReadOnly
	// property anywhere on the chain blocks the write.
	for proto := o.Prototype(); proto != nil; proto = proto.Prototype() {
		if def := proto.classDef(); def != nil && def.SetProperty != nil {
			handled, err := def.SetProperty(proto, name, v)
			if err != nil {
				return err
			}
			if handled {
				return nil
			}
		}
		if slot, ok := proto.ownProperty(name); ok {
			if slot.flags&PropFlagReadOnly != 0 {
				return nil
			}
			break // writable on the chain: shadow with an own property
		}
	}

	o.mu.Lock()
	o.storeOwnLocked(name, v, PropFlagNone)
	o.mu.Unlock()
	return nil
}

// DeleteProperty removes an own property. Deleting an absent property
// succeeds as a no-op; DontDelete reports failure.
func (o *Object) DeleteProperty(name string) (bool, error) {
	if def := o.classDef(); def != nil && def.DeleteProperty != nil {
		result, handled, err := def.DeleteProperty(o, name)
		if err != nil {
			return false, err
		}
		if handled {
			return result, nil
		}
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	slot, ok := o.props[name]
	if !ok {
		return true, nil
	}
	if slot.flags&PropFlagDontDelete != 0 {
		return false, nil
	}
	o.removeOwnLocked(name)
	return true, nil
}

// PropertyNames returns the enumerable property names visible on the
// object: class-contributed names, own storage, then the prototype
// chain, deduplicated in that order.
func (o *Object) PropertyNames() []string {
	acc := NewPropertyNameAccumulator()
	o.accumulateNames(acc)
	return acc.Names()
}

func (o *Object) accumulateNames(acc *PropertyNameAccumulator) {
	if def := o.classDef(); def != nil && def.GetPropertyNames != nil {
		def.GetPropertyNames(o, acc)
	}
	o.mu.Lock()
	for _, name := range o.propOrder {
		if o.props[name].flags&PropFlagDontEnum == 0 {
			acc.Add(name)
		}
	}
	proto := o.proto
	o.mu.Unlock()
	if proto != nil {
		proto.accumulateNames(acc)
	}
}

// ---------------------------------------------------------------------------
// Invocation
// ---------------------------------------------------------------------------

// CallAsFunction invokes the object as a function. this may be nil for
// a bare call.
func (o *Object) CallAsFunction(this *Object, args []Value) (Value, error) {
	if def := o.classDef(); def != nil && def.CallAsFunction != nil {
		return def.CallAsFunction(o, this, args)
	}
	return Undefined, NewTypeException(o.displayName() + " is not a function")
}

// CallAsConstructor invokes the object as a constructor.
func (o *Object) CallAsConstructor(args []Value) (*Object, error) {
	if def := o.classDef(); def != nil && def.CallAsConstructor != nil {
		return def.CallAsConstructor(o, args)
	}
	return nil, NewTypeException(o.displayName() + " is not a constructor")
}

// HasInstance answers an instanceof check against this object. An
// object without a has-instance slot reports false, never an error.
func (o *Object) HasInstance(candidate Value) bool {
	if def := o.classDef(); def != nil && def.HasInstance != nil {
		return def.HasInstance(o, candidate)
	}
	return false
}

// ConvertToType converts the object to a primitive kind. Boolean
// conversion of any object is true and object conversion is identity;
// neither consults the class slot. Number and string conversions try
// the slot first, then the engine defaults.
func (o *Object) ConvertToType(kind Kind) (Value, error) {
	switch kind {
	case KindBoolean:
		return FromBool(true), nil
	case KindObject:
		return FromObject(o), nil
	case KindNumber, KindString:
		if def := o.classDef(); def != nil && def.ConvertToType != nil {
			v, handled, err := def.ConvertToType(o, kind)
			if err != nil {
				return Undefined, err
			}
			if handled && !v.IsUndefined() {
				return v, nil
			}
		}
		if kind == KindNumber {
			return FromNumber(math.NaN()), nil
		}
		return FromString(o.displayName()), nil
	default:
		return Undefined, NewTypeException("cannot convert object to " + kind.String())
	}
}
