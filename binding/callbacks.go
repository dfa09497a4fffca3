package binding

import (
	"github.com/arrix/HAL/engine"
)

// ---------------------------------------------------------------------------
// Typed native callback signatures
// ---------------------------------------------------------------------------

// InitializeCallback runs when an engine object backed by T is created.
// In a class hierarchy the least derived class's callback runs first,
// mirroring base-class-first construction.
type InitializeCallback[T any] func(t *T)

// FinalizeCallback runs when the collector drops the object, most
// derived class first. It may run on a collector goroutine and must not
// create or touch engine values.
type FinalizeCallback[T any] func(t *T)

// HasPropertyCallback answers property-existence probes. Returning
// false forwards the request down the fallback chain.
type HasPropertyCallback[T any] func(t *T, name string) bool

// GetPropertyCallback produces a property value. Returning Undefined
// forwards the request down the fallback chain.
type GetPropertyCallback[T any] func(t *T, name string) engine.Value

// SetPropertyCallback stores a property value. Returning false forwards
// the request down the fallback chain.
type SetPropertyCallback[T any] func(t *T, name string, value engine.Value) bool

// DeletePropertyCallback deletes a property. Returning false forwards
// the request down the fallback chain.
type DeletePropertyCallback[T any] func(t *T, name string) bool

// GetPropertyNamesCallback contributes the names of properties the
// native object manages dynamically (array-index-like properties, for
// example). Names declared through value or function properties are
// added independently and need not be repeated.
type GetPropertyNamesCallback[T any] func(t *T, acc *engine.PropertyNameAccumulator)

// CallAsFunctionCallback runs when the object is called as a function.
type CallAsFunctionCallback[T any] func(t *T, args []engine.Value) (engine.Value, error)

// CallAsFunctionWithThisCallback runs when the object is called as a
// function while being a property of another object; this is that
// other object.
type CallAsFunctionWithThisCallback[T any] func(t *T, this *engine.Object, args []engine.Value) (engine.Value, error)

// CallAsConstructorCallback runs when the object is the target of a
// 'new' expression. Configuring it requires also configuring a
// HasInstanceCallback.
type CallAsConstructorCallback[T any] func(t *T, args []engine.Value) (*engine.Object, error)

// HasInstanceCallback answers 'instanceof' checks against the object.
type HasInstanceCallback[T any] func(t *T, candidate engine.Value) bool

// ConvertToTypeCallback converts the object to a number or string.
// Returning Undefined forwards the conversion to the parent chain and
// then the engine default. Boolean and object conversions never reach
// this callback.
type ConvertToTypeCallback[T any] func(t *T, kind engine.Kind) engine.Value

// GetNamedValueCallback is the getter of a declared value property.
type GetNamedValueCallback[T any] func(t *T) engine.Value

// SetNamedValueCallback is the setter of a declared value property.
// Returning false reports the write as rejected.
type SetNamedValueCallback[T any] func(t *T, value engine.Value) bool

// CallNamedFunctionCallback is the body of a declared function
// property.
type CallNamedFunctionCallback[T any] func(t *T, args []engine.Value) (engine.Value, error)
