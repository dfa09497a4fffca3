// Package binding exports native Go values to the scripting engine.
//
// A ClassBuilder accumulates the configuration of one class: named
// value and function properties, interception callbacks, attributes and
// an optional parent class. Build validates the whole configuration and
// produces an immutable ClassDescriptor; New then exports a native
// instance under that descriptor as a script-visible object whose
// property accesses and invocations route through the class chain
// before the engine's default semantics.
package binding

import (
	"sync"

	"github.com/tliron/commonlog"

	"github.com/arrix/HAL/engine"
)

var log = commonlog.GetLogger("hal.binding")

// ---------------------------------------------------------------------------
// ClassDescriptor: the immutable product of a ClassBuilder
// ---------------------------------------------------------------------------

// valueProperty is one declared named value property, type-erased over
// the native instance. A nil set means the property rejects writes.
type valueProperty struct {
	name  string
	get   func(instance any) engine.Value
	set   func(instance any, v engine.Value) bool
	flags uint32
}

// functionProperty is one declared named function property, type-erased
// over the native instance.
type functionProperty struct {
	name  string
	call  func(instance any, args []engine.Value) (engine.Value, error)
	flags uint32
}

// ClassDescriptor is a validated, immutable class configuration. One
// descriptor backs every engine object exported for its native type;
// descriptors for related classes link through parent, forming an
// acyclic chain toward the least derived class.
//
// A descriptor is safe for concurrent use. It is created only by
// ClassBuilder.Build.
type ClassDescriptor struct {
	name       string
	classFlags uint32
	parent     *ClassDescriptor

	values    map[string]*valueProperty
	functions map[string]*functionProperty

	// Per-class interception callbacks, type-erased. A nil slot means
	// the class does not configure the hook and requests fall through
	// the dispatch chain.
	initialize        func(instance any)
	finalize          func(instance any)
	hasProperty       func(instance any, name string) bool
	getProperty       func(instance any, name string) engine.Value
	setProperty       func(instance any, name string, v engine.Value) bool
	deleteProperty    func(instance any, name string) bool
	getPropertyNames  func(instance any, acc *engine.PropertyNameAccumulator)
	callAsFunction    func(instance any, args []engine.Value) (engine.Value, error)
	callWithThis      func(instance any, this *engine.Object, args []engine.Value) (engine.Value, error)
	callAsConstructor func(instance any, args []engine.Value) (*engine.Object, error)
	hasInstance       func(instance any, candidate engine.Value) bool
	convertToType     func(instance any, kind engine.Kind) engine.Value

	ctx *engine.Context

	registerOnce sync.Once
	class        *engine.Class
	registerErr  error
}

// Name returns the class name.
func (d *ClassDescriptor) Name() string { return d.name }

// Parent returns the descriptor of the parent class, or nil.
func (d *ClassDescriptor) Parent() *ClassDescriptor { return d.parent }

// Context returns the execution context the descriptor registers into.
func (d *ClassDescriptor) Context() *engine.Context { return d.ctx }

// ValuePropertyNames returns the declared value property names, in
// lexicographic order.
func (d *ClassDescriptor) ValuePropertyNames() []string {
	return sortedKeys(d.values)
}

// FunctionPropertyNames returns the declared function property names,
// in lexicographic order.
func (d *ClassDescriptor) FunctionPropertyNames() []string {
	return sortedKeys(d.functions)
}

// lineage returns the descriptor chain ordered least derived first.
func (d *ClassDescriptor) lineage() []*ClassDescriptor {
	var chain []*ClassDescriptor
	for cur := d; cur != nil; cur = cur.parent {
		chain = append(chain, cur)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// register defines the descriptor's compiled class in its context.
// Registration happens at most once; every object created from the
// descriptor shares the resulting class.
func (d *ClassDescriptor) register() (*engine.Class, error) {
	d.registerOnce.Do(func() {
		class, err := d.ctx.DefineClass(d.compile())
		if err != nil {
			d.registerErr = wrapEngineError("define class "+d.name, err)
			log.Errorf("class %q registration failed: %s", d.name, err)
			return
		}
		d.class = class
		log.Infof("registered class %q", d.name)
	})
	return d.class, d.registerErr
}
