package binding

import (
	"reflect"
	"sync"

	"github.com/arrix/HAL/engine"
	"github.com/arrix/HAL/manifest"
)

// ---------------------------------------------------------------------------
// ClassBuilder: fluent, validated class configuration
// ---------------------------------------------------------------------------

type typedValueProperty[T any] struct {
	name  string
	get   GetNamedValueCallback[T]
	set   SetNamedValueCallback[T]
	attrs []PropertyAttribute
}

type typedFunctionProperty[T any] struct {
	name  string
	call  CallNamedFunctionCallback[T]
	attrs []PropertyAttribute
}

// ClassBuilder accumulates the configuration of a class exported for
// the native type T. Setters are chainable and may run from multiple
// goroutines; Build validates the whole configuration and produces an
// immutable ClassDescriptor, or a ConfigurationError naming the first
// violated rule.
//
// In a class hierarchy every callback of every class on the chain
// receives the same native instance. A parent class built over a
// different native type recovers its view of the instance through an
// embedded field of that type, mirroring derived-to-base conversion.
type ClassBuilder[T any] struct {
	mu     sync.Mutex
	ctx    *engine.Context
	name   string
	attrs  []ClassAttribute
	parent *ClassDescriptor

	values    map[string]*typedValueProperty[T]
	functions map[string]*typedFunctionProperty[T]

	initialize        InitializeCallback[T]
	finalize          FinalizeCallback[T]
	hasProperty       HasPropertyCallback[T]
	getProperty       GetPropertyCallback[T]
	setProperty       SetPropertyCallback[T]
	deleteProperty    DeletePropertyCallback[T]
	getPropertyNames  GetPropertyNamesCallback[T]
	callAsFunction    CallAsFunctionCallback[T]
	callWithThis      CallAsFunctionWithThisCallback[T]
	callAsConstructor CallAsConstructorCallback[T]
	hasInstance       HasInstanceCallback[T]
	convertToType     ConvertToTypeCallback[T]
}

// NewClassBuilder starts a class configuration for native type T in the
// given context.
func NewClassBuilder[T any](ctx *engine.Context, name string) *ClassBuilder[T] {
	if ctx == nil {
		panic("binding: nil context")
	}
	return &ClassBuilder[T]{
		ctx:       ctx,
		name:      name,
		values:    make(map[string]*typedValueProperty[T]),
		functions: make(map[string]*typedFunctionProperty[T]),
	}
}

// SetName replaces the class name.
func (b *ClassBuilder[T]) SetName(name string) *ClassBuilder[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.name = name
	return b
}

// SetAttributes replaces the class attributes.
func (b *ClassBuilder[T]) SetAttributes(attrs ...ClassAttribute) *ClassBuilder[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.attrs = append([]ClassAttribute(nil), attrs...)
	return b
}

// SetParent links the class under an already-built parent descriptor.
func (b *ClassBuilder[T]) SetParent(parent *ClassDescriptor) *ClassBuilder[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.parent = parent
	return b
}

// AddValueProperty declares a named value property. The getter is
// required; a nil setter makes the property reject writes. Declaring a
// name again replaces the earlier value-property declaration.
func (b *ClassBuilder[T]) AddValueProperty(name string, get GetNamedValueCallback[T], set SetNamedValueCallback[T], attrs ...PropertyAttribute) *ClassBuilder[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.values[name] = &typedValueProperty[T]{
		name:  name,
		get:   get,
		set:   set,
		attrs: append([]PropertyAttribute(nil), attrs...),
	}
	return b
}

// RemoveValueProperty withdraws a declared value property.
func (b *ClassBuilder[T]) RemoveValueProperty(name string) *ClassBuilder[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.values, name)
	return b
}

// AddFunctionProperty declares a named function property. Declaring a
// name again replaces the earlier function-property declaration.
func (b *ClassBuilder[T]) AddFunctionProperty(name string, call CallNamedFunctionCallback[T], attrs ...PropertyAttribute) *ClassBuilder[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.functions[name] = &typedFunctionProperty[T]{
		name:  name,
		call:  call,
		attrs: append([]PropertyAttribute(nil), attrs...),
	}
	return b
}

// RemoveFunctionProperty withdraws a declared function property.
func (b *ClassBuilder[T]) RemoveFunctionProperty(name string) *ClassBuilder[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.functions, name)
	return b
}

// SetInitialize installs the instance initialization callback.
func (b *ClassBuilder[T]) SetInitialize(cb InitializeCallback[T]) *ClassBuilder[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.initialize = cb
	return b
}

// SetFinalize installs the instance finalization callback.
func (b *ClassBuilder[T]) SetFinalize(cb FinalizeCallback[T]) *ClassBuilder[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.finalize = cb
	return b
}

// SetHasProperty installs the property-existence callback.
func (b *ClassBuilder[T]) SetHasProperty(cb HasPropertyCallback[T]) *ClassBuilder[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hasProperty = cb
	return b
}

// SetGetProperty installs the dynamic property getter callback.
func (b *ClassBuilder[T]) SetGetProperty(cb GetPropertyCallback[T]) *ClassBuilder[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.getProperty = cb
	return b
}

// SetSetProperty installs the dynamic property setter callback.
func (b *ClassBuilder[T]) SetSetProperty(cb SetPropertyCallback[T]) *ClassBuilder[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.setProperty = cb
	return b
}

// SetDeleteProperty installs the dynamic property delete callback.
func (b *ClassBuilder[T]) SetDeleteProperty(cb DeletePropertyCallback[T]) *ClassBuilder[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleteProperty = cb
	return b
}

// SetGetPropertyNames installs the dynamic enumeration callback.
func (b *ClassBuilder[T]) SetGetPropertyNames(cb GetPropertyNamesCallback[T]) *ClassBuilder[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.getPropertyNames = cb
	return b
}

// SetCallAsFunction installs the bare function-call callback.
func (b *ClassBuilder[T]) SetCallAsFunction(cb CallAsFunctionCallback[T]) *ClassBuilder[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.callAsFunction = cb
	return b
}

// SetCallAsFunctionWithThis installs the function-call callback used
// when the object is invoked through a receiver.
func (b *ClassBuilder[T]) SetCallAsFunctionWithThis(cb CallAsFunctionWithThisCallback[T]) *ClassBuilder[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.callWithThis = cb
	return b
}

// SetCallAsConstructor installs the 'new' expression callback.
// Building with a constructor also requires SetHasInstance.
func (b *ClassBuilder[T]) SetCallAsConstructor(cb CallAsConstructorCallback[T]) *ClassBuilder[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.callAsConstructor = cb
	return b
}

// SetHasInstance installs the instanceof callback.
func (b *ClassBuilder[T]) SetHasInstance(cb HasInstanceCallback[T]) *ClassBuilder[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hasInstance = cb
	return b
}

// SetConvertToType installs the number and string conversion callback.
func (b *ClassBuilder[T]) SetConvertToType(cb ConvertToTypeCallback[T]) *ClassBuilder[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.convertToType = cb
	return b
}

// Clone returns an independent copy of the builder's current state.
func (b *ClassBuilder[T]) Clone() *ClassBuilder[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := &ClassBuilder[T]{
		ctx:               b.ctx,
		name:              b.name,
		attrs:             append([]ClassAttribute(nil), b.attrs...),
		parent:            b.parent,
		values:            make(map[string]*typedValueProperty[T], len(b.values)),
		functions:         make(map[string]*typedFunctionProperty[T], len(b.functions)),
		initialize:        b.initialize,
		finalize:          b.finalize,
		hasProperty:       b.hasProperty,
		getProperty:       b.getProperty,
		setProperty:       b.setProperty,
		deleteProperty:    b.deleteProperty,
		getPropertyNames:  b.getPropertyNames,
		callAsFunction:    b.callAsFunction,
		callWithThis:      b.callWithThis,
		callAsConstructor: b.callAsConstructor,
		hasInstance:       b.hasInstance,
		convertToType:     b.convertToType,
	}
	for name, vp := range b.values {
		cp := *vp
		out.values[name] = &cp
	}
	for name, fp := range b.functions {
		cp := *fp
		out.functions[name] = &cp
	}
	return out
}

// ApplyManifest overlays attribute configuration from a manifest class
// entry: class attributes and per-property attributes. Every property
// the manifest names must already be declared on the builder.
func (b *ClassBuilder[T]) ApplyManifest(cfg *manifest.ClassConfig) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	attrs := make([]ClassAttribute, 0, len(cfg.Attributes))
	for _, name := range cfg.Attributes {
		a, ok := ParseClassAttribute(name)
		if !ok {
			return configErrorf("manifest-attribute", "class %q: unknown class attribute %q", cfg.Name, name)
		}
		attrs = append(attrs, a)
	}
	for _, pc := range cfg.Properties {
		pattrs := make([]PropertyAttribute, 0, len(pc.Attributes))
		for _, name := range pc.Attributes {
			a, ok := ParsePropertyAttribute(name)
			if !ok {
				return configErrorf("manifest-attribute", "class %q property %q: unknown property attribute %q", cfg.Name, pc.Name, name)
			}
			pattrs = append(pattrs, a)
		}
		if vp, ok := b.values[pc.Name]; ok {
			vp.attrs = pattrs
		} else if fp, ok := b.functions[pc.Name]; ok {
			fp.attrs = pattrs
		} else {
			return configErrorf("manifest-property", "class %q: manifest names undeclared property %q", cfg.Name, pc.Name)
		}
	}
	b.attrs = append(b.attrs, attrs...)
	return nil
}

// Build validates the configuration and produces the immutable class
// descriptor. The builder stays usable afterwards; the descriptor does
// not observe later mutations.
func (b *ClassBuilder[T]) Build() (*ClassDescriptor, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.name == "" {
		return nil, configErrorf("class-name", "class has no name")
	}
	for name := range b.values {
		if name == "" {
			return nil, configErrorf("property-name", "class %q declares a value property with an empty name", b.name)
		}
		if _, clash := b.functions[name]; clash {
			return nil, configErrorf("duplicate-property", "class %q declares %q as both a value and a function property", b.name, name)
		}
	}
	for name := range b.functions {
		if name == "" {
			return nil, configErrorf("property-name", "class %q declares a function property with an empty name", b.name)
		}
	}
	for name, vp := range b.values {
		if vp.get == nil {
			return nil, configErrorf("value-property-getter", "class %q value property %q has no getter", b.name, name)
		}
	}
	for name, fp := range b.functions {
		if fp.call == nil {
			return nil, configErrorf("function-property-callable", "class %q function property %q has no callable", b.name, name)
		}
	}
	if (b.callAsConstructor == nil) != (b.hasInstance == nil) {
		return nil, configErrorf("constructor-pairing", "class %q must configure a constructor and an instanceof callback together", b.name)
	}

	d := &ClassDescriptor{
		name:       b.name,
		classFlags: PackClassAttributes(b.attrs...),
		parent:     b.parent,
		ctx:        b.ctx,
		values:     make(map[string]*valueProperty, len(b.values)),
		functions:  make(map[string]*functionProperty, len(b.functions)),
	}

	for name, vp := range b.values {
		get := vp.get
		d.values[name] = &valueProperty{
			name:  name,
			get:   eraseGet(get),
			set:   eraseSet(vp.set),
			flags: PackPropertyAttributes(vp.attrs...),
		}
	}
	for name, fp := range b.functions {
		d.functions[name] = &functionProperty{
			name:  name,
			call:  eraseCall(b.name, fp.call),
			flags: PackPropertyAttributes(fp.attrs...),
		}
	}

	if cb := b.initialize; cb != nil {
		d.initialize = func(v any) {
			if t := instanceAs[T](v); t != nil {
				cb(t)
			}
		}
	}
	if cb := b.finalize; cb != nil {
		d.finalize = func(v any) {
			if t := instanceAs[T](v); t != nil {
				cb(t)
			}
		}
	}
	if cb := b.hasProperty; cb != nil {
		d.hasProperty = func(v any, name string) bool {
			t := instanceAs[T](v)
			return t != nil && cb(t, name)
		}
	}
	if cb := b.getProperty; cb != nil {
		d.getProperty = func(v any, name string) engine.Value {
			if t := instanceAs[T](v); t != nil {
				return cb(t, name)
			}
			return engine.Undefined
		}
	}
	if cb := b.setProperty; cb != nil {
		d.setProperty = func(v any, name string, value engine.Value) bool {
			t := instanceAs[T](v)
			return t != nil && cb(t, name, value)
		}
	}
	if cb := b.deleteProperty; cb != nil {
		d.deleteProperty = func(v any, name string) bool {
			t := instanceAs[T](v)
			return t != nil && cb(t, name)
		}
	}
	if cb := b.getPropertyNames; cb != nil {
		d.getPropertyNames = func(v any, acc *engine.PropertyNameAccumulator) {
			if t := instanceAs[T](v); t != nil {
				cb(t, acc)
			}
		}
	}
	if cb := b.callAsFunction; cb != nil {
		d.callAsFunction = eraseCall(b.name, CallNamedFunctionCallback[T](cb))
	}
	if cb := b.callWithThis; cb != nil {
		className := b.name
		d.callWithThis = func(v any, this *engine.Object, args []engine.Value) (engine.Value, error) {
			t := instanceAs[T](v)
			if t == nil {
				return engine.Undefined, &InvalidStateError{Class: className, Op: "call"}
			}
			return cb(t, this, args)
		}
	}
	if cb := b.callAsConstructor; cb != nil {
		className := b.name
		d.callAsConstructor = func(v any, args []engine.Value) (*engine.Object, error) {
			t := instanceAs[T](v)
			if t == nil {
				return nil, &InvalidStateError{Class: className, Op: "construct"}
			}
			return cb(t, args)
		}
	}
	if cb := b.hasInstance; cb != nil {
		d.hasInstance = func(v any, candidate engine.Value) bool {
			t := instanceAs[T](v)
			return t != nil && cb(t, candidate)
		}
	}
	if cb := b.convertToType; cb != nil {
		d.convertToType = func(v any, kind engine.Kind) engine.Value {
			if t := instanceAs[T](v); t != nil {
				return cb(t, kind)
			}
			return engine.Undefined
		}
	}

	log.Debugf("built class %q (%d value, %d function properties)", d.name, len(d.values), len(d.functions))
	return d, nil
}

// ---------------------------------------------------------------------------
// Type erasure
// ---------------------------------------------------------------------------

func eraseGet[T any](cb GetNamedValueCallback[T]) func(any) engine.Value {
	return func(v any) engine.Value {
		if t := instanceAs[T](v); t != nil {
			return cb(t)
		}
		return engine.Undefined
	}
}

func eraseSet[T any](cb SetNamedValueCallback[T]) func(any, engine.Value) bool {
	if cb == nil {
		return nil
	}
	return func(v any, value engine.Value) bool {
		t := instanceAs[T](v)
		return t != nil && cb(t, value)
	}
}

func eraseCall[T any](class string, cb CallNamedFunctionCallback[T]) func(any, []engine.Value) (engine.Value, error) {
	return func(v any, args []engine.Value) (engine.Value, error) {
		t := instanceAs[T](v)
		if t == nil {
			return engine.Undefined, &InvalidStateError{Class: class, Op: "call"}
		}
		return cb(t, args)
	}
}

// instanceAs recovers a parent class's view of a shared native
// instance. A direct match is the common case; otherwise an embedded
// field of the wanted type is located, which is how a derived native
// type exposes its base.
func instanceAs[T any](v any) *T {
	if t, ok := v.(*T); ok {
		return t
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return nil
	}
	want := reflect.TypeOf((*T)(nil)).Elem()
	if field := embeddedField(rv.Elem(), want); field.IsValid() {
		return field.Addr().Interface().(*T)
	}
	return nil
}

// embeddedField finds an addressable embedded field of the wanted type,
// searching anonymous struct fields depth-first.
func embeddedField(rv reflect.Value, want reflect.Type) reflect.Value {
	if rv.Kind() != reflect.Struct {
		return reflect.Value{}
	}
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.Anonymous {
			continue
		}
		fv := rv.Field(i)
		if f.Type == want && fv.CanAddr() {
			return fv
		}
		if inner := embeddedField(fv, want); inner.IsValid() {
			return inner
		}
	}
	return reflect.Value{}
}
