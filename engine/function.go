package engine

// ---------------------------------------------------------------------------
// Native function objects
// ---------------------------------------------------------------------------

// nativeFunc is the private data of a function object.
type nativeFunc struct {
	name string
	fn   func(this *Object, args []Value) (Value, error)
}

// functionClassDef is shared by every function object. It is not
// registered in the context class table; function objects are created
// only through NewFunction.
var functionClassDef = &ClassDefinition{
	Name:       "Function",
	Attributes: ClassFlagNoAutomaticPrototype,
	CallAsFunction: func(obj, this *Object, args []Value) (Value, error) {
		f, ok := obj.Private().(*nativeFunc)
		if !ok {
			return Undefined, NewTypeException("function object has no implementation")
		}
		return f.fn(this, args)
	},
	GetProperty: func(obj *Object, name string) (Value, bool, error) {
		if name == "name" {
			if f, ok := obj.Private().(*nativeFunc); ok {
				return FromString(f.name), true, nil
			}
		}
		return Undefined, false, nil
	},
}

// NewFunction creates a callable object delegating to fn. The name is
// exposed through the object's "name" property.
func (c *Context) NewFunction(name string, fn func(this *Object, args []Value) (Value, error)) *Object {
	c.funcOnce.Do(func() {
		c.funcClass = &Class{def: functionClassDef, ctx: c}
	})
	return c.newObject(c.funcClass, &nativeFunc{name: name, fn: fn})
}

// IsFunction reports whether the object is callable.
func (o *Object) IsFunction() bool {
	def := o.classDef()
	return def != nil && def.CallAsFunction != nil
}
