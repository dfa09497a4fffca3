package binding

import (
	"errors"
	"testing"

	"github.com/arrix/HAL/engine"
)

type counter struct {
	n        float64
	extras   map[string]engine.Value
	probes   int
	hasCalls int
}

func counterBuilder(ctx *engine.Context) *ClassBuilder[counter] {
	return NewClassBuilder[counter](ctx, "Counter").
		AddValueProperty("count",
			func(c *counter) engine.Value { return engine.FromNumber(c.n) },
			func(c *counter, v engine.Value) bool {
				if !v.IsNumber() {
					return false
				}
				c.n = v.Float64()
				return true
			}).
		AddValueProperty("max",
			func(c *counter) engine.Value { return engine.FromNumber(100) },
			nil,
			ReadOnly).
		AddFunctionProperty("increment", func(c *counter, args []engine.Value) (engine.Value, error) {
			c.n++
			return engine.FromNumber(c.n), nil
		})
}

func mustExport[T any](t *testing.T, d *ClassDescriptor, instance *T) *NativeObject[T] {
	t.Helper()
	n, err := New(d, instance)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return n
}

func mustBuild[T any](t *testing.T, b *ClassBuilder[T]) *ClassDescriptor {
	t.Helper()
	d, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return d
}

func TestDeclaredValueProperty(t *testing.T) {
	ctx := engine.NewContext()
	n := mustExport(t, mustBuild(t, counterBuilder(ctx)), &counter{n: 5})

	v, err := n.GetProperty("count")
	if err != nil {
		t.Fatalf("GetProperty: %v", err)
	}
	if v.Float64() != 5 {
		t.Errorf("expected 5, got %v", v)
	}

	if err := n.SetProperty("count", engine.FromNumber(9)); err != nil {
		t.Fatalf("SetProperty: %v", err)
	}
	if n.Instance().n != 9 {
		t.Errorf("setter should reach the instance, got %v", n.Instance().n)
	}

	// A setter that rejects the value leaves the instance untouched
	// and does not fall through to own storage.
	n.SetProperty("count", engine.FromString("nope"))
	if n.Instance().n != 9 {
		t.Error("rejected write should not change the instance")
	}
	v, _ = n.GetProperty("count")
	if v.Float64() != 9 {
		t.Errorf("rejected write should not shadow, got %v", v)
	}
}

func TestReadOnlyDeclaredProperty(t *testing.T) {
	ctx := engine.NewContext()
	n := mustExport(t, mustBuild(t, counterBuilder(ctx)), &counter{})

	n.SetProperty("max", engine.FromNumber(5))
	v, _ := n.GetProperty("max")
	if v.Float64() != 100 {
		t.Errorf("ReadOnly write should drop silently, got %v", v)
	}

	ok, err := n.DeleteProperty("max")
	if err != nil {
		t.Fatalf("DeleteProperty: %v", err)
	}
	if ok {
		t.Error("declared property delete should report false")
	}
	if has, _ := n.HasProperty("max"); !has {
		t.Error("declared property should survive deletion")
	}
}

func TestFunctionProperty(t *testing.T) {
	ctx := engine.NewContext()
	n := mustExport(t, mustBuild(t, counterBuilder(ctx)), &counter{n: 1})

	v, _ := n.GetProperty("increment")
	fn := v.Object()
	if fn == nil || !fn.IsFunction() {
		t.Fatalf("expected a callable, got %v", v)
	}

	out, err := fn.CallAsFunction(nil, nil)
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if out.Float64() != 2 {
		t.Errorf("expected 2, got %v", out)
	}
	if n.Instance().n != 2 {
		t.Error("function should mutate the instance")
	}

	// Repeated reads hand out the same callable.
	again, _ := n.GetProperty("increment")
	if again.Object() != fn {
		t.Error("function objects should be cached per instance")
	}

	// Writes against a declared function are dropped.
	n.SetProperty("increment", engine.FromNumber(0))
	v, _ = n.GetProperty("increment")
	if v.Object() != fn {
		t.Error("declared function should not be overwritten")
	}
}

func TestDeclaredPrecedesHasCallback(t *testing.T) {
	ctx := engine.NewContext()
	b := counterBuilder(ctx).
		SetHasProperty(func(c *counter, name string) bool {
			c.hasCalls++
			return false
		})
	n := mustExport(t, mustBuild(t, b), &counter{})

	if has, _ := n.HasProperty("count"); !has {
		t.Error("declared property should be present")
	}
	if n.Instance().hasCalls != 0 {
		t.Error("declared names must not reach the has-property callback")
	}

	n.HasProperty("other")
	if n.Instance().hasCalls != 1 {
		t.Error("undeclared names should reach the has-property callback")
	}
}

func TestDynamicCallbacks(t *testing.T) {
	ctx := engine.NewContext()
	b := NewClassBuilder[counter](ctx, "Bag").
		SetGetProperty(func(c *counter, name string) engine.Value {
			c.probes++
			return c.extras[name]
		}).
		SetSetProperty(func(c *counter, name string, v engine.Value) bool {
			if c.extras == nil {
				c.extras = make(map[string]engine.Value)
			}
			c.extras[name] = v
			return true
		}).
		SetDeleteProperty(func(c *counter, name string) bool {
			if _, ok := c.extras[name]; !ok {
				return false
			}
			delete(c.extras, name)
			return true
		})
	n := mustExport(t, mustBuild(t, b), &counter{})

	n.SetProperty("dyn", engine.FromString("v"))
	v, _ := n.GetProperty("dyn")
	if v.Text() != "v" {
		t.Errorf("dynamic property lost, got %v", v)
	}

	// Without a has-property callback, presence probes go through the
	// get-property callback.
	before := n.Instance().probes
	if has, _ := n.HasProperty("dyn"); !has {
		t.Error("dynamic property should be present")
	}
	if n.Instance().probes == before {
		t.Error("presence should be probed through the getter")
	}

	ok, _ := n.DeleteProperty("dyn")
	if !ok {
		t.Error("dynamic delete should succeed")
	}
	if has, _ := n.HasProperty("dyn"); has {
		t.Error("deleted dynamic property should be absent")
	}
}

func TestPropertyNamesDeduplicated(t *testing.T) {
	ctx := engine.NewContext()
	b := NewClassBuilder[counter](ctx, "Named").
		AddValueProperty("x", func(c *counter) engine.Value { return engine.Undefined }, nil).
		AddValueProperty("y", func(c *counter) engine.Value { return engine.Undefined }, nil).
		SetGetPropertyNames(func(c *counter, acc *engine.PropertyNameAccumulator) {
			acc.Add("y")
			acc.Add("z")
		})
	n := mustExport(t, mustBuild(t, b), &counter{})

	names, err := n.PropertyNames()
	if err != nil {
		t.Fatalf("PropertyNames: %v", err)
	}
	if len(names) != 3 || names[0] != "x" || names[1] != "y" || names[2] != "z" {
		t.Errorf("expected [x y z], got %v", names)
	}
}

func TestPropertyNamesDontEnum(t *testing.T) {
	ctx := engine.NewContext()
	b := NewClassBuilder[counter](ctx, "Hidden").
		AddValueProperty("shown", func(c *counter) engine.Value { return engine.Undefined }, nil).
		AddValueProperty("secret", func(c *counter) engine.Value { return engine.Undefined }, nil, DontEnum)
	n := mustExport(t, mustBuild(t, b), &counter{})

	names, _ := n.PropertyNames()
	if len(names) != 1 || names[0] != "shown" {
		t.Errorf("expected [shown], got %v", names)
	}
	// DontEnum hides from enumeration only, not from access.
	if has, _ := n.HasProperty("secret"); !has {
		t.Error("DontEnum property should still be reachable")
	}
}

func TestUnconfiguredInvocation(t *testing.T) {
	ctx := engine.NewContext()
	n := mustExport(t, mustBuild(t, counterBuilder(ctx)), &counter{})

	_, err := n.CallAsFunction()
	var ie *InvocationError
	if !errors.As(err, &ie) {
		t.Fatalf("expected InvocationError, got %v", err)
	}
	if ie.Class != "Counter" {
		t.Errorf("class: %s", ie.Class)
	}

	if _, err := n.CallAsConstructor(); !errors.As(err, &ie) {
		t.Fatalf("expected InvocationError, got %v", err)
	}

	// instanceof against a class with no callback is false, not an error.
	is, err := n.HasInstance(engine.FromNumber(1))
	if err != nil || is {
		t.Errorf("expected false, got %v %v", is, err)
	}
}

func TestCallAndConstruct(t *testing.T) {
	ctx := engine.NewContext()
	b := NewClassBuilder[counter](ctx, "Callable").
		SetCallAsFunction(func(c *counter, args []engine.Value) (engine.Value, error) {
			return engine.FromNumber(float64(len(args))), nil
		}).
		SetCallAsConstructor(func(c *counter, args []engine.Value) (*engine.Object, error) {
			obj, err := ctx.NewObject(nil, nil)
			if err != nil {
				return nil, err
			}
			obj.SetProperty("constructed", engine.FromBool(true))
			return obj, nil
		}).
		SetHasInstance(func(c *counter, candidate engine.Value) bool {
			return candidate.IsObject()
		})
	n := mustExport(t, mustBuild(t, b), &counter{})

	v, err := n.CallAsFunction(engine.FromNumber(1), engine.FromNumber(2))
	if err != nil {
		t.Fatalf("CallAsFunction: %v", err)
	}
	if v.Float64() != 2 {
		t.Errorf("expected 2, got %v", v)
	}

	obj, err := n.CallAsConstructor()
	if err != nil {
		t.Fatalf("CallAsConstructor: %v", err)
	}
	if c, _ := obj.GetProperty("constructed"); !c.Bool() {
		t.Error("constructor result lost")
	}

	is, _ := n.HasInstance(engine.FromObject(obj))
	if !is {
		t.Error("expected instanceof true")
	}
	is, _ = n.HasInstance(engine.FromNumber(1))
	if is {
		t.Error("expected instanceof false")
	}
}

func TestCallWithReceiver(t *testing.T) {
	ctx := engine.NewContext()
	var seen *engine.Object
	b := NewClassBuilder[counter](ctx, "Method").
		SetCallAsFunctionWithThis(func(c *counter, this *engine.Object, args []engine.Value) (engine.Value, error) {
			seen = this
			return engine.FromNumber(c.n), nil
		})
	n := mustExport(t, mustBuild(t, b), &counter{n: 4})

	receiver, _ := ctx.NewObject(nil, nil)
	v, err := n.CallWithThis(receiver)
	if err != nil {
		t.Fatalf("CallWithThis: %v", err)
	}
	if v.Float64() != 4 {
		t.Errorf("expected 4, got %v", v)
	}
	if seen != receiver {
		t.Error("receiver should reach the callback")
	}

	// A with-this-only class still serves bare calls, with no receiver.
	if _, err := n.CallAsFunction(); err != nil {
		t.Fatalf("CallAsFunction: %v", err)
	}
	if seen != nil {
		t.Error("bare call should carry a nil receiver")
	}
}

func TestReceiverVariantPreferred(t *testing.T) {
	ctx := engine.NewContext()
	var bare, withThis int
	b := NewClassBuilder[counter](ctx, "Both").
		SetCallAsFunction(func(c *counter, args []engine.Value) (engine.Value, error) {
			bare++
			return engine.Undefined, nil
		}).
		SetCallAsFunctionWithThis(func(c *counter, this *engine.Object, args []engine.Value) (engine.Value, error) {
			withThis++
			return engine.Undefined, nil
		})
	n := mustExport(t, mustBuild(t, b), &counter{})

	receiver, _ := ctx.NewObject(nil, nil)
	n.CallWithThis(receiver)
	if withThis != 1 || bare != 0 {
		t.Errorf("receiver call should use the with-this variant (bare=%d withThis=%d)", bare, withThis)
	}
	n.CallAsFunction()
	if bare != 1 {
		t.Errorf("bare call should use the plain variant (bare=%d withThis=%d)", bare, withThis)
	}
}

func TestConvertToType(t *testing.T) {
	ctx := engine.NewContext()
	b := counterBuilder(ctx).
		SetConvertToType(func(c *counter, kind engine.Kind) engine.Value {
			if kind == engine.KindNumber {
				return engine.FromNumber(c.n)
			}
			return engine.Undefined
		})
	n := mustExport(t, mustBuild(t, b), &counter{n: 7})

	v, err := n.ConvertToType(engine.KindNumber)
	if err != nil {
		t.Fatalf("ConvertToType: %v", err)
	}
	if v.Float64() != 7 {
		t.Errorf("expected 7, got %v", v)
	}

	// Unclaimed string conversion falls to the engine default.
	v, _ = n.ConvertToType(engine.KindString)
	if v.Text() != "[object Counter]" {
		t.Errorf("expected default display, got %v", v)
	}

	// Boolean conversion never consults the callback.
	v, _ = n.ConvertToType(engine.KindBoolean)
	if !v.Bool() {
		t.Error("object to boolean is always true")
	}
}

func TestEngineStorageFallback(t *testing.T) {
	ctx := engine.NewContext()
	n := mustExport(t, mustBuild(t, counterBuilder(ctx)), &counter{})

	// Undeclared names fall through the whole chain into engine
	// storage and read back from there.
	if err := n.SetProperty("free", engine.FromString("form")); err != nil {
		t.Fatalf("SetProperty: %v", err)
	}
	v, _ := n.GetProperty("free")
	if v.Text() != "form" {
		t.Errorf("expected form, got %v", v)
	}
	ok, _ := n.DeleteProperty("free")
	if !ok {
		t.Error("stored property should delete")
	}
}
