package binding

import (
	"errors"
	"testing"

	"github.com/arrix/HAL/engine"
)

type device struct {
	events *[]string
	id     string
}

type sensor struct {
	device
	unit string
}

type thermometer struct {
	sensor
	degrees float64
}

func (d *device) record(event string) {
	if d.events != nil {
		*d.events = append(*d.events, event)
	}
}

// buildHierarchy wires a three-level class chain sharing one native
// instance: Device <- Sensor <- Thermometer.
func buildHierarchy(t *testing.T, ctx *engine.Context) *ClassDescriptor {
	t.Helper()

	deviceD := mustBuild(t, NewClassBuilder[device](ctx, "Device").
		SetInitialize(func(d *device) { d.record("init Device") }).
		SetFinalize(func(d *device) { d.record("final Device") }).
		AddValueProperty("id",
			func(d *device) engine.Value { return engine.FromString(d.id) },
			nil))

	sensorD := mustBuild(t, NewClassBuilder[sensor](ctx, "Sensor").
		SetParent(deviceD).
		SetInitialize(func(s *sensor) { s.record("init Sensor") }).
		SetFinalize(func(s *sensor) { s.record("final Sensor") }).
		AddValueProperty("unit",
			func(s *sensor) engine.Value { return engine.FromString(s.unit) },
			nil))

	return mustBuild(t, NewClassBuilder[thermometer](ctx, "Thermometer").
		SetParent(sensorD).
		SetInitialize(func(th *thermometer) { th.record("init Thermometer") }).
		SetFinalize(func(th *thermometer) { th.record("final Thermometer") }).
		AddValueProperty("degrees",
			func(th *thermometer) engine.Value { return engine.FromNumber(th.degrees) },
			func(th *thermometer, v engine.Value) bool {
				th.degrees = v.Float64()
				return true
			}))
}

func newThermometer(events *[]string) *thermometer {
	th := &thermometer{degrees: 21.5}
	th.events = events
	th.id = "t-1"
	th.unit = "C"
	return th
}

func TestInitializeOrder(t *testing.T) {
	ctx := engine.NewContext()
	var events []string
	mustExport(t, buildHierarchy(t, ctx), newThermometer(&events))

	want := []string{"init Device", "init Sensor", "init Thermometer"}
	if len(events) != len(want) {
		t.Fatalf("events: %v", events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("initialize order: %v", events)
		}
	}
}

func TestParentChainProperties(t *testing.T) {
	ctx := engine.NewContext()
	var events []string
	n := mustExport(t, buildHierarchy(t, ctx), newThermometer(&events))

	// Declared properties of every class on the chain resolve against
	// the one shared instance.
	if v, _ := n.GetProperty("degrees"); v.Float64() != 21.5 {
		t.Errorf("degrees: %v", v)
	}
	if v, _ := n.GetProperty("unit"); v.Text() != "C" {
		t.Errorf("unit: %v", v)
	}
	if v, _ := n.GetProperty("id"); v.Text() != "t-1" {
		t.Errorf("id: %v", v)
	}

	names, _ := n.PropertyNames()
	if len(names) != 3 || names[0] != "degrees" || names[1] != "unit" || names[2] != "id" {
		t.Errorf("expected derived-first names, got %v", names)
	}
}

func TestChildOverridesParent(t *testing.T) {
	ctx := engine.NewContext()

	parentD := mustBuild(t, NewClassBuilder[device](ctx, "Base").
		AddValueProperty("kind",
			func(d *device) engine.Value { return engine.FromString("base") },
			nil))
	childD := mustBuild(t, NewClassBuilder[sensor](ctx, "Derived").
		SetParent(parentD).
		AddValueProperty("kind",
			func(s *sensor) engine.Value { return engine.FromString("derived") },
			nil))

	n := mustExport(t, childD, &sensor{})
	if v, _ := n.GetProperty("kind"); v.Text() != "derived" {
		t.Errorf("most derived declaration should win, got %v", v)
	}
}

func TestFinalizeOrder(t *testing.T) {
	group := engine.NewContextGroup()
	ctx := group.NewContext()
	var events []string
	mustExport(t, buildHierarchy(t, ctx), newThermometer(&events))

	events = events[:0]
	group.Collector().CollectNow()

	want := []string{"final Thermometer", "final Sensor", "final Device"}
	if len(events) != len(want) {
		t.Fatalf("events: %v", events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("finalize order: %v", events)
		}
	}
}

func TestFinalizedHandle(t *testing.T) {
	group := engine.NewContextGroup()
	ctx := group.NewContext()
	var events []string
	n := mustExport(t, buildHierarchy(t, ctx), newThermometer(&events))

	group.Collector().CollectNow()
	if !n.Finalized() {
		t.Fatal("expected finalized")
	}
	if n.Object() != nil {
		t.Error("finalized handle should expose no engine object")
	}
	// The native instance stays reachable for teardown code.
	if n.Instance() == nil || n.Instance().id != "t-1" {
		t.Error("instance should survive finalization")
	}

	var ise *InvalidStateError
	if _, err := n.GetProperty("degrees"); !errors.As(err, &ise) {
		t.Errorf("GetProperty after finalize: %v", err)
	}
	if err := n.SetProperty("degrees", engine.FromNumber(1)); !errors.As(err, &ise) {
		t.Errorf("SetProperty after finalize: %v", err)
	}
	if _, err := n.CallAsFunction(); !errors.As(err, &ise) {
		t.Errorf("CallAsFunction after finalize: %v", err)
	}
	if err := n.Protect(); !errors.As(err, &ise) {
		t.Errorf("Protect after finalize: %v", err)
	}
}

func TestRetainedFunctionAfterFinalize(t *testing.T) {
	group := engine.NewContextGroup()
	ctx := group.NewContext()
	n := mustExport(t, mustBuild(t, counterBuilder(ctx)), &counter{n: 3})

	v, err := n.GetProperty("increment")
	if err != nil {
		t.Fatalf("GetProperty: %v", err)
	}
	fn := v.Object()
	fn.Protect()
	defer fn.Unprotect()

	group.Collector().CollectNow()
	if !n.Finalized() {
		t.Fatal("owner should be collected")
	}

	// The pinned callable survives its owner but must refuse to run
	// against the finalized instance.
	_, err = fn.CallAsFunction(nil, nil)
	var ise *InvalidStateError
	if !errors.As(err, &ise) {
		t.Fatalf("expected InvalidStateError, got %v", err)
	}
	if n.Instance().n != 3 {
		t.Errorf("finalized instance must not be mutated, got %v", n.Instance().n)
	}
}

func TestProtectPinsObject(t *testing.T) {
	group := engine.NewContextGroup()
	ctx := group.NewContext()
	var events []string
	n := mustExport(t, buildHierarchy(t, ctx), newThermometer(&events))

	if err := n.Protect(); err != nil {
		t.Fatalf("Protect: %v", err)
	}
	group.Collector().CollectNow()
	if n.Finalized() {
		t.Fatal("protected object should survive collection")
	}
	if v, _ := n.GetProperty("unit"); v.Text() != "C" {
		t.Errorf("protected object should stay usable, got %v", v)
	}

	if err := n.Unprotect(); err != nil {
		t.Fatalf("Unprotect: %v", err)
	}
	group.Collector().CollectNow()
	if !n.Finalized() {
		t.Error("unprotected object should be collected")
	}
}

func TestNewValidation(t *testing.T) {
	ctx := engine.NewContext()
	d := mustBuild(t, counterBuilder(ctx))

	if _, err := New[counter](nil, &counter{}); err == nil {
		t.Error("nil descriptor should fail")
	}
	if _, err := New(d, (*counter)(nil)); err == nil {
		t.Error("nil instance should fail")
	}
}

func TestSharedClassRegistration(t *testing.T) {
	ctx := engine.NewContext()
	d := mustBuild(t, counterBuilder(ctx))

	a := mustExport(t, d, &counter{})
	b := mustExport(t, d, &counter{})
	if a.Object().Class() != b.Object().Class() {
		t.Error("instances of one descriptor should share the engine class")
	}
	if ctx.LookupClass("Counter") == nil {
		t.Error("descriptor registration should define the class")
	}
}
