package binding

import (
	"testing"

	"github.com/arrix/HAL/engine"
)

func TestRegistry(t *testing.T) {
	ctx := engine.NewContext()
	reg := NewRegistry()

	wd := mustBuild(t, widgetBuilder(ctx))
	cd := mustBuild(t, counterBuilder(ctx))

	if err := RegisterDescriptor[widget](reg, wd); err != nil {
		t.Fatalf("RegisterDescriptor: %v", err)
	}
	if err := RegisterDescriptor[counter](reg, cd); err != nil {
		t.Fatalf("RegisterDescriptor: %v", err)
	}

	if reg.Lookup("Widget") != wd {
		t.Error("Lookup by name failed")
	}
	if reg.Lookup("Missing") != nil {
		t.Error("expected nil for unknown name")
	}
	if LookupByType[widget](reg) != wd {
		t.Error("LookupByType failed")
	}
	if LookupByType[device](reg) != nil {
		t.Error("expected nil for unregistered type")
	}
	if reg.LookupValue(&counter{}) != cd {
		t.Error("LookupValue failed")
	}
	if reg.LookupValue(42) != nil {
		t.Error("expected nil for unregistered value type")
	}
	if len(reg.Names()) != 2 {
		t.Errorf("names: %v", reg.Names())
	}
}

func TestRegistryDuplicates(t *testing.T) {
	ctx := engine.NewContext()
	reg := NewRegistry()
	d := mustBuild(t, widgetBuilder(ctx))

	if err := RegisterDescriptor[widget](reg, d); err != nil {
		t.Fatalf("RegisterDescriptor: %v", err)
	}
	if err := RegisterDescriptor[widget](reg, d); err == nil {
		t.Error("duplicate type registration should fail")
	}

	other := mustBuild(t, NewClassBuilder[device](ctx, "Widget2").SetName("Widget"))
	if err := RegisterDescriptor[device](reg, other); err == nil {
		t.Error("duplicate name registration should fail")
	}
}
