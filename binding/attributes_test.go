package binding

import (
	"testing"

	"github.com/arrix/HAL/engine"
)

func TestPackPropertyAttributes(t *testing.T) {
	if got := PackPropertyAttributes(); got != engine.PropFlagNone {
		t.Errorf("no attributes should pack to zero, got %#x", got)
	}
	got := PackPropertyAttributes(ReadOnly, DontDelete)
	want := engine.PropFlagReadOnly | engine.PropFlagDontDelete
	if got != want {
		t.Errorf("expected %#x, got %#x", want, got)
	}
	if got&engine.PropFlagDontEnum != 0 {
		t.Error("DontEnum bit should be clear")
	}
	// Repeated attributes pack idempotently.
	if PackPropertyAttributes(ReadOnly, ReadOnly) != engine.PropFlagReadOnly {
		t.Error("repeated attribute should not disturb other bits")
	}
}

func TestPackClassAttributes(t *testing.T) {
	if PackClassAttributes() != engine.ClassFlagNone {
		t.Error("no attributes should pack to zero")
	}
	if PackClassAttributes(NoAutomaticPrototype) != engine.ClassFlagNoAutomaticPrototype {
		t.Error("NoAutomaticPrototype packs to the wrong bit")
	}
}

func TestParseAttributes(t *testing.T) {
	for name, want := range map[string]PropertyAttribute{
		"ReadOnly":   ReadOnly,
		"DontEnum":   DontEnum,
		"DontDelete": DontDelete,
	} {
		got, ok := ParsePropertyAttribute(name)
		if !ok || got != want {
			t.Errorf("%s: got %v ok=%v", name, got, ok)
		}
		if got.String() != name {
			t.Errorf("round trip of %s gave %s", name, got.String())
		}
	}
	if _, ok := ParsePropertyAttribute("Bogus"); ok {
		t.Error("unknown property attribute should not parse")
	}

	got, ok := ParseClassAttribute("NoAutomaticPrototype")
	if !ok || got != NoAutomaticPrototype {
		t.Errorf("got %v ok=%v", got, ok)
	}
	if _, ok := ParseClassAttribute("Bogus"); ok {
		t.Error("unknown class attribute should not parse")
	}
}
