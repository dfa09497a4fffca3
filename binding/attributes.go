package binding

import (
	"github.com/arrix/HAL/engine"
)

// ---------------------------------------------------------------------------
// Attributes: logical flags and their packed native layout
// ---------------------------------------------------------------------------

// PropertyAttribute is a visibility flag on a named property.
type PropertyAttribute int

const (
	// ReadOnly marks a property whose writes are silently rejected.
	ReadOnly PropertyAttribute = iota
	// DontEnum excludes a property from enumeration.
	DontEnum
	// DontDelete makes delete report failure for the property.
	DontDelete
)

// ClassAttribute describes a characteristic of a whole class.
type ClassAttribute int

const (
	// NoAutomaticPrototype suppresses the shared automatic prototype,
	// leaving instances with only the default object prototype.
	NoAutomaticPrototype ClassAttribute = iota
)

// The packed bit layout below is a wire contract with the engine's
// native flag representation. Keep these tables as the single mapping;
// a wrong position corrupts unrelated attributes in the shared word.
var propertyAttributeBit = map[PropertyAttribute]uint32{
	ReadOnly:   engine.PropFlagReadOnly,
	DontEnum:   engine.PropFlagDontEnum,
	DontDelete: engine.PropFlagDontDelete,
}

var classAttributeBit = map[ClassAttribute]uint32{
	NoAutomaticPrototype: engine.ClassFlagNoAutomaticPrototype,
}

var propertyAttributeName = map[string]PropertyAttribute{
	"ReadOnly":   ReadOnly,
	"DontEnum":   DontEnum,
	"DontDelete": DontDelete,
}

var classAttributeName = map[string]ClassAttribute{
	"NoAutomaticPrototype": NoAutomaticPrototype,
}

// String returns the attribute's canonical name.
func (a PropertyAttribute) String() string {
	switch a {
	case ReadOnly:
		return "ReadOnly"
	case DontEnum:
		return "DontEnum"
	case DontDelete:
		return "DontDelete"
	default:
		return "PropertyAttribute(?)"
	}
}

// String returns the attribute's canonical name.
func (a ClassAttribute) String() string {
	switch a {
	case NoAutomaticPrototype:
		return "NoAutomaticPrototype"
	default:
		return "ClassAttribute(?)"
	}
}

// PackPropertyAttributes translates logical property attributes into
// the engine's packed flag word.
func PackPropertyAttributes(attrs ...PropertyAttribute) uint32 {
	var flags uint32
	for _, a := range attrs {
		flags |= propertyAttributeBit[a]
	}
	return flags
}

// PackClassAttributes translates logical class attributes into the
// engine's packed flag word.
func PackClassAttributes(attrs ...ClassAttribute) uint32 {
	var flags uint32
	for _, a := range attrs {
		flags |= classAttributeBit[a]
	}
	return flags
}

// ParsePropertyAttribute resolves a manifest attribute name.
func ParsePropertyAttribute(name string) (PropertyAttribute, bool) {
	a, ok := propertyAttributeName[name]
	return a, ok
}

// ParseClassAttribute resolves a manifest attribute name.
func ParseClassAttribute(name string) (ClassAttribute, bool) {
	a, ok := classAttributeName[name]
	return a, ok
}
