// Package engine implements a prototype-based dynamic object system:
// tagged values, class-intercepted property dispatch, execution
// contexts grouped under a shared mark-sweep collector, and a CBOR wire
// format for value trees.
package engine

import (
	"fmt"
	"strconv"
)

// Kind identifies the primitive type of a Value.
//
// The ordering matters: conversion callbacks receive a Kind and the
// numeric values are part of the contract with the binding layer.
type Kind int

const (
	KindUndefined Kind = iota
	KindNull
	KindBoolean
	KindNumber
	KindString
	KindObject
)

// String returns the lowercase name of the kind, matching the names a
// script-level typeof would report.
func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindObject:
		return "object"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is the engine's tagged value representation.
//
// Values are small and copied by value. Object values carry a pointer to
// the heap object; all other kinds are self-contained. The zero Value is
// undefined.
type Value struct {
	kind Kind
	num  float64
	str  string
	obj  *Object
}

// Undefined is the scripting "undefined" value. It doubles as the
// "not present" sentinel in the property dispatch protocol.
var Undefined = Value{kind: KindUndefined}

// Null is the scripting "null" value.
var Null = Value{kind: KindNull}

// FromBool creates a boolean value.
func FromBool(b bool) Value {
	if b {
		return Value{kind: KindBoolean, num: 1}
	}
	return Value{kind: KindBoolean}
}

// FromNumber creates a number value.
func FromNumber(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

// FromString creates a string value.
func FromString(s string) Value {
	return Value{kind: KindString, str: s}
}

// FromObject creates an object value. A nil object yields Null.
func FromObject(o *Object) Value {
	if o == nil {
		return Null
	}
	return Value{kind: KindObject, obj: o}
}

// ---------------------------------------------------------------------------
// Type checking
// ---------------------------------------------------------------------------

// Kind returns the value's primitive type.
func (v Value) Kind() Kind { return v.kind }

// IsUndefined returns true if v is the undefined value.
func (v Value) IsUndefined() bool { return v.kind == KindUndefined }

// IsNull returns true if v is the null value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsBoolean returns true if v is a boolean.
func (v Value) IsBoolean() bool { return v.kind == KindBoolean }

// IsNumber returns true if v is a number.
func (v Value) IsNumber() bool { return v.kind == KindNumber }

// IsString returns true if v is a string.
func (v Value) IsString() bool { return v.kind == KindString }

// IsObject returns true if v is an object.
func (v Value) IsObject() bool { return v.kind == KindObject }

// ---------------------------------------------------------------------------
// Payload access
// ---------------------------------------------------------------------------

// Bool returns the boolean payload. It is valid only for boolean values.
func (v Value) Bool() bool { return v.kind == KindBoolean && v.num != 0 }

// Float64 returns the numeric payload. It is valid only for number values.
func (v Value) Float64() float64 { return v.num }

// Text returns the string payload. It is valid only for string values.
func (v Value) Text() string { return v.str }

// Object returns the object payload, or nil for non-object values.
func (v Value) Object() *Object {
	if v.kind != KindObject {
		return nil
	}
	return v.obj
}

// String returns a printable representation of the value. For string
// values it is the payload itself.
func (v Value) String() string {
	switch v.kind {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBoolean:
		if v.Bool() {
			return "true"
		}
		return "false"
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindString:
		return v.str
	case KindObject:
		return v.obj.displayName()
	default:
		return fmt.Sprintf("Value(kind=%d)", int(v.kind))
	}
}

// Equals reports strict equality: same kind and same payload. Object
// values compare by identity.
func (v Value) Equals(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindUndefined, KindNull:
		return true
	case KindBoolean, KindNumber:
		return v.num == other.num
	case KindString:
		return v.str == other.str
	case KindObject:
		return v.obj == other.obj
	default:
		return false
	}
}
