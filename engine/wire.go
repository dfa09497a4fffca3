package engine

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ---------------------------------------------------------------------------
// Wire format: CBOR interchange of Value trees
// ---------------------------------------------------------------------------

// cborEncMode uses canonical options for deterministic encoding.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("engine: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// wireValue is the serialized form of a Value. Objects serialize their
// enumerable own properties in insertion order; class identity, private
// data and prototype links do not cross the wire.
type wireValue struct {
	Kind  int        `cbor:"k"`
	Bool  bool       `cbor:"b,omitempty"`
	Num   float64    `cbor:"n,omitempty"`
	Str   string     `cbor:"s,omitempty"`
	Props []wireProp `cbor:"p,omitempty"`
}

type wireProp struct {
	Name  string    `cbor:"n"`
	Value wireValue `cbor:"v"`
}

// MarshalValue serializes a Value to CBOR bytes. Cyclic object graphs
// are rejected.
func MarshalValue(v Value) ([]byte, error) {
	wv, err := toWire(v, make(map[*Object]bool))
	if err != nil {
		return nil, err
	}
	return cborEncMode.Marshal(wv)
}

// UnmarshalValue deserializes CBOR bytes produced by MarshalValue.
// Objects are rebuilt as plain objects in the given context.
func UnmarshalValue(ctx *Context, data []byte) (Value, error) {
	var wv wireValue
	if err := cbor.Unmarshal(data, &wv); err != nil {
		return Undefined, fmt.Errorf("engine: unmarshal value: %w", err)
	}
	return fromWire(ctx, wv)
}

func toWire(v Value, visiting map[*Object]bool) (wireValue, error) {
	switch v.Kind() {
	case KindUndefined, KindNull:
		return wireValue{Kind: int(v.Kind())}, nil
	case KindBoolean:
		return wireValue{Kind: int(KindBoolean), Bool: v.Bool()}, nil
	case KindNumber:
		return wireValue{Kind: int(KindNumber), Num: v.Float64()}, nil
	case KindString:
		return wireValue{Kind: int(KindString), Str: v.Text()}, nil
	case KindObject:
		obj := v.Object()
		if visiting[obj] {
			return wireValue{}, fmt.Errorf("engine: cannot marshal cyclic object graph")
		}
		visiting[obj] = true
		defer delete(visiting, obj)

		wv := wireValue{Kind: int(KindObject)}
		for _, name := range obj.PropertyNames() {
			pv, err := obj.GetProperty(name)
			if err != nil {
				return wireValue{}, err
			}
			wpv, err := toWire(pv, visiting)
			if err != nil {
				return wireValue{}, err
			}
			wv.Props = append(wv.Props, wireProp{Name: name, Value: wpv})
		}
		return wv, nil
	default:
		return wireValue{}, fmt.Errorf("engine: cannot marshal value of kind %d", int(v.Kind()))
	}
}

func fromWire(ctx *Context, wv wireValue) (Value, error) {
	switch Kind(wv.Kind) {
	case KindUndefined:
		return Undefined, nil
	case KindNull:
		return Null, nil
	case KindBoolean:
		return FromBool(wv.Bool), nil
	case KindNumber:
		return FromNumber(wv.Num), nil
	case KindString:
		return FromString(wv.Str), nil
	case KindObject:
		obj, err := ctx.NewObject(nil, nil)
		if err != nil {
			return Undefined, err
		}
		for _, prop := range wv.Props {
			pv, err := fromWire(ctx, prop.Value)
			if err != nil {
				return Undefined, err
			}
			obj.DefineOwnProperty(prop.Name, pv, PropFlagNone)
		}
		return FromObject(obj), nil
	default:
		return Undefined, fmt.Errorf("engine: unknown wire kind %d", wv.Kind)
	}
}
