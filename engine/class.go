package engine

import "sort"

// ---------------------------------------------------------------------------
// Property and class attribute flags (native layout)
// ---------------------------------------------------------------------------

// Packed property attribute flags. The bit positions are a wire contract
// with the binding layer's attribute mapping table; bit 0 is reserved
// (a zero flag word means "no attributes").
const (
	PropFlagNone       uint32 = 0
	PropFlagReadOnly   uint32 = 1 << 1
	PropFlagDontEnum   uint32 = 1 << 2
	PropFlagDontDelete uint32 = 1 << 3
)

// Packed class attribute flags, same layout discipline as the property
// flags.
const (
	ClassFlagNone                 uint32 = 0
	ClassFlagNoAutomaticPrototype uint32 = 1 << 1
)

// ---------------------------------------------------------------------------
// ClassDefinition: the C-style callback slot table
// ---------------------------------------------------------------------------

// ClassDefinition is the slot table a class registers with the engine.
//
// Every slot is optional. A nil slot means "no override": the engine
// falls through to its default dynamic-object semantics (own property
// storage, then the prototype chain).
//
// The boolean "handled" results follow the dispatch protocol: true means
// the slot answered definitively, false means the engine should continue
// its fallback sequence.
type ClassDefinition struct {
	Name       string
	Attributes uint32

	// Initialize runs when an object of this class is created, before
	// the object is returned to the caller.
	Initialize func(obj *Object) error

	// Finalize runs when the collector drops the object. It may run on
	// a collector goroutine and must not allocate engine objects.
	Finalize func(obj *Object)

	HasProperty      func(obj *Object, name string) (present bool, handled bool, err error)
	GetProperty      func(obj *Object, name string) (value Value, handled bool, err error)
	SetProperty      func(obj *Object, name string, value Value) (handled bool, err error)
	DeleteProperty   func(obj *Object, name string) (result bool, handled bool, err error)
	GetPropertyNames func(obj *Object, acc *PropertyNameAccumulator)

	CallAsFunction    func(obj, this *Object, args []Value) (Value, error)
	CallAsConstructor func(obj *Object, args []Value) (*Object, error)
	HasInstance       func(obj *Object, candidate Value) bool
	ConvertToType     func(obj *Object, kind Kind) (Value, bool, error)
}

// Class is a registered class handle. Instances of the class share the
// definition and, unless NoAutomaticPrototype is set, a common prototype
// object.
type Class struct {
	def   *ClassDefinition
	ctx   *Context
	proto *Object // shared automatic prototype, lazily created
}

// Name returns the class name from the definition.
func (c *Class) Name() string { return c.def.Name }

// Definition returns the registered slot table.
func (c *Class) Definition() *ClassDefinition { return c.def }

// Prototype returns the shared automatic prototype, or nil when the
// class was registered with NoAutomaticPrototype.
func (c *Class) Prototype() *Object { return c.proto }

// ---------------------------------------------------------------------------
// PropertyNameAccumulator
// ---------------------------------------------------------------------------

// PropertyNameAccumulator collects property names during enumeration.
// Names are deduplicated; first insertion wins the position.
type PropertyNameAccumulator struct {
	names []string
	seen  map[string]struct{}
}

// NewPropertyNameAccumulator creates an empty accumulator.
func NewPropertyNameAccumulator() *PropertyNameAccumulator {
	return &PropertyNameAccumulator{seen: make(map[string]struct{})}
}

// Add appends a property name if it has not been added before.
func (a *PropertyNameAccumulator) Add(name string) {
	if _, ok := a.seen[name]; ok {
		return
	}
	a.seen[name] = struct{}{}
	a.names = append(a.names, name)
}

// Contains returns true if the name has been accumulated.
func (a *PropertyNameAccumulator) Contains(name string) bool {
	_, ok := a.seen[name]
	return ok
}

// Names returns the accumulated names in insertion order.
func (a *PropertyNameAccumulator) Names() []string {
	out := make([]string, len(a.names))
	copy(out, a.names)
	return out
}

// Sorted returns the accumulated names in lexicographic order.
func (a *PropertyNameAccumulator) Sorted() []string {
	out := a.Names()
	sort.Strings(out)
	return out
}

// Len returns the number of accumulated names.
func (a *PropertyNameAccumulator) Len() int { return len(a.names) }
