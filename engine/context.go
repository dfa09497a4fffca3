package engine

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("hal.engine")

// ---------------------------------------------------------------------------
// ContextGroup: contexts sharing one collector
// ---------------------------------------------------------------------------

// ContextGroup owns a set of execution contexts and the collector that
// sweeps all of them. Script runs synchronously on whatever goroutine
// invokes it; the group provides no ordering between contexts.
type ContextGroup struct {
	id        uuid.UUID
	mu        sync.Mutex
	contexts  []*Context
	collector *Collector
}

// NewContextGroup creates an empty context group with a stopped
// collector. Call Collector().Start() to enable periodic collection.
func NewContextGroup() *ContextGroup {
	g := &ContextGroup{id: uuid.New()}
	g.collector = NewCollector(g, DefaultCollectInterval)
	return g
}

// ID returns the group's unique identity.
func (g *ContextGroup) ID() uuid.UUID { return g.id }

// Collector returns the group's collector.
func (g *ContextGroup) Collector() *Collector { return g.collector }

// Contexts returns the contexts currently in the group.
func (g *ContextGroup) Contexts() []*Context {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*Context, len(g.contexts))
	copy(out, g.contexts)
	return out
}

// NewContext creates an execution context in this group.
func (g *ContextGroup) NewContext() *Context {
	ctx := &Context{
		id:       uuid.New(),
		group:    g,
		registry: NewObjectRegistry(),
		classes:  make(map[string]*Class),
	}
	ctx.global = ctx.newObject(nil, nil)
	g.mu.Lock()
	g.contexts = append(g.contexts, ctx)
	g.mu.Unlock()
	log.Debugf("created context %s in group %s", ctx.id, g.id)
	return ctx
}

// ---------------------------------------------------------------------------
// Context: one execution context
// ---------------------------------------------------------------------------

// Context is a single execution context: an object registry, a global
// object and the classes registered against it.
type Context struct {
	id       uuid.UUID
	group    *ContextGroup
	registry *ObjectRegistry
	global   *Object

	classMu sync.RWMutex
	classes map[string]*Class

	funcOnce  sync.Once
	funcClass *Class
}

// NewContext creates a context in a fresh, private context group.
func NewContext() *Context {
	return NewContextGroup().NewContext()
}

// ID returns the context's unique identity.
func (c *Context) ID() uuid.UUID { return c.id }

// Group returns the owning context group.
func (c *Context) Group() *ContextGroup { return c.group }

// Registry returns the context's object registry.
func (c *Context) Registry() *ObjectRegistry { return c.registry }

// Global returns the context's global object.
func (c *Context) Global() *Object { return c.global }

// DefineClass registers a class definition and returns its handle.
// The definition's slot table is shared by every instance; a duplicate
// class name is a registration failure.
func (c *Context) DefineClass(def *ClassDefinition) (*Class, error) {
	if def == nil {
		return nil, fmt.Errorf("engine: nil class definition")
	}
	if def.Name == "" {
		return nil, fmt.Errorf("engine: class definition has no name")
	}

	c.classMu.Lock()
	if _, exists := c.classes[def.Name]; exists {
		c.classMu.Unlock()
		return nil, fmt.Errorf("engine: class %q already defined", def.Name)
	}
	class := &Class{def: def, ctx: c}
	c.classes[def.Name] = class
	c.classMu.Unlock()

	if def.Attributes&ClassFlagNoAutomaticPrototype == 0 {
		// Shared prototype, one per class. Instances pick it up at
		// creation so function objects stored on it are shared.
		class.proto = c.newObject(nil, nil)
	}

	log.Infof("defined class %q in context %s", def.Name, c.id)
	return class, nil
}

// LookupClass finds a registered class by name, or nil.
func (c *Context) LookupClass(name string) *Class {
	c.classMu.RLock()
	defer c.classMu.RUnlock()
	return c.classes[name]
}

// classSnapshot returns all registered classes (collector roots).
func (c *Context) classSnapshot() []*Class {
	c.classMu.RLock()
	defer c.classMu.RUnlock()
	out := make([]*Class, 0, len(c.classes))
	for _, class := range c.classes {
		out = append(out, class)
	}
	return out
}

// newObject allocates and registers an object without running
// initialization.
func (c *Context) newObject(class *Class, private any) *Object {
	obj := &Object{ctx: c, class: class, private: private}
	if class != nil {
		obj.proto = class.proto
	}
	c.registry.Add(obj)
	return obj
}

// NewObject creates an object of the given class (nil for a plain
// object) carrying private native data. The class initialize slot runs
// before the object is returned; an initialize failure unregisters the
// object and is reported to the caller.
func (c *Context) NewObject(class *Class, private any) (*Object, error) {
	obj := c.newObject(class, private)
	if class != nil && class.def.Initialize != nil {
		if err := class.def.Initialize(obj); err != nil {
			c.registry.Remove(obj.id)
			return nil, err
		}
	}
	return obj, nil
}
