package engine

import (
	"sync"
	"sync/atomic"
	"time"
)

// ---------------------------------------------------------------------------
// Collector: mark-sweep collection over context registries
// ---------------------------------------------------------------------------

// CollectStats holds statistics from a single collection.
type CollectStats struct {
	Contexts  int
	Marked    int
	Swept     int
	Duration  time.Duration
	Timestamp time.Time
}

// Collector periodically sweeps every registry in a context group,
// finalizing and dropping objects that are neither protected nor
// reachable from a root (a context's global object, a protected object,
// or a class prototype).
//
// Sweeps run on the collector's own goroutine, so class Finalize slots
// must tolerate running on a thread other than the one that created the
// object, and must not allocate engine objects.
type Collector struct {
	group    *ContextGroup
	interval time.Duration
	enabled  atomic.Bool
	stop     chan struct{}
	stopped  chan struct{}
	mu       sync.Mutex // protects start/stop lifecycle

	collectCount atomic.Uint64
	lastStats    atomic.Value // *CollectStats
}

// DefaultCollectInterval is the default sweep interval.
const DefaultCollectInterval = 10 * time.Second

// NewCollector creates a collector for the given group with the
// specified sweep interval. Use DefaultCollectInterval for the default.
func NewCollector(group *ContextGroup, interval time.Duration) *Collector {
	if interval <= 0 {
		interval = DefaultCollectInterval
	}
	gc := &Collector{
		group:    group,
		interval: interval,
	}
	gc.enabled.Store(true)
	return gc
}

// Start begins the periodic sweep goroutine. It is safe to call Start
// multiple times; only one sweep loop will run.
func (gc *Collector) Start() {
	gc.mu.Lock()
	defer gc.mu.Unlock()

	if gc.stop != nil {
		return // already running
	}

	gc.stop = make(chan struct{})
	gc.stopped = make(chan struct{})

	// Capture channels locally so the goroutine does not read gc.stop
	// and gc.stopped after Stop() has nilled them out.
	stopCh := gc.stop
	stoppedCh := gc.stopped
	go gc.loop(stopCh, stoppedCh)
}

// Stop halts the periodic sweep goroutine and waits for it to finish.
// It is safe to call Stop multiple times or on a collector that was
// never started.
func (gc *Collector) Stop() {
	gc.mu.Lock()
	stopCh := gc.stop
	stoppedCh := gc.stopped
	gc.stop = nil
	gc.stopped = nil
	gc.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-stoppedCh
	}
}

// SetEnabled enables or disables sweeping. When disabled, the goroutine
// still runs but skips collection.
func (gc *Collector) SetEnabled(enabled bool) {
	gc.enabled.Store(enabled)
}

// IsEnabled returns whether collection is currently enabled.
func (gc *Collector) IsEnabled() bool {
	return gc.enabled.Load()
}

// Interval returns the sweep interval.
func (gc *Collector) Interval() time.Duration {
	return gc.interval
}

// CollectCount returns the total number of collections performed.
func (gc *Collector) CollectCount() uint64 {
	return gc.collectCount.Load()
}

// LastStats returns statistics from the most recent collection, or nil
// if none has run yet.
func (gc *Collector) LastStats() *CollectStats {
	v := gc.lastStats.Load()
	if v == nil {
		return nil
	}
	return v.(*CollectStats)
}

// CollectNow performs an immediate collection regardless of the timer.
func (gc *Collector) CollectNow() *CollectStats {
	return gc.collect()
}

func (gc *Collector) loop(stopCh <-chan struct{}, stoppedCh chan struct{}) {
	defer close(stoppedCh)

	ticker := time.NewTicker(gc.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if gc.enabled.Load() {
				gc.collect()
			}
		}
	}
}

// collect performs one mark-sweep pass over every context in the group.
func (gc *Collector) collect() *CollectStats {
	start := time.Now()
	stats := &CollectStats{Timestamp: start}

	contexts := gc.group.Contexts()
	stats.Contexts = len(contexts)

	for _, ctx := range contexts {
		marked, swept := gc.collectContext(ctx)
		stats.Marked += marked
		stats.Swept += swept
	}

	stats.Duration = time.Since(start)
	gc.collectCount.Add(1)
	gc.lastStats.Store(stats)
	if stats.Swept > 0 {
		log.Debugf("collected %d objects across %d contexts in %s",
			stats.Swept, stats.Contexts, stats.Duration)
	}
	return stats
}

func (gc *Collector) collectContext(ctx *Context) (marked, swept int) {
	objects := ctx.registry.Snapshot()

	for _, obj := range objects {
		obj.marked.Store(false)
	}

	// Mark phase: roots are the global object, protected objects and
	// class prototypes.
	mark(ctx.global)
	for _, obj := range objects {
		if obj.protectCount.Load() > 0 {
			mark(obj)
		}
	}
	for _, class := range ctx.classSnapshot() {
		if class.proto != nil {
			mark(class.proto)
		}
	}

	// Sweep phase: sever the registry entry first so the binding is
	// unreachable from script, then deliver the finalize notification,
	// then drop the private data.
	for _, obj := range objects {
		if obj.marked.Load() {
			marked++
			continue
		}
		ctx.registry.Remove(obj.id)
		if def := obj.classDef(); def != nil && def.Finalize != nil {
			def.Finalize(obj)
		}
		obj.SetPrivate(nil)
		swept++
	}
	return marked, swept
}

// mark traverses an object graph setting mark bits: own property
// values, then the prototype chain.
func mark(obj *Object) {
	if obj == nil || obj.marked.Swap(true) {
		return
	}

	obj.mu.Lock()
	children := make([]*Object, 0, len(obj.props)+1)
	for _, slot := range obj.props {
		if child := slot.value.Object(); child != nil {
			children = append(children, child)
		}
	}
	if obj.proto != nil {
		children = append(children, obj.proto)
	}
	obj.mu.Unlock()

	for _, child := range children {
		mark(child)
	}
}
