// Package metrics provides the simulator's metrics primitives. The
// counters mirror the hart's architectural counters (instructions
// retired, cycles) plus low-rate event counts (traps taken, interrupts
// delivered, bytes loaded).
//
// The fetch-decode-execute loop keeps its architectural counters in
// plain fields — one hart, one goroutine, no contention — and publishes
// them with SyncTotal when a run stops, so the hot path never touches
// an atomic. Inc/Add are for events rare enough that an atomic per
// event costs nothing.
package metrics

import "sync/atomic"

// Counter is a monotonically increasing count, published either
// event-by-event (Inc/Add) or as an absolute total (SyncTotal).
type Counter struct {
	name  string
	value atomic.Uint64
}

// NewCounter returns a new Counter with the given name.
func NewCounter(name string) *Counter {
	return &Counter{name: name}
}

// Inc increments the counter by 1.
func (c *Counter) Inc() { c.value.Add(1) }

// Add increments the counter by n.
func (c *Counter) Add(n uint64) { c.value.Add(n) }

// SyncTotal advances the counter to an absolute total. The counter is
// monotonic: a total at or below the current value is ignored, so a
// reset hart republishing from zero cannot roll the metric back.
func (c *Counter) SyncTotal(total uint64) {
	for {
		cur := c.value.Load()
		if total <= cur || c.value.CompareAndSwap(cur, total) {
			return
		}
	}
}

// Value returns the current counter value.
func (c *Counter) Value() uint64 { return c.value.Load() }

// Name returns the metric name.
func (c *Counter) Name() string { return c.name }

// Gauge is a point-in-time value, such as the configured memory size.
type Gauge struct {
	name  string
	value atomic.Int64
}

// NewGauge returns a new Gauge with the given name.
func NewGauge(name string) *Gauge {
	return &Gauge{name: name}
}

// Set sets the gauge to the given value.
func (g *Gauge) Set(v int64) { g.value.Store(v) }

// Value returns the current gauge value.
func (g *Gauge) Value() int64 { return g.value.Load() }

// Name returns the metric name.
func (g *Gauge) Name() string { return g.name }
