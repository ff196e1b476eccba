package metrics

import (
	"sort"
	"sync"
)

// Registry holds all registered metrics, keyed by name, with get-or-
// create semantics. Handles are looked up once at construction time —
// the hart caches its counters in fields — so a single mutex is enough;
// there is no hot-path lookup to optimize.
type Registry struct {
	mu       sync.Mutex
	counters map[string]*Counter
	gauges   map[string]*Gauge
}

// DefaultRegistry is the process-wide registry. The hart's standard
// metrics (hart/instructions_retired, hart/cycles, hart/traps,
// hart/interrupts, hart/memory_bytes) and the loader's
// (loader/bytes_loaded) live here.
var DefaultRegistry = NewRegistry()

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		counters: make(map[string]*Counter),
		gauges:   make(map[string]*Gauge),
	}
}

// Counter returns the Counter registered under name, creating it if it
// does not exist yet.
func (r *Registry) Counter(name string) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.counters[name]
	if !ok {
		c = NewCounter(name)
		r.counters[name] = c
	}
	return c
}

// Gauge returns the Gauge registered under name, creating it if it does
// not exist yet.
func (r *Registry) Gauge(name string) *Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.gauges[name]
	if !ok {
		g = NewGauge(name)
		r.gauges[name] = g
	}
	return g
}

// Sample is one metric reading.
type Sample struct {
	Name  string
	Value int64
}

// Snapshot returns every registered metric, sorted by name. Front ends
// dump this when a run stops.
func (r *Registry) Snapshot() []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	samples := make([]Sample, 0, len(r.counters)+len(r.gauges))
	for n, c := range r.counters {
		samples = append(samples, Sample{Name: n, Value: int64(c.Value())})
	}
	for n, g := range r.gauges {
		samples = append(samples, Sample{Name: n, Value: g.Value()})
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].Name < samples[j].Name })
	return samples
}
