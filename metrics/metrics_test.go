package metrics

import (
	"sync"
	"testing"
)

func TestCounter_IncAdd(t *testing.T) {
	c := NewCounter("hart/traps")
	c.Inc()
	c.Add(4)
	if got := c.Value(); got != 5 {
		t.Errorf("Value = %d, want 5", got)
	}
	if c.Name() != "hart/traps" {
		t.Errorf("Name = %q", c.Name())
	}
}

func TestCounter_SyncTotal(t *testing.T) {
	c := NewCounter("hart/instructions_retired")
	c.SyncTotal(100)
	if got := c.Value(); got != 100 {
		t.Errorf("Value = %d, want 100", got)
	}
	// A lower total (a reset hart republishing) must not roll back.
	c.SyncTotal(40)
	if got := c.Value(); got != 100 {
		t.Errorf("Value = %d after lower sync, want 100", got)
	}
	c.SyncTotal(250)
	if got := c.Value(); got != 250 {
		t.Errorf("Value = %d, want 250", got)
	}
}

func TestGauge(t *testing.T) {
	g := NewGauge("hart/memory_bytes")
	g.Set(1 << 16)
	if got := g.Value(); got != 1<<16 {
		t.Errorf("Value = %d, want %d", got, 1<<16)
	}
}

func TestRegistry_GetOrCreate(t *testing.T) {
	r := NewRegistry()
	a := r.Counter("hart/cycles")
	b := r.Counter("hart/cycles")
	if a != b {
		t.Error("Counter returned distinct instances for one name")
	}
	a.Inc()
	if b.Value() != 1 {
		t.Error("shared counter did not share state")
	}
}

func TestRegistry_Snapshot(t *testing.T) {
	r := NewRegistry()
	r.Counter("b/count").Add(3)
	r.Gauge("a/size").Set(64)

	snap := r.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("Snapshot has %d samples, want 2", len(snap))
	}
	// Sorted by name.
	if snap[0].Name != "a/size" || snap[0].Value != 64 {
		t.Errorf("snap[0] = %+v", snap[0])
	}
	if snap[1].Name != "b/count" || snap[1].Value != 3 {
		t.Errorf("snap[1] = %+v", snap[1])
	}
}

func TestCounter_ConcurrentSync(t *testing.T) {
	// Total syncs from several goroutines may race; the counter must
	// stay monotonic and keep the largest total.
	c := NewCounter("c")
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(n uint64) {
			defer wg.Done()
			c.SyncTotal(n * 1000)
		}(uint64(i + 1))
	}
	wg.Wait()
	if got := c.Value(); got != 4000 {
		t.Errorf("Value = %d, want the largest total 4000", got)
	}
}
