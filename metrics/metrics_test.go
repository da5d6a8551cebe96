package metrics

import (
	"testing"
)

func TestCounter(t *testing.T) {
	c := NewCounter()
	c.Inc(5)
	c.Dec(2)
	if count := c.Count(); count != 3 {
		t.Errorf("count: %d, want 3", count)
	}
	snap := c.Snapshot()
	c.Inc(10)
	if count := snap.Count(); count != 3 {
		t.Errorf("snapshot count: %d, want 3", count)
	}
	c.Clear()
	if count := c.Count(); count != 0 {
		t.Errorf("count after clear: %d, want 0", count)
	}
}

func TestGauge(t *testing.T) {
	g := NewGauge()
	g.Update(47)
	if v := g.Value(); v != 47 {
		t.Errorf("value: %d, want 47", v)
	}
	g.Inc(3)
	g.Dec(10)
	if v := g.Value(); v != 40 {
		t.Errorf("value: %d, want 40", v)
	}
}

func TestGaugeFloat64(t *testing.T) {
	g := NewGaugeFloat64()
	g.Update(47.5)
	if v := g.Value(); v != 47.5 {
		t.Errorf("value: %v, want 47.5", v)
	}
}

func TestRegistryGetOrRegister(t *testing.T) {
	r := NewRegistry()

	// First metric wins. Type error skipped for simplicity.
	c := GetOrRegisterCounter("foo", r)
	c.Inc(1)
	again := GetOrRegisterCounter("foo", r)
	if count := again.Count(); count != 1 {
		t.Errorf("count: %d, want 1", count)
	}

	i := 0
	r.Each(func(name string, iface interface{}) {
		i++
		if name != "foo" {
			t.Errorf("name: %s, want foo", name)
		}
		if _, ok := iface.(Counter); !ok {
			t.Errorf("metric is not a Counter: %T", iface)
		}
	})
	if i != 1 {
		t.Errorf("registered metrics: %d, want 1", i)
	}
}

func TestRegistryDuplicate(t *testing.T) {
	r := NewRegistry()
	if err := r.Register("foo", NewCounter()); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := r.Register("foo", NewGauge()); err == nil {
		t.Fatal("duplicate register did not error")
	}
	r.Unregister("foo")
	if err := r.Register("foo", NewGauge()); err != nil {
		t.Fatalf("register after unregister: %v", err)
	}
}

func TestReadCPUStats(t *testing.T) {
	var stats CPUStats
	ReadCPUStats(&stats)
	if stats.GlobalTime < 0 {
		t.Errorf("global time: %d, want >= 0", stats.GlobalTime)
	}
}
