package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestTimingMetric_Record(t *testing.T) {
	m := newTimingMetric("op")
	m.Record(2 * time.Millisecond)
	m.Record(4 * time.Millisecond)

	s := m.Stats()
	if s.Count != 2 || s.TotalMs != 6 || s.AvgMs != 3 || s.MaxMs != 4 || s.MinMs != 2 {
		t.Errorf("unexpected stats: %+v", s)
	}

	m.Reset()
	if m.Count() != 0 || m.Stats().MaxMs != 0 {
		t.Errorf("Reset left %+v", m.Stats())
	}
}

func TestTimingMetric_Concurrent(t *testing.T) {
	m := newTimingMetric("op")
	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.Record(time.Duration(i) * time.Millisecond)
		}(i)
	}
	wg.Wait()

	s := m.Stats()
	if s.Count != 50 || s.MinMs != 1 || s.MaxMs != 50 {
		t.Errorf("unexpected stats: %+v", s)
	}
}

func TestTimer_Disabled(t *testing.T) {
	SetEnabled(false)
	t.Cleanup(func() { SetEnabled(true) })

	m := newTimingMetric("op")
	Timer(m)()
	m.Record(time.Millisecond)
	if m.Count() != 0 {
		t.Errorf("recorded %d measurements while disabled", m.Count())
	}
	Timer(nil)()
}

func TestCacheMetric(t *testing.T) {
	c := newCacheMetric("cache")
	c.Miss()
	c.Hit()
	c.Hit()
	c.Hit()

	s := c.Stats()
	if s.Hits != 3 || s.Misses != 1 || s.HitRatio != 0.75 {
		t.Errorf("unexpected stats: %+v", s)
	}
	c.Reset()
	if s := c.Stats(); s.Hits != 0 || s.HitRatio != 0 {
		t.Errorf("Reset left %+v", s)
	}
}

func TestAllTimingStats_SkipsEmpty(t *testing.T) {
	ResetAll()
	t.Cleanup(ResetAll)

	Search.Record(time.Millisecond)
	stats := AllTimingStats()
	if len(stats) != 1 || stats[0].Name != "search" {
		t.Errorf("AllTimingStats = %+v", stats)
	}
	if len(AllCacheStats()) != len(AllCacheMetrics()) {
		t.Error("AllCacheStats should report every cache")
	}
}
