// Package stats collects operational counters for the resolver. It is
// observational only: recording is fire-and-forget and never affects
// resolution correctness.
package stats

import (
	"sync"
	"time"
)

// Lookup outcome events.
const (
	EventMemoryHit = "memory_hit"
	EventStoreHit  = "store_hit"
	EventProvider  = "provider"
	EventRejected  = "rejected"
	EventError     = "error"
)

// Collector accumulates per-outcome counters and a bounded rolling window
// of lookup latencies.
type Collector struct {
	mu        sync.Mutex
	counts    map[string]int64
	latencies []time.Duration // ring buffer
	next      int
	samples   int
}

// Metrics is a point-in-time view of resolver activity.
type Metrics struct {
	Lookups       int64   `json:"lookups"`
	MemoryHits    int64   `json:"memory_hits"`
	StoreHits     int64   `json:"store_hits"`
	ProviderCalls int64   `json:"provider_calls"`
	Rejected      int64   `json:"rejected"`
	Errors        int64   `json:"errors"`
	HitRate       float64 `json:"hit_rate"`
	AvgLatencyMS  float64 `json:"avg_latency_ms"`
}

// New creates a collector keeping the last window latency samples.
func New(window int) *Collector {
	if window < 1 {
		window = 1
	}
	return &Collector{
		counts:    make(map[string]int64),
		latencies: make([]time.Duration, window),
	}
}

// Record counts one lookup outcome and its latency. Safe to call on a nil
// collector, so callers never guard their stats calls.
func (c *Collector) Record(event string, latency time.Duration) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.counts[event]++
	c.latencies[c.next] = latency
	c.next = (c.next + 1) % len(c.latencies)
	if c.samples < len(c.latencies) {
		c.samples++
	}
}

// Snapshot returns current totals. The hit rate covers both cache tiers
// relative to all non-rejected lookups.
func (c *Collector) Snapshot() Metrics {
	if c == nil {
		return Metrics{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	m := Metrics{
		MemoryHits:    c.counts[EventMemoryHit],
		StoreHits:     c.counts[EventStoreHit],
		ProviderCalls: c.counts[EventProvider],
		Rejected:      c.counts[EventRejected],
		Errors:        c.counts[EventError],
	}
	m.Lookups = m.MemoryHits + m.StoreHits + m.ProviderCalls + m.Rejected + m.Errors

	resolved := m.MemoryHits + m.StoreHits + m.ProviderCalls + m.Errors
	if resolved > 0 {
		m.HitRate = float64(m.MemoryHits+m.StoreHits) / float64(resolved)
	}

	if c.samples > 0 {
		var total time.Duration
		for i := 0; i < c.samples; i++ {
			total += c.latencies[i]
		}
		m.AvgLatencyMS = float64(total.Microseconds()) / float64(c.samples) / 1000
	}
	return m
}
