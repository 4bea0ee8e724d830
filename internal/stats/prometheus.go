package stats

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	lookupDesc = prometheus.NewDesc(
		"geocache_lookups_total",
		"Total lookup count by outcome",
		[]string{"outcome"},
		nil,
	)
	latencyDesc = prometheus.NewDesc(
		"geocache_lookup_latency_avg_seconds",
		"Average lookup latency over the rolling window",
		nil,
		nil,
	)
	hitRateDesc = prometheus.NewDesc(
		"geocache_cache_hit_rate",
		"Share of lookups served from the memory or persistent tier",
		nil,
		nil,
	)
)

// PromCollector exports resolver counters to Prometheus by reading a
// snapshot on each scrape.
type PromCollector struct {
	stats *Collector
}

// Describe sends the metric descriptors to the channel.
func (c *PromCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- lookupDesc
	ch <- latencyDesc
	ch <- hitRateDesc
}

// Collect snapshots the collector and emits the counters.
func (c *PromCollector) Collect(ch chan<- prometheus.Metric) {
	m := c.stats.Snapshot()

	outcomes := map[string]int64{
		EventMemoryHit: m.MemoryHits,
		EventStoreHit:  m.StoreHits,
		EventProvider:  m.ProviderCalls,
		EventRejected:  m.Rejected,
		EventError:     m.Errors,
	}
	for outcome, count := range outcomes {
		ch <- prometheus.MustNewConstMetric(lookupDesc, prometheus.CounterValue, float64(count), outcome)
	}
	ch <- prometheus.MustNewConstMetric(latencyDesc, prometheus.GaugeValue, m.AvgLatencyMS/1000)
	ch <- prometheus.MustNewConstMetric(hitRateDesc, prometheus.GaugeValue, m.HitRate)
}

var registerOnce sync.Once

// Register registers the Prometheus collector for stats.
// Must be called once at startup.
func Register(stats *Collector) {
	registerOnce.Do(func() {
		prometheus.MustRegister(&PromCollector{stats: stats})
	})
}
