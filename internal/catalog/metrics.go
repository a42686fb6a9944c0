package catalog

import "github.com/prometheus/client_golang/prometheus"

// Metrics instruments the gateway's read paths. A nil *Metrics is valid and
// records nothing, so tests can skip registration.
type Metrics struct {
	CacheHits    prometheus.Counter
	CacheMisses  prometheus.Counter
	ReplicaReads prometheus.Counter
	Offline      prometheus.Gauge
}

func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalog_cache_hits_total",
			Help: "Catalog reads served from the TTL cache",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalog_cache_misses_total",
			Help: "Catalog cache misses",
		}),
		ReplicaReads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "catalog_replica_reads_total",
			Help: "Catalog reads served from the local replica",
		}),
		Offline: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "catalog_offline",
			Help: "1 while the gateway is in offline mode",
		}),
	}

	reg.MustRegister(m.CacheHits, m.CacheMisses, m.ReplicaReads, m.Offline)
	return m
}

func (m *Metrics) cacheHit() {
	if m != nil {
		m.CacheHits.Inc()
	}
}

func (m *Metrics) cacheMiss() {
	if m != nil {
		m.CacheMisses.Inc()
	}
}

func (m *Metrics) replicaRead() {
	if m != nil {
		m.ReplicaReads.Inc()
	}
}

func (m *Metrics) setOffline(offline bool) {
	if m == nil {
		return
	}
	if offline {
		m.Offline.Set(1)
	} else {
		m.Offline.Set(0)
	}
}
