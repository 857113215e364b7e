package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "freeslot"

// Metrics exposes Prometheus collectors for scheduling activity.
type Metrics struct {
	requests       *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	icsSyncs       *prometheus.CounterVec
	planIncomplete prometheus.Counter
}

var (
	defaultMetricsOnce sync.Once
	sharedMetrics      *Metrics
)

// DefaultMetrics returns the instance registered with the global registry.
// The collectors are created once so repeated servers in one process do not
// hit duplicate registration panics.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		sharedMetrics = MustNewMetrics(prometheus.DefaultRegisterer)
	})
	return sharedMetrics
}

// MustNewMetrics constructs a Metrics instance using the provided registerer.
// Tests pass a fresh prometheus.NewRegistry(). Registration errors panic.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Scheduling operations by outcome.",
			},
			[]string{"operation", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Duration of scheduling operations.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "busy_cache_hits_total",
			Help:      "Busy interval lookups served from cache.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "busy_cache_misses_total",
			Help:      "Busy interval lookups that went to the sources.",
		}),
		icsSyncs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ics_sync_total",
				Help:      "ICS feed synchronisations by outcome.",
			},
			[]string{"feed", "status"},
		),
		planIncomplete: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plan_incomplete_total",
			Help:      "Plans whose best option fell short of the needed sessions.",
		}),
	}

	reg.MustRegister(m.requests, m.duration, m.cacheHits, m.cacheMisses, m.icsSyncs, m.planIncomplete)
	return m
}

// ObserveRequest records one operation and its latency.
func (m *Metrics) ObserveRequest(operation string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.requests.WithLabelValues(operation, status).Inc()
	m.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// CacheHit records a busy cache hit.
func (m *Metrics) CacheHit() {
	if m != nil {
		m.cacheHits.Inc()
	}
}

// CacheMiss records a busy cache miss.
func (m *Metrics) CacheMiss() {
	if m != nil {
		m.cacheMisses.Inc()
	}
}

// ICSSync records a feed synchronisation.
func (m *Metrics) ICSSync(feed string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.icsSyncs.WithLabelValues(feed, status).Inc()
}

// PlanIncomplete records an insufficient plan.
func (m *Metrics) PlanIncomplete() {
	if m != nil {
		m.planIncomplete.Inc()
	}
}
