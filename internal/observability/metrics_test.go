package observability

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_ObserveRequest(t *testing.T) {
	m := MustNewMetrics(prometheus.NewRegistry())

	m.ObserveRequest("plan", nil, 20*time.Millisecond)
	m.ObserveRequest("plan", nil, 30*time.Millisecond)
	m.ObserveRequest("plan", errors.New("boom"), time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("plan", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("plan", "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestMetrics_Counters(t *testing.T) {
	m := MustNewMetrics(prometheus.NewRegistry())

	m.CacheHit()
	m.CacheMiss()
	m.CacheMiss()
	m.PlanIncomplete()
	m.ICSSync("work", nil)
	m.ICSSync("work", errors.New("404"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheHits))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheMisses))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.planIncomplete))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.icsSyncs.WithLabelValues("work", "error")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("plan", nil, time.Second)
		m.CacheHit()
		m.CacheMiss()
		m.ICSSync("x", nil)
		m.PlanIncomplete()
	})
}

func TestMustNewMetrics_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	MustNewMetrics(reg)
	assert.Panics(t, func() { MustNewMetrics(reg) })
}
