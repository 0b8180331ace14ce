package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementOperation("submit", "ok")
	m.IncrementOperation("submit", "ok")
	m.ObserveSync(10*time.Millisecond, false)
	m.SetSizes(3, 2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Operations.WithLabelValues("submit", "ok")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.SyncLatency))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.QueueDepth))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.Records))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementOperation("verify", "queue_empty")
		m.ObserveSync(time.Second, true)
		m.SetSizes(1, 1)
	})
}
