package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Renewal(OutcomeSuccess)
	m.Renewal(OutcomeSuccess)
	m.Renewal(OutcomeFailure)
	m.Queued()
	m.Replayed(200)
	m.Request(401)
	m.Request(0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.renewals.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.renewals.WithLabelValues(OutcomeFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queued))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.replayed.WithLabelValues("2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("4xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("error")))

	n, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Renewal(OutcomeStale)
		m.Queued()
		m.Replayed(200)
		m.Request(500)
	})
}

func TestMetrics_DoubleRegisterPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}

func TestStatusClass(t *testing.T) {
	tests := map[int]string{0: "error", 99: "other", 200: "2xx", 204: "2xx", 302: "3xx", 401: "4xx", 503: "5xx", 600: "other"}
	for in, want := range tests {
		assert.Equal(t, want, StatusClass(in), "status %d", in)
	}
}
