// Package metrics exposes Prometheus counters for the token lifecycle.
//
// A nil *Metrics is valid and records nothing.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "gophauth"

// Renewal outcomes.
const (
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeNoRefresh = "no_refresh_token"
	OutcomeStale     = "stale_token"
)

type Metrics struct {
	renewals *prometheus.CounterVec
	queued   prometheus.Counter
	replayed *prometheus.CounterVec
	requests *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		renewals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_renewals_total",
			Help:      "Token renewal attempts by outcome.",
		}, []string{"outcome"}),
		queued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renewal_waiters_total",
			Help:      "Requests that waited for an in-flight renewal.",
		}),
		replayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_replayed_total",
			Help:      "Requests replayed after a 401, by final status class.",
		}, []string{"status"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "API requests by status class.",
		}, []string{"status"}),
	}
	reg.MustRegister(m.renewals, m.queued, m.replayed, m.requests)
	return m
}

func (m *Metrics) Renewal(outcome string) {
	if m == nil {
		return
	}
	m.renewals.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Queued() {
	if m == nil {
		return
	}
	m.queued.Inc()
}

func (m *Metrics) Replayed(status int) {
	if m == nil {
		return
	}
	m.replayed.WithLabelValues(StatusClass(status)).Inc()
}

func (m *Metrics) Request(status int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(StatusClass(status)).Inc()
}

// StatusClass buckets an HTTP status as "2xx".."5xx". Zero means the
// request never got a response.
func StatusClass(status int) string {
	switch {
	case status == 0:
		return "error"
	case status < 200 || status > 599:
		return "other"
	default:
		return string(rune('0'+status/100)) + "xx"
	}
}
