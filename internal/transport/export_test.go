package transport

import "github.com/prometheus/client_golang/prometheus"

// Requests returns the request counter for tests.
func (m *Metrics) Requests() *prometheus.CounterVec {
	return m.requests
}
