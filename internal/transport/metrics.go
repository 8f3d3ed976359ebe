package transport

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects client side request metrics, to be interpreted by Prometheus.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with registry.
// Collectors already registered by a previous call are reused, so clients sharing a registry share their metrics.
// A nil registry leaves the collectors unregistered.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	labels := []string{"client", "code", "method"}

	return &Metrics{
		requests: register(registry, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "akamai_api_requests_total",
				Help: "Tracks the number of requests sent to Akamai.",
			}, labels,
		)),
		duration: register(registry, prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "akamai_api_request_duration_seconds",
				Help: "Tracks the latencies of requests sent to Akamai.",
				// Remote calls, uploads included. Max of 40.96.
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 13),
			}, labels,
		)),
	}
}

// register registers c with registry, returning the existing collector if an identical one is already registered.
// It panics on any other registration error.
func register[C prometheus.Collector](registry prometheus.Registerer, c C) C {
	if registry == nil {
		return c
	}

	err := registry.Register(c)
	if err == nil {
		return c
	}

	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing
		}
	}
	panic(err)
}

func (m *Metrics) instrument(client string, next http.RoundTripper) http.RoundTripper {
	l := prometheus.Labels{"client": client}

	return promhttp.InstrumentRoundTripperCounter(
		m.requests.MustCurryWith(l),
		promhttp.InstrumentRoundTripperDuration(
			m.duration.MustCurryWith(l),
			next,
		),
	)
}
