// Package metrics exposes Prometheus instruments for the generation pipeline.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dishcraft"

// Metrics holds the pipeline instruments
type Metrics struct {
	modelAttempts      *prometheus.CounterVec
	generations        *prometheus.CounterVec
	imageResolutions   *prometheus.CounterVec
	imageFetchAttempts *prometheus.CounterVec
	imageInFlight      prometheus.Gauge
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// New registers the instruments with reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		modelAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "model",
				Name:      "attempts_total",
				Help:      "Model calls by access path, model identifier and outcome",
			},
			[]string{"path", "model", "outcome"},
		),
		generations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "generation",
				Name:      "responses_total",
				Help:      "Generation responses by dish source",
			},
			[]string{"source"},
		),
		imageResolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "image",
				Name:      "resolutions_total",
				Help:      "Image resolutions by how the URL was obtained",
			},
			[]string{"outcome"},
		),
		imageFetchAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "image",
				Name:      "fetch_attempts_total",
				Help:      "Image endpoint fetch attempts by result",
			},
			[]string{"result"},
		),
		imageInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "image",
				Name:      "in_flight",
				Help:      "Image fetches currently holding a concurrency slot",
			},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"method", "route"},
		),
	}
}

// ModelAttempt counts one model call on the sdk or http path
func (m *Metrics) ModelAttempt(path, model, outcome string) {
	if m == nil {
		return
	}
	m.modelAttempts.WithLabelValues(path, model, outcome).Inc()
}

// Generation counts one answered generation request by dish source
func (m *Metrics) Generation(source string) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(source).Inc()
}

// ImageResolution counts one resolved image by the step that produced its URL
func (m *Metrics) ImageResolution(outcome string) {
	if m == nil {
		return
	}
	m.imageResolutions.WithLabelValues(outcome).Inc()
}

// ImageFetchAttempt counts one HTTP attempt against the image endpoint
func (m *Metrics) ImageFetchAttempt(result string) {
	if m == nil {
		return
	}
	m.imageFetchAttempts.WithLabelValues(result).Inc()
}

// SetImageInFlight reports how many image fetches hold the concurrency gate
func (m *Metrics) SetImageInFlight(n int) {
	if m == nil {
		return
	}
	m.imageInFlight.Set(float64(n))
}

// ObserveRequest records one finished HTTP request
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
