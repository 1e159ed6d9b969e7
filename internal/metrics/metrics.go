// Package metrics defines the Prometheus collectors for ingestion, retrieval,
// answer synthesis and HTTP traffic, and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the service. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	IngestionsTotal      *prometheus.CounterVec
	IngestionDuration    prometheus.Histogram
	PassagesIndexedTotal prometheus.Counter
	QuestionsTotal       *prometheus.CounterVec
	RetrievedPassages    prometheus.Histogram
	CompletionDuration   *prometheus.HistogramVec
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec

	registry *prometheus.Registry
}

// New creates all collectors and registers them on a dedicated registry.
func New() *Metrics {
	m := &Metrics{
		IngestionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docqa_ingestions_total",
				Help: "Total ingestion jobs by outcome (ready, validation, extraction, index).",
			},
			[]string{"outcome"},
		),
		IngestionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "docqa_ingestion_duration_seconds",
				Help:    "Time from upload to a terminal job state.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
		),
		PassagesIndexedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docqa_passages_indexed_total",
				Help: "Total passages written to index collections.",
			},
		),
		QuestionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docqa_questions_total",
				Help: "Total questions by outcome (answered, filename, no_context, synthesis_error).",
			},
			[]string{"outcome"},
		),
		RetrievedPassages: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "docqa_retrieved_passages",
				Help:    "Number of passages returned per retrieval.",
				Buckets: []float64{0, 1, 2, 3, 5, 10},
			},
		),
		CompletionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "docqa_completion_duration_seconds",
				Help:    "Language model completion latency by status.",
				Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
			},
			[]string{"status"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, route, and status.",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.IngestionsTotal,
		m.IngestionDuration,
		m.PassagesIndexedTotal,
		m.QuestionsTotal,
		m.RetrievedPassages,
		m.CompletionDuration,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveIngestion records one finished ingestion job.
func (m *Metrics) ObserveIngestion(outcome string, passages int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.IngestionsTotal.WithLabelValues(outcome).Inc()
	m.IngestionDuration.Observe(elapsed.Seconds())
	m.PassagesIndexedTotal.Add(float64(passages))
}

// ObserveRetrieval records how many passages a retrieval returned.
func (m *Metrics) ObserveRetrieval(n int) {
	if m == nil {
		return
	}
	m.RetrievedPassages.Observe(float64(n))
}

// ObserveQuestion records the outcome of one answered question.
func (m *Metrics) ObserveQuestion(outcome string) {
	if m == nil {
		return
	}
	m.QuestionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveCompletion records one language model call.
func (m *Metrics) ObserveCompletion(status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.CompletionDuration.WithLabelValues(status).Observe(elapsed.Seconds())
}

// ObserveHTTP records one served HTTP request.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
