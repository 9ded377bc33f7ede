// Package prometheus exposes websum measurements as Prometheus metrics.
package prometheus

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/fwojciec/websum"
	"github.com/fwojciec/websum/pipeline"
	"github.com/fwojciec/websum/retry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	_ pipeline.Observer    = (*Metrics)(nil)
	_ websum.LanguageModel = (*Model)(nil)
)

const namespace = "websum"

// Metrics records pipeline, retry and model measurements on a private
// registry.
type Metrics struct {
	registry    *prometheus.Registry
	retries     *prometheus.CounterVec
	modelCalls  *prometheus.CounterVec
	urls        *prometheus.CounterVec
	recycles    *prometheus.CounterVec
	urlDuration prometheus.Histogram
}

// NewMetrics creates and registers all websum metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retries_total",
			Help:      "Retried attempts by operation.",
		}, []string{"operation"}),
		modelCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_calls_total",
			Help:      "Language model calls by result.",
		}, []string{"result"}),
		urls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "urls_total",
			Help:      "Processed URLs by status.",
		}, []string{"status"}),
		recycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "browser_recycles_total",
			Help:      "Browser recycles by result.",
		}, []string{"result"}),
		urlDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "url_duration_seconds",
			Help:      "Time spent processing a single URL.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}),
	}
	m.registry.MustRegister(m.retries, m.modelCalls, m.urls, m.recycles, m.urlDuration)
	return m
}

// Registry returns the registry holding the metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// URLProcessed implements pipeline.Observer.
func (m *Metrics) URLProcessed(status string, d time.Duration) {
	m.urls.WithLabelValues(status).Inc()
	if d > 0 {
		m.urlDuration.Observe(d.Seconds())
	}
}

// BrowserRecycled implements pipeline.Observer.
func (m *Metrics) BrowserRecycled(err error) {
	m.recycles.WithLabelValues(result(err)).Inc()
}

// OnRetry counts a retry. It is meant for retry.Policy.OnRetry.
// Operations are labelled by their first word so per-URL labels such as
// "navigate https://..." collapse into one series.
func (m *Metrics) OnRetry(e retry.Event) {
	op, _, _ := strings.Cut(e.Operation, " ")
	if op == "" {
		op = "unknown"
	}
	m.retries.WithLabelValues(op).Inc()
}

// ModelCalled records the outcome of one model call.
func (m *Metrics) ModelCalled(err error) {
	m.modelCalls.WithLabelValues(result(err)).Inc()
}

func result(err error) string {
	if err == nil {
		return "success"
	}
	return websum.ErrorCode(err)
}

// Model counts calls to a wrapped LanguageModel.
type Model struct {
	next    websum.LanguageModel
	metrics *Metrics
}

// NewModel wraps next so every Generate call is counted.
func NewModel(next websum.LanguageModel, metrics *Metrics) *Model {
	return &Model{next: next, metrics: metrics}
}

// Generate delegates to the wrapped model and records the result.
func (m *Model) Generate(ctx context.Context, prompt string) (string, error) {
	text, err := m.next.Generate(ctx, prompt)
	m.metrics.ModelCalled(err)
	return text, err
}
