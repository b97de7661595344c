// Package metrics exposes Prometheus counters for flowchart loads and saves.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the flowchart metrics on an isolated Prometheus registry.
// All methods are safe on a nil *Registry, which records nothing.
type Registry struct {
	registry *prometheus.Registry

	SavesTotal       *prometheus.CounterVec
	StepWritesTotal  *prometheus.CounterVec
	SaveDuration     prometheus.Histogram
	LoadsTotal       *prometheus.CounterVec
	LoadIssuesTotal  *prometheus.CounterVec
	ValidationIssues prometheus.Counter
}

// NewRegistry creates the metric set.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}

	r.SavesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowchart_saves_total",
			Help: "Flowchart save attempts by outcome",
		},
		[]string{"result"},
	)
	r.StepWritesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowchart_step_writes_total",
			Help: "Process step writes by operation and status",
		},
		[]string{"operation", "status"},
	)
	r.SaveDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "flowchart_save_duration_seconds",
			Help:    "Duration of a full flowchart save",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)
	r.LoadsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowchart_loads_total",
			Help: "Flowchart loads by outcome",
		},
		[]string{"result"},
	)
	r.LoadIssuesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowchart_load_issues_total",
			Help: "Records excluded or conflicting during load, by kind",
		},
		[]string{"kind"},
	)
	r.ValidationIssues = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "flowchart_validation_messages_total",
			Help: "Validation messages that blocked a save",
		},
	)
	return r
}

// Save outcomes.
const (
	ResultOK                = "ok"
	ResultValidationFailed  = "validation_failed"
	ResultPersistenceFailed = "persistence_failed"
	ResultNotFound          = "not_found"
)

func (r *Registry) ObserveSave(result string, seconds float64) {
	if r == nil {
		return
	}
	r.SavesTotal.WithLabelValues(result).Inc()
	r.SaveDuration.Observe(seconds)
}

func (r *Registry) ObserveStepWrite(operation string, err error) {
	if r == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.StepWritesTotal.WithLabelValues(operation, status).Inc()
}

func (r *Registry) ObserveValidation(messages int) {
	if r == nil {
		return
	}
	r.ValidationIssues.Add(float64(messages))
}

func (r *Registry) ObserveLoad(result string) {
	if r == nil {
		return
	}
	r.LoadsTotal.WithLabelValues(result).Inc()
}

func (r *Registry) ObserveLoadIssue(kind string) {
	if r == nil {
		return
	}
	r.LoadIssuesTotal.WithLabelValues(kind).Inc()
}

// Gatherer exposes the underlying registry, e.g. for tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
