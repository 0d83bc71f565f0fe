package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Counters
	tasksCompleted       *prometheus.CounterVec
	successorsCreated    prometheus.Counter
	momentsTasksCreated  prometheus.Counter
	momentsHouseholdErrs prometheus.Counter

	// Histograms
	sweepDuration prometheus.Histogram
}

// NewMetrics creates the metrics on a dedicated registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		tasksCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tasks_completed_total",
				Help: "Total number of tasks moved to DONE",
			},
			[]string{"recurring"},
		),
		successorsCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "recurrence_successors_created_total",
				Help: "Total number of next occurrences generated for recurring tasks",
			},
		),
		momentsTasksCreated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "moments_tasks_created_total",
				Help: "Total number of reminder tasks created from important dates",
			},
		),
		momentsHouseholdErrs: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "moments_household_failures_total",
				Help: "Total number of households whose moments sweep failed",
			},
		),
		sweepDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "moments_sweep_duration_seconds",
				Help:    "Duration of a full moments sweep",
				Buckets: prometheus.DefBuckets,
			},
		),
	}

	m.registry.MustRegister(
		m.tasksCompleted,
		m.successorsCreated,
		m.momentsTasksCreated,
		m.momentsHouseholdErrs,
		m.sweepDuration,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) TaskCompleted(recurring bool) {
	if m == nil {
		return
	}
	m.tasksCompleted.WithLabelValues(strconv.FormatBool(recurring)).Inc()
}

func (m *Metrics) SuccessorCreated() {
	if m == nil {
		return
	}
	m.successorsCreated.Inc()
}

// MomentsSwept records one sweep run
func (m *Metrics) MomentsSwept(created, failedHouseholds int, took time.Duration) {
	if m == nil {
		return
	}
	m.momentsTasksCreated.Add(float64(created))
	m.momentsHouseholdErrs.Add(float64(failedHouseholds))
	m.sweepDuration.Observe(took.Seconds())
}
