// Package metrics holds the Prometheus instruments of the service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var httpDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

// Graph rejection reasons.
const (
	RejectCycle      = "cycle"
	RejectCrossFlow  = "cross_flow"
	RejectDependents = "dependents"
)

// Metrics holds all Prometheus metric instruments. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	StepsCreatedTotal     *prometheus.CounterVec
	StepIDConflictsTotal  prometheus.Counter
	StepCapacityExhausted *prometheus.CounterVec
	StepGraphRejections   *prometheus.CounterVec
	StepsDeletedTotal     prometheus.Counter
	StepLinkChangesTotal  *prometheus.CounterVec
}

// New creates and registers all metric instruments on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "experiments_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "experiments_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: httpDurationBuckets,
		}, []string{"method", "route"}),

		StepsCreatedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "experiments_steps_created_total",
			Help: "Steps created, by step type.",
		}, []string{"step_type"}),
		StepIDConflictsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "experiments_step_id_conflicts_total",
			Help: "Step creations that lost an identifier race and were retried or failed.",
		}),
		StepCapacityExhausted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "experiments_step_capacity_exhausted_total",
			Help: "Step creations rejected because the type already used number 99 in the flow.",
		}, []string{"step_type"}),
		StepGraphRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "experiments_step_graph_rejections_total",
			Help: "Link or delete requests rejected by the step graph.",
		}, []string{"reason"}),
		StepsDeletedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "experiments_steps_deleted_total",
			Help: "Steps deleted.",
		}),
		StepLinkChangesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "experiments_step_link_changes_total",
			Help: "Accepted previous-step changes, by kind (set or clear).",
		}, []string{"kind"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.HTTPRequestsTotal,
			m.HTTPRequestDuration,
			m.StepsCreatedTotal,
			m.StepIDConflictsTotal,
			m.StepCapacityExhausted,
			m.StepGraphRejections,
			m.StepsDeletedTotal,
			m.StepLinkChangesTotal,
		)
	}
	return m
}

// RecordHTTPRequest records one served request.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// StepCreated counts a committed step.
func (m *Metrics) StepCreated(stepType string) {
	if m == nil {
		return
	}
	m.StepsCreatedTotal.WithLabelValues(stepType).Inc()
}

// StepIDConflict counts a lost identifier race.
func (m *Metrics) StepIDConflict() {
	if m == nil {
		return
	}
	m.StepIDConflictsTotal.Inc()
}

// CapacityExhausted counts a creation rejected at number 99.
func (m *Metrics) CapacityExhausted(stepType string) {
	if m == nil {
		return
	}
	m.StepCapacityExhausted.WithLabelValues(stepType).Inc()
}

// GraphRejected counts a rejected link or delete.
func (m *Metrics) GraphRejected(reason string) {
	if m == nil {
		return
	}
	m.StepGraphRejections.WithLabelValues(reason).Inc()
}

// StepDeleted counts a deleted step.
func (m *Metrics) StepDeleted() {
	if m == nil {
		return
	}
	m.StepsDeletedTotal.Inc()
}

// LinkChanged counts an accepted link change.
func (m *Metrics) LinkChanged(cleared bool) {
	if m == nil {
		return
	}
	kind := "set"
	if cleared {
		kind = "clear"
	}
	m.StepLinkChangesTotal.WithLabelValues(kind).Inc()
}
