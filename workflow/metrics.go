package workflow

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks the orchestrator's own vocabulary (tasks, milestones,
// retries) rather than generic graph-node counters. All metrics are
// namespaced taskforge_ and labeled by run_id/node_id where that
// distinction matters.
type Metrics struct {
	StepLatency     *prometheus.HistogramVec
	RetriesTotal    *prometheus.CounterVec
	AbortsTotal     *prometheus.CounterVec
	UrgencyGauge    *prometheus.GaugeVec
	TasksCompleted  *prometheus.CounterVec
	MilestonesDone  *prometheus.CounterVec
}

// NewMetrics registers taskforge's metrics against reg. Pass
// prometheus.NewRegistry() in tests to avoid colliding with the global
// default registry across parallel test runs.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StepLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "taskforge",
			Name:      "node_latency_ms",
			Help:      "Latency of a single node execution in milliseconds.",
			Buckets:   []float64{10, 50, 100, 500, 1000, 5000, 10000, 30000, 60000},
		}, []string{"node_id"}),
		RetriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskforge",
			Name:      "retries_total",
			Help:      "Number of QA-triggered task retries.",
		}, []string{"run_id"}),
		AbortsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskforge",
			Name:      "aborts_total",
			Help:      "Number of tasks marked failed (planner aborts and exhausted retries).",
		}, []string{"run_id"}),
		UrgencyGauge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "taskforge",
			Name:      "urgency",
			Help:      "Current accumulated urgency score for a run.",
		}, []string{"run_id"}),
		TasksCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskforge",
			Name:      "tasks_completed_total",
			Help:      "Number of tasks marked complete.",
		}, []string{"run_id"}),
		MilestonesDone: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskforge",
			Name:      "milestones_completed_total",
			Help:      "Number of milestones the assessor marked complete.",
		}, []string{"run_id"}),
	}
	reg.MustRegister(m.StepLatency, m.RetriesTotal, m.AbortsTotal, m.UrgencyGauge, m.TasksCompleted, m.MilestonesDone)
	return m
}
