package async

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records executor activity. A nil *Metrics records nothing.
type Metrics struct {
	submitted *prometheus.CounterVec
	completed *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// NewMetrics registers the executor metrics on reg. A nil reg creates
// unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		submitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kotlinls",
			Subsystem: "executor",
			Name:      "tasks_submitted_total",
			Help:      "Tasks submitted to the executor, by task name.",
		}, []string{"task"}),
		completed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kotlinls",
			Subsystem: "executor",
			Name:      "tasks_completed_total",
			Help:      "Tasks completed by the executor, by task name and outcome.",
		}, []string{"task", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "kotlinls",
			Subsystem: "executor",
			Name:      "task_duration_seconds",
			Help:      "Time spent running a task body.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"task"}),
	}
}

func (m *Metrics) taskSubmitted(name string) {
	if m == nil {
		return
	}
	m.submitted.WithLabelValues(name).Inc()
}

func (m *Metrics) taskCompleted(name string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "fulfilled"
	if err != nil {
		outcome = "failed"
	}
	m.completed.WithLabelValues(name, outcome).Inc()
	m.duration.WithLabelValues(name).Observe(elapsed.Seconds())
}
