package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WorkerMetrics records processing outcomes for background workers such as
// the outbox publisher and the notification consumer.
type WorkerMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewWorkerMetrics registers the worker metrics on the provided registerer.
func NewWorkerMetrics(reg prometheus.Registerer) *WorkerMetrics {
	if reg == nil {
		return &WorkerMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "worker_task_duration_seconds",
		Help:    "Duration of worker task executions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"task"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "worker_task_success",
		Help: "Successful worker task executions.",
	}, []string{"task"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "worker_task_failure",
		Help: "Failed worker task executions.",
	}, []string{"task"})
	reg.MustRegister(duration, success, failure)
	return &WorkerMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

// ObserveDuration records the duration for the named task.
func (w *WorkerMetrics) ObserveDuration(task string, elapsed time.Duration) {
	if w == nil || w.duration == nil {
		return
	}
	w.duration.WithLabelValues(normalizeLabel(task)).Observe(elapsed.Seconds())
}

// IncSuccess increments the success counter for the named task.
func (w *WorkerMetrics) IncSuccess(task string) {
	if w == nil || w.success == nil {
		return
	}
	w.success.WithLabelValues(normalizeLabel(task)).Inc()
}

// IncFailure increments the failure counter for the named task.
func (w *WorkerMetrics) IncFailure(task string) {
	if w == nil || w.failure == nil {
		return
	}
	w.failure.WithLabelValues(normalizeLabel(task)).Inc()
}
