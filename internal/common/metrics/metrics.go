// internal/common/metrics/metrics.go
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	QualificationScore = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "qualification_score",
			Help:    "Distribution of computed qualification scores",
			Buckets: []float64{0, 20, 40, 60, 80, 100},
		},
		[]string{"source"},
	)

	QualificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qualifications_total",
			Help: "Programs scored, by qualification verdict",
		},
		[]string{"source", "qualifies"},
	)

	RematchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rematch_requests_total",
			Help: "Re-matching requests published, by trigger and outcome",
		},
		[]string{"trigger", "outcome"},
	)
)

// ObserveJob records the outcome of one job. errorCode is empty on success.
func ObserveJob(taskType string, start time.Time, errorCode string) {
	WorkerJobDuration.WithLabelValues(taskType).Observe(time.Since(start).Seconds())
	if errorCode == "" {
		WorkerJobsCompleted.WithLabelValues(taskType).Inc()
		return
	}
	WorkerJobsFailed.WithLabelValues(taskType, errorCode).Inc()
}

// ObserveQualification records one scored program.
func ObserveQualification(source string, score int, qualifies bool) {
	QualificationScore.WithLabelValues(source).Observe(float64(score))
	QualificationsTotal.WithLabelValues(source, strconv.FormatBool(qualifies)).Inc()
}
