package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	kaamsetu = "kaamsetu"

	// Job metrics
	jobTransitionsTotal = "job_transitions_total"

	// Assignment metrics
	assignmentAttemptsTotal = "assignment_attempts_total"

	// Application metrics
	applicationsTotal = "applications_total"

	// Rating sync metrics
	ratingSyncTotal   = "rating_sync_total"
	ratingSyncPending = "rating_sync_pending"

	// Subscription metrics
	ActiveSubscriptions = "active_subscriptions"

	// Labels
	statusLabel = "status"
	resultLabel = "result"
	kindLabel   = "kind"
)

/**
* Metrics definition
**/
var jobTransitionsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: kaamsetu,
		Name:      jobTransitionsTotal,
		Help:      "number of job status transitions partitioned by target status",
	},
	[]string{statusLabel},
)

var assignmentAttemptsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: kaamsetu,
		Name:      assignmentAttemptsTotal,
		Help:      "number of assignment attempts partitioned by result",
	},
	[]string{resultLabel},
)

var applicationsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: kaamsetu,
		Name:      applicationsTotal,
		Help:      "number of application submissions partitioned by result",
	},
	[]string{resultLabel},
)

var ratingSyncTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: kaamsetu,
		Name:      ratingSyncTotal,
		Help:      "number of rating propagations to the profile aggregate partitioned by result",
	},
	[]string{resultLabel},
)

var ratingSyncPendingMetric = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Subsystem: kaamsetu,
		Name:      ratingSyncPending,
		Help:      "number of ratings waiting to be propagated",
	},
)

var activeSubscriptionsMetric = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Subsystem: kaamsetu,
		Name:      ActiveSubscriptions,
		Help:      "number of live subscriptions partitioned by kind",
	},
	[]string{kindLabel},
)

func IncreaseJobTransitionsMetric(status string) {
	jobTransitionsTotalMetric.With(prometheus.Labels{statusLabel: status}).Inc()
}

func IncreaseAssignmentAttemptsMetric(result string) {
	assignmentAttemptsTotalMetric.With(prometheus.Labels{resultLabel: result}).Inc()
}

func IncreaseApplicationsMetric(result string) {
	applicationsTotalMetric.With(prometheus.Labels{resultLabel: result}).Inc()
}

func IncreaseRatingSyncMetric(result string) {
	ratingSyncTotalMetric.With(prometheus.Labels{resultLabel: result}).Inc()
}

func UpdateRatingSyncPendingMetric(count int) {
	ratingSyncPendingMetric.Set(float64(count))
}

func IncActiveSubscriptions(kind string) {
	activeSubscriptionsMetric.With(prometheus.Labels{kindLabel: kind}).Inc()
}

func DecActiveSubscriptions(kind string) {
	activeSubscriptionsMetric.With(prometheus.Labels{kindLabel: kind}).Dec()
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(jobTransitionsTotalMetric)
	prometheus.MustRegister(assignmentAttemptsTotalMetric)
	prometheus.MustRegister(applicationsTotalMetric)
	prometheus.MustRegister(ratingSyncTotalMetric)
	prometheus.MustRegister(ratingSyncPendingMetric)
	prometheus.MustRegister(activeSubscriptionsMetric)
}
