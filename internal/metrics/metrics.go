// Package metrics exposes Prometheus collectors for the service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "eventmgmt"

// Registry is the Prometheus registry for all service metrics.
var Registry = prometheus.NewRegistry()

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeDropped = "dropped"
)

var (
	// RegistrationOps counts register/unregister calls by operation and result.
	RegistrationOps = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registration_operations_total",
			Help:      "Register and unregister calls by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	// EventOps counts event lifecycle calls by operation and result.
	EventOps = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_operations_total",
			Help:      "Event create, update and delete calls by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	// Notifications counts notifications by kind and delivery outcome.
	Notifications = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notifications by kind and outcome (success, failure, dropped)",
		},
		[]string{"kind", "outcome"},
	)

	// NotificationQueueDepth tracks pending notifications.
	NotificationQueueDepth = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "notification_queue_depth",
			Help:      "Notifications waiting for a worker",
		},
	)
)

func init() {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

// Result maps an error to an outcome label.
func Result(err error) string {
	if err != nil {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
