package annotate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts what a run did. Wired into the Runner the same way the
// store gets its own registry in tests and one-shot invocations.
type Metrics struct {
	DashboardsAnnotated prometheus.Counter
	DashboardsFailed    prometheus.Counter
	WidgetsAnnotated    prometheus.Counter
}

// NewMetrics creates run metrics registered on r.
func NewMetrics(r prometheus.Registerer) *Metrics {
	return &Metrics{
		DashboardsAnnotated: promauto.With(r).NewCounter(prometheus.CounterOpts{
			Namespace: "cwnote",
			Name:      "dashboards_annotated_total",
			Help:      "Dashboards whose merged body was persisted.",
		}),
		DashboardsFailed: promauto.With(r).NewCounter(prometheus.CounterOpts{
			Namespace: "cwnote",
			Name:      "dashboards_failed_total",
			Help:      "Dashboards that could not be annotated.",
		}),
		WidgetsAnnotated: promauto.With(r).NewCounter(prometheus.CounterOpts{
			Namespace: "cwnote",
			Name:      "widgets_annotated_total",
			Help:      "Widgets that received a vertical annotation.",
		}),
	}
}
