// Package monitoring defines the Prometheus collectors exposed on the
// metrics server.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UtterancesTotal counts processed caller utterances by intent.
	UtterancesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "khanabuddy_utterances_total",
		Help: "Caller utterances processed, labeled by classified intent.",
	}, []string{"intent"})

	// OrdersCreatedTotal counts orders accepted for preparation.
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "khanabuddy_orders_created_total",
		Help: "Orders created from completed sessions.",
	})

	// OrdersDeliveredTotal counts orders marked delivered.
	OrdersDeliveredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "khanabuddy_orders_delivered_total",
		Help: "Orders marked as delivered.",
	})

	// EventsPublishedTotal counts published change notifications by kind.
	EventsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "khanabuddy_events_published_total",
		Help: "Change notifications published, labeled by kind.",
	}, []string{"kind"})

	// ReconcilePassesTotal counts completed order-view recompute passes.
	ReconcilePassesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "khanabuddy_reconcile_passes_total",
		Help: "Completed reconciliation passes over open order views.",
	})

	// ActiveSessions tracks currently open ordering sessions.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "khanabuddy_active_sessions",
		Help: "Ordering sessions currently open.",
	})
)
