// Package telemetry owns the business counters shared by the services.
package telemetry

import "github.com/prometheus/client_golang/prometheus"

var (
	OrdersCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shop_orders_created_total",
		Help: "Orders created through checkout",
	})

	OrderTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_order_transitions_total",
			Help: "Order status changes by target status",
		},
		[]string{"status"},
	)

	NotificationsFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_notifications_failed_total",
			Help: "Notifications that could not be delivered",
		},
		[]string{"kind"},
	)

	ActivitiesTracked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shop_activities_tracked_total",
			Help: "User activity events recorded for recommendations",
		},
		[]string{"activity_type"},
	)
)

func init() {
	prometheus.MustRegister(OrdersCreated, OrderTransitions, NotificationsFailed, ActivitiesTracked)
}
