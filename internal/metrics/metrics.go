package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notify_events_ingested_total",
		Help: "Events accepted by the ingest endpoint, by type and outcome.",
	}, []string{"type", "outcome"})

	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notify_notifications_created_total",
		Help: "Notification rows newly written, by type.",
	}, []string{"type"})

	NotificationsDeduplicated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notify_notifications_deduplicated_total",
		Help: "Inserts skipped because (event_id, recipient_id) already existed.",
	}, []string{"type"})

	PushesDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notify_pushes_delivered_total",
		Help: "Messages handed to a live connection, by channel.",
	}, []string{"channel"})

	PushesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notify_pushes_dropped_total",
		Help: "Messages dropped because the connection buffer was full.",
	}, []string{"channel"})

	LiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "notify_live_connections",
		Help: "Currently joined realtime connections.",
	})

	LiveUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "notify_live_users",
		Help: "Users with at least one joined realtime connection.",
	})
)
