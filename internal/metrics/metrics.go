package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Intake
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signalrelay_events_total",
			Help: "Total number of webhook events received",
		},
		[]string{"status"},
	)

	StoredEvents = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "signalrelay_store_events",
			Help: "Number of events currently held in the in-memory store",
		},
	)

	// Detached delivery tasks
	TasksDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "signalrelay_tasks_dropped_total",
			Help: "Total number of notification tasks dropped because the queue was full",
		},
	)

	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "signalrelay_task_queue_depth",
			Help: "Current depth of the notification task queue",
		},
	)

	// Sinks
	SinkDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signalrelay_sink_deliveries_total",
			Help: "Total number of sink delivery attempts",
		},
		[]string{"sink", "result"},
	)

	SinkDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "signalrelay_sink_delivery_duration_seconds",
			Help:    "Duration of sink delivery attempts in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"sink"},
	)

	// Translation
	Translations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signalrelay_translations_total",
			Help: "Total number of translation attempts",
		},
		[]string{"result"},
	)
)
