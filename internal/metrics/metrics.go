package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schutz_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "schutz_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint", "status"},
	)

	// Ingestion metrics
	IngestCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schutz_ingest_cycles_total",
			Help: "Total number of ingestion cycles by outcome",
		},
		[]string{"status"}, // status: ok, invalid, persistence_error
	)

	ReadingsPersisted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "schutz_readings_persisted_total",
			Help: "Total number of sensor readings persisted",
		},
	)

	CriticalReadingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schutz_critical_readings_total",
			Help: "Total number of readings classified critical",
		},
		[]string{"sensor_type"},
	)

	// Notification dispatch metrics
	DispatchAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schutz_dispatch_attempts_total",
			Help: "Total number of notification dispatch attempts",
		},
		[]string{"channel", "status"}, // status: success, failed
	)

	DispatchAttemptDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "schutz_dispatch_attempt_duration_seconds",
			Help:    "Time taken for one notification dispatch attempt",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"channel"},
	)

	DispatchInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "schutz_dispatch_in_flight",
			Help: "Number of notification attempts currently in flight",
		},
	)

	// Alert-event mirror metrics
	AlertEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schutz_alert_events_total",
			Help: "Total number of alert events mirrored to Kafka",
		},
		[]string{"status"}, // status: success, failed
	)

	// MQTT source metrics
	MQTTMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schutz_mqtt_messages_total",
			Help: "Total number of MQTT readings messages by outcome",
		},
		[]string{"status"}, // status: ok, invalid, failed
	)

	// Panic recovery
	PanicsRecovered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schutz_panics_recovered_total",
			Help: "Total number of panics recovered",
		},
		[]string{"component"},
	)
)
