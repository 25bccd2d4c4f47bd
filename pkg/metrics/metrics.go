// Package metrics exposes the controller's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "smartstorage"

// Registry holds every collector in this package plus the Go runtime and
// process collectors.
var Registry = prometheus.NewRegistry()

var (
	signalCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "signals_total",
			Help:      "Count of hardware signals by kind and routing result.",
		},
		[]string{"signal", "result"},
	)
	sessionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "finished_total",
			Help:      "Count of finished access sessions by outcome.",
		},
		[]string{"outcome"},
	)
	sessionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "duration_seconds",
			Help:      "Wall time from doorbell to reset, by outcome.",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 45, 60, 90, 120, 180},
		},
		[]string{"outcome"},
	)
	lockersOccupied = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "lockers",
			Name:      "occupied",
			Help:      "Number of lockers currently holding a package.",
		},
	)
	evictionCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lockers",
			Name:      "evictions_total",
			Help:      "Count of lockers reclaimed from an expired package.",
		},
	)
	actuationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "actuator",
			Name:      "commands_total",
			Help:      "Count of open/close commands by result.",
		},
		[]string{"action", "result"},
	)
	notificationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifier",
			Name:      "sent_total",
			Help:      "Count of notifications by kind and result.",
		},
		[]string{"kind", "result"},
	)
	apiCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Count of admin API requests by kind (command or status) and HTTP status.",
		},
		[]string{"kind", "status"},
	)
	kafkaCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "kafka",
			Name:      "messages_total",
			Help:      "Count of Kafka messages by direction and result.",
		},
		[]string{"direction", "result"},
	)
	kafkaDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "kafka",
			Name:      "duration_seconds",
			Help:      "Time spent publishing or handling a Kafka message.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"direction"},
	)
)

var registerMetrics sync.Once

// Register all metrics.
func Register() {
	registerMetrics.Do(func() {
		Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			signalCounter,
			sessionCounter,
			sessionDuration,
			lockersOccupied,
			evictionCounter,
			actuationCounter,
			notificationCounter,
			apiCounter,
			kafkaCounter,
			kafkaDuration,
		)
	})
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)

func result(err error) string {
	if err != nil {
		return ResultFailed
	}
	return ResultOK
}

func RecordSignal(signal, outcome string) {
	signalCounter.WithLabelValues(signal, outcome).Inc()
}

func RecordSession(outcome string, d time.Duration) {
	sessionCounter.WithLabelValues(outcome).Inc()
	sessionDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func SetLockersOccupied(n int) {
	lockersOccupied.Set(float64(n))
}

func RecordEviction() {
	evictionCounter.Inc()
}

func RecordActuation(action string, err error) {
	actuationCounter.WithLabelValues(action, result(err)).Inc()
}

func RecordNotification(kind string, err error) {
	notificationCounter.WithLabelValues(kind, result(err)).Inc()
}

func RecordKafka(direction string, d time.Duration, err error) {
	kafkaCounter.WithLabelValues(direction, result(err)).Inc()
	kafkaDuration.WithLabelValues(direction).Observe(d.Seconds())
}

func RecordAPIRequest(kind string, status int) {
	apiCounter.WithLabelValues(kind, strconv.Itoa(status)).Inc()
}
