package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "docstore"

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	storageOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "storage_operations_total",
		Help:      "Object store operations by operation and result.",
	}, []string{"operation", "result"})

	logSinkWriteFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logsink_write_failures_total",
		Help:      "Log sink writes that failed and were dropped.",
	}, []string{"sink"})

	activityFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "activity_failures_total",
		Help:      "Activity events that could not be persisted or published.",
	})

	queueMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "queue_messages_total",
		Help:      "Activity queue messages handled by the worker, by result.",
	}, []string{"result"})
)

// Storage operation results.
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultInvalid  = "invalid"
	ResultError    = "error"
)

// ObserveRequest records one finished HTTP request.
func ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// IncStorageOperation counts an object store call.
func IncStorageOperation(operation, result string) {
	storageOperationsTotal.WithLabelValues(operation, result).Inc()
}

// IncLogSinkWriteFailure counts a dropped sink write.
func IncLogSinkWriteFailure(sink string) {
	logSinkWriteFailuresTotal.WithLabelValues(sink).Inc()
}

// IncActivityFailure counts an activity event that was lost.
func IncActivityFailure() {
	activityFailuresTotal.Inc()
}

// Queue message results.
const (
	QueueReceived      = "received"
	QueueCompleted     = "completed"
	QueueDuplicate     = "duplicate"
	QueueFailed        = "failed"
	QueueUnrecoverable = "unrecoverable"
)

// IncQueueMessage counts a worker outcome for one message.
func IncQueueMessage(result string) {
	queueMessagesTotal.WithLabelValues(result).Inc()
}

// QueueMessages exposes the worker counter for tests.
func QueueMessages(result string) prometheus.Counter {
	return queueMessagesTotal.WithLabelValues(result)
}

// StorageOperations exposes the storage counter for tests.
func StorageOperations(operation, result string) prometheus.Counter {
	return storageOperationsTotal.WithLabelValues(operation, result)
}

// LogSinkWriteFailures exposes the sink failure counter for tests.
func LogSinkWriteFailures(sink string) prometheus.Counter {
	return logSinkWriteFailuresTotal.WithLabelValues(sink)
}

// ActivityFailures exposes the activity failure counter for tests.
func ActivityFailures() prometheus.Counter {
	return activityFailuresTotal
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
