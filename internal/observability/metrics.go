package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_http_requests_total",
			Help: "Total number of HTTP requests processed by the realtime service.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "realtime_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	socketActiveConnections = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "realtime_socket_active_connections",
			Help: "Number of active socket connections.",
		},
		[]string{"transport"},
	)
	socketEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_socket_events_total",
			Help: "Total number of socket lifecycle events.",
		},
		[]string{"transport", "event"},
	)
	busPublishesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_bus_publishes_total",
			Help: "Total number of bus publishes by outcome.",
		},
		[]string{"outcome"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "realtime_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		socketActiveConnections,
		socketEventsTotal,
		busPublishesTotal,
		amqpPublishErrorsTotal,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func IncSocketActive(transport string) {
	socketActiveConnections.WithLabelValues(transport).Inc()
}

func DecSocketActive(transport string) {
	socketActiveConnections.WithLabelValues(transport).Dec()
}

func IncSocketEvent(transport, event string) {
	socketEventsTotal.WithLabelValues(transport, event).Inc()
}

// IncBusPublish records a publish outcome: delivered, dropped or no_bus.
func IncBusPublish(outcome string) {
	busPublishesTotal.WithLabelValues(outcome).Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
