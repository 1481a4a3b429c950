package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestCounter counts all HTTP requests with labels
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// RequestDurationHistogram records request duration in seconds
	RequestDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	StatusCodeCategoryCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_status_category_total",
			Help: "Total number of responses by status category (2xx, 4xx, 5xx)",
		},
		[]string{"category"},
	)

	BookingsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hostel_bookings_created_total",
		Help: "Bookings created successfully",
	})

	CapacityRejections = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hostel_booking_capacity_rejections_total",
		Help: "Booking attempts rejected because the room was full",
	})

	RoomStatusChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hostel_room_status_changes_total",
			Help: "Room status changes by target status",
		},
		[]string{"status"},
	)

	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hostel_notifications_total",
			Help: "Outbound notifications by result",
		},
		[]string{"result"},
	)

	AutomationRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hostel_automation_runs_total",
			Help: "Automation tasks logged by kind",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestCounter,
		RequestDurationHistogram,
		StatusCodeCategoryCounter,
		BookingsCreated,
		CapacityRejections,
		RoomStatusChanges,
		NotificationsTotal,
		AutomationRuns,
	)
}

func statusCategory(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500:
		return "5xx"
	}
	return "other"
}

// Middleware records request count and latency per route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()
		statusStr := strconv.Itoa(status)

		RequestCounter.WithLabelValues(c.Request.Method, path, statusStr).Inc()
		RequestDurationHistogram.WithLabelValues(c.Request.Method, path, statusStr).Observe(time.Since(start).Seconds())
		StatusCodeCategoryCounter.WithLabelValues(statusCategory(status)).Inc()
	}
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
