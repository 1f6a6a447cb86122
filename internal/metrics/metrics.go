package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Logins counts login attempts by result (ok, invalid, error).
	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classroll_logins_total",
		Help: "Login attempts by result.",
	}, []string{"result"})

	// Submissions counts attendance submissions by result
	// (accepted, duplicate, invalid, error).
	Submissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classroll_submissions_total",
		Help: "Attendance submissions by result.",
	}, []string{"result"})

	// RecordsWritten counts persisted attendance records.
	RecordsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "classroll_records_written_total",
		Help: "Attendance records persisted.",
	})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "classroll_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// GinMiddleware observes request latency per matched route.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		requestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
