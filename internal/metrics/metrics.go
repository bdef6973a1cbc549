package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "afisha_http_request_duration_seconds",
		Help:    "HTTP request latency by method, route and status code",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	BookingsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "afisha_bookings_created_total",
		Help: "Bookings successfully created",
	})

	BookingsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "afisha_bookings_cancelled_total",
		Help: "Bookings cancelled",
	})

	WalletTransactions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "afisha_wallet_transactions_total",
		Help: "Wallet ledger entries by type",
	}, []string{"type"})
)

// Middleware records per-request latency. Uses the route template, not the raw
// path, so /api/bookings/42 does not explode label cardinality.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		httpRequestDuration.WithLabelValues(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
		).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the Prometheus scrape endpoint
func Handler() http.Handler {
	return promhttp.Handler()
}
