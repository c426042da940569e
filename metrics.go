package main

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec

	ordersPlaced    prometheus.Counter
	orderRevenue    prometheus.Counter
	bookingsCreated prometheus.Counter
	stockRejected   prometheus.Counter
	statusChanges   *prometheus.CounterVec
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &metrics{
		registry: reg,
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path", "status_code"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		ordersPlaced: f.NewCounter(prometheus.CounterOpts{
			Name: "ayush_orders_placed_total",
			Help: "Orders accepted at checkout.",
		}),
		orderRevenue: f.NewCounter(prometheus.CounterOpts{
			Name: "ayush_order_revenue_total",
			Help: "Sum of server computed order totals.",
		}),
		bookingsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "ayush_bookings_created_total",
			Help: "Pooja bookings created.",
		}),
		stockRejected: f.NewCounter(prometheus.CounterOpts{
			Name: "ayush_stock_reservation_failures_total",
			Help: "Checkouts rejected for lack of stock.",
		}),
		statusChanges: f.NewCounterVec(prometheus.CounterOpts{
			Name: "ayush_status_changes_total",
			Help: "Order and booking status transitions.",
		}, []string{"kind", "to"}),
	}
}

func (m *metrics) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}
		m.requests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.latency.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

func (m *metrics) handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
