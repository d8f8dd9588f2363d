// Package metrics exposes the Prometheus collectors of the service: HTTP
// request metrics recorded by an Echo middleware and domain counters bumped
// by the use cases.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestCounter counts HTTP requests by route and status.
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	// RequestDuration records request latency in seconds.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path", "status"},
	)

	StatusCategoryCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_status_category_total",
			Help: "Total number of responses by status category (2xx, 4xx, 5xx)",
		},
		[]string{"service", "category"},
	)

	// StockMovements counts stock ledger adjustments by kind.
	StockMovements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hotel_stock_movements_total",
			Help: "Stock adjustments appended to the movement ledger",
		},
		[]string{"kind"},
	)

	// LedgerEntries counts billing recorder outcomes:
	// recorded, queued (handed to the retry queue) or dropped.
	LedgerEntries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hotel_ledger_entries_total",
			Help: "Automatic ledger entries by outcome",
		},
		[]string{"source", "outcome"},
	)

	// OrderTransitions counts restaurant order status changes by target status.
	OrderTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hotel_order_transitions_total",
			Help: "Restaurant order status transitions",
		},
		[]string{"status"},
	)

	// ReservationConflicts counts booking attempts rejected by the overlap check.
	ReservationConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hotel_reservation_conflicts_total",
			Help: "Reservations rejected because the room was already booked",
		},
	)
)

var registerOnce sync.Once

// Register adds every collector to the default registry. Safe to call more
// than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			StatusCategoryCounter,
			StockMovements,
			LedgerEntries,
			OrderTransitions,
			ReservationConflicts,
		)
	})
}

// HTTPMetrics records request metrics for one service name.
type HTTPMetrics struct {
	ServiceName string
}

func NewHTTPMetrics(serviceName string) *HTTPMetrics {
	Register()
	return &HTTPMetrics{ServiceName: serviceName}
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
	return ""
}

// Middleware records count, latency and status category of every request.
func (m *HTTPMetrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			method := c.Request().Method
			path := c.Path()
			statusStr := strconv.Itoa(status)

			RequestCounter.WithLabelValues(m.ServiceName, method, path, statusStr).Inc()
			RequestDuration.WithLabelValues(m.ServiceName, method, path, statusStr).Observe(time.Since(start).Seconds())
			if cat := statusCategory(status); cat != "" {
				StatusCategoryCounter.WithLabelValues(m.ServiceName, cat).Inc()
			}
			return err
		}
	}
}

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
