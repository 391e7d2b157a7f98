package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Booking outcomes.
const (
	OutcomeCreated          = "created"
	OutcomeInvalid          = "invalid"
	OutcomeConflictPreCheck = "conflict_pre_check"
	OutcomeConflictReCheck  = "conflict_re_check"
	OutcomeConflictInsert   = "conflict_insert"
	OutcomeError            = "error"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reservations",
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "reservations",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	bookingAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reservations",
		Name:      "booking_attempts_total",
		Help:      "Booking attempts by outcome.",
	}, []string{"outcome"})

	bookingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "reservations",
		Name:      "booking_duration_seconds",
		Help:      "Duration of the booking protocol up to commit.",
		Buckets:   prometheus.DefBuckets,
	})

	statusChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reservations",
		Name:      "status_changes_total",
		Help:      "Reservation status transitions by target status.",
	}, []string{"status"})

	notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reservations",
		Name:      "notifications_total",
		Help:      "Confirmation notifications by stage and result.",
	}, []string{"stage", "result"})

	ordersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "reservations",
		Name:      "orders_total",
		Help:      "Order writes by kind and outcome.",
	}, []string{"kind", "outcome"})
)

// ObserveBooking records the outcome of one booking attempt.
func ObserveBooking(outcome string, d time.Duration) {
	bookingAttempts.WithLabelValues(outcome).Inc()
	if outcome == OutcomeCreated {
		bookingDuration.Observe(d.Seconds())
	}
}

// IncStatusChange counts a status transition.
func IncStatusChange(status string) {
	statusChanges.WithLabelValues(status).Inc()
}

// IncNotification counts a notification step: stage is "publish" or
// "deliver", result is "ok" or "error".
func IncNotification(stage, result string) {
	notificationsTotal.WithLabelValues(stage, result).Inc()
}

// IncOrder counts an order write: kind is "order" or "item", outcome is
// "created", "out_of_stock", "invalid" or "error".
func IncOrder(kind, outcome string) {
	ordersTotal.WithLabelValues(kind, outcome).Inc()
}

// Middleware instruments echo requests. The route template is used as the
// path label to keep cardinality bounded.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			code := strconv.Itoa(status)
			httpRequestsTotal.WithLabelValues(c.Request().Method, path, code).Inc()
			httpRequestDuration.WithLabelValues(c.Request().Method, path, code).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
