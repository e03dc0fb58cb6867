package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "truckslot"

var (
	once sync.Once

	availabilityRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "availability_requests_total",
			Help:      "Count of availability computations by outcome.",
		},
		[]string{"outcome"},
	)

	resolvedDays = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolved_days_total",
			Help:      "Count of resolved terminal days by configuration source.",
		},
		[]string{"source"},
	)

	overflowSlots = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "overflow_slots_total",
			Help:      "Count of slots reported with more bookings than capacity.",
		},
		[]string{"terminal_id"},
	)

	unmatchedBookings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unmatched_bookings_total",
			Help:      "Count of bookings whose start time matches no generated slot.",
		},
		[]string{"terminal_id"},
	)

	scheduleChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schedule_changes_total",
			Help:      "Count of administrative schedule changes by event type.",
		},
		[]string{"event"},
	)

	validationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "override_validation_failures_total",
			Help:      "Count of rejected overrides by validation code.",
		},
		[]string{"code"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Count of HTTP requests by route and status.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   []float64{.005, .01, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"method", "route"},
	)

	rateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Count of requests rejected by the rate limiter.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			availabilityRequests,
			resolvedDays,
			overflowSlots,
			unmatchedBookings,
			scheduleChanges,
			validationFailures,
			httpRequests,
			httpDuration,
			rateLimited,
		)
	})
}

func IncAvailabilityRequest(outcome string) {
	availabilityRequests.WithLabelValues(outcome).Inc()
}

func IncResolvedDay(source string) {
	resolvedDays.WithLabelValues(source).Inc()
}

func AddOverflowSlots(terminalID int64, n int) {
	if n > 0 {
		overflowSlots.WithLabelValues(strconv.FormatInt(terminalID, 10)).Add(float64(n))
	}
}

func AddUnmatchedBookings(terminalID int64, n int) {
	if n > 0 {
		unmatchedBookings.WithLabelValues(strconv.FormatInt(terminalID, 10)).Add(float64(n))
	}
}

func IncScheduleChange(event string) {
	scheduleChanges.WithLabelValues(event).Inc()
}

func IncValidationFailure(code string) {
	validationFailures.WithLabelValues(code).Inc()
}

func ObserveHTTPRequest(method, route string, status int, seconds float64) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(seconds)
}

func IncRateLimited() {
	rateLimited.Inc()
}
