// Package observability exposes Prometheus metrics for the habit tracker.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	habitsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "habit_tracker",
		Subsystem: "habits",
		Name:      "created_total",
		Help:      "Number of habits created.",
	})
	habitToggles = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "habit_tracker",
		Subsystem: "habits",
		Name:      "toggles_total",
		Help:      "Completion toggles by resulting state.",
	}, []string{"state"})
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "habit_tracker",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})
	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "habit_tracker",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)

func init() {
	prometheus.MustRegister(habitsCreated, habitToggles, httpRequests, httpDuration)
}

// RecordHabitCreated counts a newly created habit.
func RecordHabitCreated() {
	habitsCreated.Inc()
}

// RecordToggle counts a toggle by the state it left the habit in.
func RecordToggle(completed bool) {
	state := "uncompleted"
	if completed {
		state = "completed"
	}
	habitToggles.WithLabelValues(state).Inc()
}

// ObserveHTTPRequest records one served request.
func ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
