// Package metrics exposes WaZhop's Prometheus metrics: HTTP traffic,
// business events, background jobs and the database pool.
package metrics

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wazhop/backend/internal/infrastructure/scheduler"
)

const namespace = "wazhop"

// Registry owns a private Prometheus registry and every WaZhop collector
type Registry struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpInFlight prometheus.Gauge

	ordersPlaced   *prometheus.CounterVec
	orderValue     *prometheus.CounterVec
	orderStatus    *prometheus.CounterVec
	payments       *prometheus.CounterVec
	signups        prometheus.Counter
	upgrades       *prometheus.CounterVec
	lowStockAlerts prometheus.Counter

	jobRuns     *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec
}

// NewRegistry creates the registry with the Go runtime and process collectors
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}

	r.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "http",
		Name: "requests_total",
		Help: "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})
	r.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Subsystem: "http",
		Name:    "request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"method", "route"})
	r.httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: "http",
		Name: "requests_in_flight",
		Help: "Requests currently being served.",
	})

	r.ordersPlaced = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "orders",
		Name: "placed_total",
		Help: "Orders placed, by currency.",
	}, []string{"currency"})
	r.orderValue = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "orders",
		Name: "value_total",
		Help: "Sum of order totals in the order currency.",
	}, []string{"currency"})
	r.orderStatus = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "orders",
		Name: "status_changes_total",
		Help: "Order status transitions, by target status.",
	}, []string{"status"})
	r.payments = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "payments",
		Name: "transitions_total",
		Help: "Payment transactions reaching a status.",
	}, []string{"status"})
	r.signups = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "users",
		Name: "registered_total",
		Help: "User registrations.",
	})
	r.upgrades = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "subscriptions",
		Name: "changes_total",
		Help: "Subscription upgrades, renewals and expiries.",
	}, []string{"event", "plan"})
	r.lowStockAlerts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "catalog",
		Name: "low_stock_alerts_total",
		Help: "Products crossing their low stock threshold.",
	})

	r.jobRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "jobs",
		Name: "runs_total",
		Help: "Background job runs by task and outcome.",
	}, []string{"task", "status"})
	r.jobDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Subsystem: "jobs",
		Name:    "duration_seconds",
		Help:    "Background job run time.",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
	}, []string{"task"})

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.httpRequests, r.httpDuration, r.httpInFlight,
		r.ordersPlaced, r.orderValue, r.orderStatus, r.payments,
		r.signups, r.upgrades, r.lowStockAlerts,
		r.jobRuns, r.jobDuration,
	)
	return r
}

// RegisterDB exports connection pool statistics for sqlDB
func (r *Registry) RegisterDB(sqlDB *sql.DB, dbName string) error {
	return r.registry.Register(collectors.NewDBStatsCollector(sqlDB, dbName))
}

// Handler serves the registry in the Prometheus text format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Gatherer exposes the registry for tests and custom exporters
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// RequestStarted tracks an in-flight request; call the returned func when done
func (r *Registry) RequestStarted() func() {
	r.httpInFlight.Inc()
	return r.httpInFlight.Dec
}

// ObserveRequest records a finished HTTP request. route is the matched
// route template so label cardinality stays bounded.
func (r *Registry) ObserveRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// JobFinished implements scheduler.JobObserver
func (r *Registry) JobFinished(task string, status scheduler.JobStatus, d time.Duration) {
	r.jobRuns.WithLabelValues(task, string(status)).Inc()
	r.jobDuration.WithLabelValues(task).Observe(d.Seconds())
}
