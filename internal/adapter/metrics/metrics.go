// Package metrics exposes settlement and HTTP metrics through Prometheus.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "currency_exchange"

// Recorder implements ports.SettlementMetrics and collects HTTP request
// metrics for the gateway.
type Recorder struct {
	operations       *prometheus.CounterVec
	operationLatency *prometheus.HistogramVec
	settlements      *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpLatency      *prometheus.HistogramVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "operations_total",
				Help:      "Settlement engine operations by outcome error code",
			},
			[]string{"operation", "outcome"},
		),
		operationLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "operation_duration_seconds",
				Help:      "Duration of settlement engine operations",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		settlements: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "settlements_total",
				Help:      "Settled exchanges per currency pair",
			},
			[]string{"from_currency", "to_currency"},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		httpLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// ObserveOperation records one engine call. outcome is "ok" or an error code.
func (r *Recorder) ObserveOperation(op, outcome string, d time.Duration) {
	r.operations.WithLabelValues(op, outcome).Inc()
	r.operationLatency.WithLabelValues(op).Observe(d.Seconds())
}

// ObserveSettlement counts a settled exchange.
func (r *Recorder) ObserveSettlement(fromCurrency, toCurrency string) {
	r.settlements.WithLabelValues(fromCurrency, toCurrency).Inc()
}

// ObserveHTTP records a served request. route is the matched route pattern.
func (r *Recorder) ObserveHTTP(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.httpLatency.WithLabelValues(method, route).Observe(d.Seconds())
}
