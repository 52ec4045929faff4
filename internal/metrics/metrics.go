// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	upstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_upstream_requests_total",
		Help: "Requests sent to the ticketing backend by endpoint and status code.",
	}, []string{"method", "endpoint", "code"})

	upstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "portal_upstream_request_duration_seconds",
		Help:    "Latency of requests to the ticketing backend.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"})

	paymentOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_payment_outcomes_total",
		Help: "Payment widget outcomes by actor role.",
	}, []string{"role", "outcome"})

	discountChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_discount_checks_total",
		Help: "Discount eligibility checks by result (applied, none, error).",
	}, []string{"result"})

	activePayments = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "portal_payments_in_flight",
		Help: "Payment tasks waiting for a widget outcome.",
	})
)

// ObserveUpstream records one backend call.  code is 0 for transport errors.
func ObserveUpstream(method, endpoint string, code int, d time.Duration) {
	upstreamRequests.WithLabelValues(method, endpoint, strconv.Itoa(code)).Inc()
	upstreamDuration.WithLabelValues(method, endpoint).Observe(d.Seconds())
}

// PaymentOutcome counts a settled payment task.
func PaymentOutcome(role, outcome string) {
	paymentOutcomes.WithLabelValues(role, outcome).Inc()
}

// DiscountCheck counts a discount resolution.
func DiscountCheck(result string) {
	discountChecks.WithLabelValues(result).Inc()
}

// PaymentStarted and PaymentSettled track tasks waiting on the widget.
func PaymentStarted() { activePayments.Inc() }
func PaymentSettled() { activePayments.Dec() }
