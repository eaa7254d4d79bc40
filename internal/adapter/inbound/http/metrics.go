// Package http provides the inbound HTTP transport for Admission Gate.
package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for Admission Gate.
// Pass to components that need to record metrics.
type Metrics struct {
	RequestsTotal      *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	AdmissionDecisions *prometheus.CounterVec
	AdmissionFailOpen  prometheus.Counter
	GuardVerdicts      *prometheus.CounterVec
	ViolationLogSize   prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RequestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "admissiongate",
				Name:      "requests_total",
				Help:      "Total number of requests processed by the gate",
			},
			[]string{"method", "status"}, // method=GET/POST/..., status=ok/error
		),
		RequestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "admissiongate",
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   prometheus.DefBuckets, // 5ms to 10s
			},
			[]string{"method"},
		),
		AdmissionDecisions: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "admissiongate",
				Name:      "admission_decisions_total",
				Help:      "Total admission decisions",
			},
			[]string{"dimension", "allowed"}, // dimension=ip/route/user/none, allowed=true/false
		),
		AdmissionFailOpen: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "admissiongate",
				Name:      "admission_fail_open_total",
				Help:      "Total requests admitted uncounted because the counter store was unreachable",
			},
		),
		GuardVerdicts: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "admissiongate",
				Name:      "guard_verdicts_total",
				Help:      "Total outbound URL guard verdicts",
			},
			[]string{"safe"}, // safe=true/false
		),
		ViolationLogSize: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace: "admissiongate",
				Name:      "violation_log_size",
				Help:      "Number of denials currently held in the violation ring buffer",
			},
		),
	}
}
