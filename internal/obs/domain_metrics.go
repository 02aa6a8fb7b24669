package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// ReportsBuiltTotal counts built order reports by order type.
	ReportsBuiltTotal *prometheus.CounterVec
	// ReconciliationAdjustmentsTotal counts reports whose last VAT group absorbed a rounding delta.
	ReconciliationAdjustmentsTotal *prometheus.CounterVec
	// NTAKRequestsTotal counts outbound NTAK calls by endpoint and outcome.
	NTAKRequestsTotal *prometheus.CounterVec
	// NTAKRequestDuration records outbound NTAK call latency in milliseconds.
	NTAKRequestDuration *prometheus.HistogramVec
	// SubmissionsTotal counts order and day-close submissions by kind and outcome.
	SubmissionsTotal *prometheus.CounterVec
	// VerifyStatusTotal counts verification results by NTAK status.
	VerifyStatusTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		ReportsBuiltTotal = registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_built_total",
			Help:      "Count of order reports built.",
		}, []string{"type"}))
		ReconciliationAdjustmentsTotal = registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciliation_adjustments_total",
			Help:      "Count of non-zero remainder corrections applied to the last VAT group.",
		}, []string{"kind"}))
		NTAKRequestsTotal = registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ntak_requests_total",
			Help:      "Count of NTAK API calls by outcome.",
		}, []string{"endpoint", "result"}))
		NTAKRequestDuration = registerOrReuse(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ntak_request_duration_ms",
			Help:      "Latency of NTAK API calls in milliseconds.",
			Buckets:   []float64{25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}, []string{"endpoint"}))
		SubmissionsTotal = registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Count of NTAK submissions by kind and outcome.",
		}, []string{"kind", "result"}))
		VerifyStatusTotal = registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verify_status_total",
			Help:      "Count of NTAK verification results by status.",
		}, []string{"status"}))
	})
}

// RecordReport counts a built report and any reconciliation corrections it needed.
func RecordReport(orderType string, discountDelta, serviceFeeDelta int64) {
	if ReportsBuiltTotal == nil {
		return
	}
	ReportsBuiltTotal.WithLabelValues(orderType).Inc()
	if discountDelta != 0 {
		ReconciliationAdjustmentsTotal.WithLabelValues("discount").Inc()
	}
	if serviceFeeDelta != 0 {
		ReconciliationAdjustmentsTotal.WithLabelValues("service_fee").Inc()
	}
}

// RecordNTAKRequest records the outcome and latency of one NTAK call.
func RecordNTAKRequest(endpoint, result string, durationMs float64) {
	if NTAKRequestsTotal == nil {
		return
	}
	NTAKRequestsTotal.WithLabelValues(endpoint, result).Inc()
	NTAKRequestDuration.WithLabelValues(endpoint).Observe(durationMs)
}

// RecordSubmission counts a submission outcome.
func RecordSubmission(kind, result string) {
	if SubmissionsTotal == nil {
		return
	}
	SubmissionsTotal.WithLabelValues(kind, result).Inc()
}

// RecordVerifyStatus counts a verification result.
func RecordVerifyStatus(status string) {
	if VerifyStatusTotal == nil {
		return
	}
	VerifyStatusTotal.WithLabelValues(status).Inc()
}
