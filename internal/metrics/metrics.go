// Package metrics exposes the Prometheus collectors for the payment flow.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the collectors. A nil *Metrics records nothing.
type Metrics struct {
	transactionsCreated  prometheus.Counter
	quotaRejected        prometheus.Counter
	statusUpdates        *prometheus.CounterVec
	deliveries           *prometheus.CounterVec
	retentionFolders     *prometheus.CounterVec
	expirySweep          *prometheus.CounterVec
	providerLatency      *prometheus.HistogramVec
	httpRequestsDuration *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		transactionsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "photobox_transactions_created_total",
			Help: "Transactions created with an issued QR code",
		}),
		quotaRejected: f.NewCounter(prometheus.CounterOpts{
			Name: "photobox_quota_rejections_total",
			Help: "Transaction creations rejected because the price quota was used up",
		}),
		statusUpdates: f.NewCounterVec(prometheus.CounterOpts{
			Name: "photobox_status_updates_total",
			Help: "Provider status reports by source, reported status and whether they changed the transaction",
		}, []string{"source", "status", "applied"}),
		deliveries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "photobox_deliveries_total",
			Help: "Photo delivery attempts by outcome",
		}, []string{"outcome"}),
		retentionFolders: f.NewCounterVec(prometheus.CounterOpts{
			Name: "photobox_retention_folders_total",
			Help: "Photo folders processed by the retention sweep by outcome",
		}, []string{"outcome"}),
		expirySweep: f.NewCounterVec(prometheus.CounterOpts{
			Name: "photobox_expiry_sweep_total",
			Help: "Stale pending transactions handled by the expiry sweep by outcome",
		}, []string{"outcome"}),
		providerLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "photobox_provider_request_duration_seconds",
			Help:    "Payment provider request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation", "result"}),
		httpRequestsDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "photobox_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) TransactionCreated() {
	if m == nil {
		return
	}

	m.transactionsCreated.Inc()
}

func (m *Metrics) QuotaRejected() {
	if m == nil {
		return
	}

	m.quotaRejected.Inc()
}

func (m *Metrics) StatusUpdate(source, status string, applied bool) {
	if m == nil {
		return
	}

	m.statusUpdates.WithLabelValues(source, status, strconv.FormatBool(applied)).Inc()
}

func (m *Metrics) Delivery(outcome string) {
	if m == nil {
		return
	}

	m.deliveries.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RetentionSweep(deleted, failed int) {
	if m == nil {
		return
	}

	m.retentionFolders.WithLabelValues("deleted").Add(float64(deleted))
	m.retentionFolders.WithLabelValues("failed").Add(float64(failed))
}

func (m *Metrics) ExpirySweep(expired, settled, skipped int) {
	if m == nil {
		return
	}

	m.expirySweep.WithLabelValues("expired").Add(float64(expired))
	m.expirySweep.WithLabelValues("settled").Add(float64(settled))
	m.expirySweep.WithLabelValues("skipped").Add(float64(skipped))
}

func (m *Metrics) ProviderRequest(operation string, started time.Time, err error) {
	if m == nil {
		return
	}

	result := "ok"
	if err != nil {
		result = "error"
	}

	m.providerLatency.WithLabelValues(operation, result).Observe(time.Since(started).Seconds())
}

func (m *Metrics) HTTPRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}

	m.httpRequestsDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
