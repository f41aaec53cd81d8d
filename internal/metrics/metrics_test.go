package metrics_test

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/photobox/internal/metrics"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.TransactionCreated()
	m.TransactionCreated()
	m.QuotaRejected()
	m.StatusUpdate("webhook", "COMPLETED", true)
	m.StatusUpdate("webhook", "COMPLETED", false)
	m.RetentionSweep(3, 1)
	m.ProviderRequest("create_qr", time.Now(), errors.New("timeout"))

	count, err := testutil.GatherAndCount(reg,
		"photobox_transactions_created_total",
		"photobox_quota_rejections_total",
		"photobox_status_updates_total",
		"photobox_retention_folders_total",
		"photobox_provider_request_duration_seconds",
	)
	require.NoError(t, err)
	assert.Equal(t, 7, count)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *metrics.Metrics

	assert.NotPanics(t, func() {
		m.TransactionCreated()
		m.QuotaRejected()
		m.StatusUpdate("expiry", "EXPIRED", true)
		m.Delivery("sent")
		m.RetentionSweep(1, 0)
		m.ExpirySweep(1, 0, 0)
		m.ProviderRequest("query_status", time.Now(), nil)
		m.HTTPRequest("GET", "/health", 200, time.Millisecond)
	})
}
