package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_ObserveOperation(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := New(reg)

	rec.ObserveOperation("accept_offer", "ok", 12*time.Millisecond)
	rec.ObserveOperation("accept_offer", "OFR_003", time.Millisecond)
	rec.ObserveOperation("accept_offer", "OFR_003", time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(rec.operations.WithLabelValues("accept_offer", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(rec.operations.WithLabelValues("accept_offer", "OFR_003")))
	assert.Equal(t, 1, testutil.CollectAndCount(rec.operationLatency))
}

func TestRecorder_ObserveSettlement(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := New(reg)

	rec.ObserveSettlement("USD", "EUR")

	expected := `
# HELP currency_exchange_engine_settlements_total Settled exchanges per currency pair
# TYPE currency_exchange_engine_settlements_total counter
currency_exchange_engine_settlements_total{from_currency="USD",to_currency="EUR"} 1
`
	err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "currency_exchange_engine_settlements_total")
	require.NoError(t, err)
}

func TestRecorder_ObserveHTTP_UnmatchedRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := New(reg)

	rec.ObserveHTTP("GET", "", 404, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(rec.httpRequests.WithLabelValues("GET", "unmatched", "404")))
}

func TestNew_DoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
