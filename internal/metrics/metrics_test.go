package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"parish_feeds/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	m := metrics.New()
	m.Observe("news", metrics.OutcomeOK, 10*time.Millisecond)
	m.Observe("news", metrics.OutcomeOK, 20*time.Millisecond)
	m.Observe("blog", metrics.OutcomeBadStatus, time.Millisecond)

	require.Equal(t, 2.0, testutil.ToFloat64(m.Fetches.WithLabelValues("news", metrics.OutcomeOK)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Fetches.WithLabelValues("blog", metrics.OutcomeBadStatus)))
}

func TestObserve_Nil(t *testing.T) {
	var m *metrics.Metrics
	require.NotPanics(t, func() { m.Observe("news", metrics.OutcomeOK, time.Second) })
}

func TestHandler(t *testing.T) {
	m := metrics.New()
	m.Observe("calendar", metrics.OutcomeTransport, time.Millisecond)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `feeds_fetch_total{feed="calendar",outcome="transport_error"} 1`)
}
