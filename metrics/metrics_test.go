package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveLoad(t *testing.T) {
	m := New(prometheus.NewRegistry(), "test")

	m.ObserveLoad("village", nil, 2*time.Second, 42)
	m.ObserveLoad("village", errors.New("boom"), time.Second, 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.DatasetLoads.WithLabelValues("village", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DatasetLoads.WithLabelValues("village", "error")))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.DatasetRows.WithLabelValues("village")))
}

func TestCountersAndHandler(t *testing.T) {
	m := New(prometheus.NewRegistry(), "test")

	m.CacheLookup("state", true)
	m.CacheLookup("state", false)
	m.Search("district", "not_found")
	m.Conversion(nil)
	m.SectionFailed("summary")
	m.ObserveRequest(http.MethodGet, "/api/v1/lgd/{tier}", 200, 10*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("state", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Searches.WithLabelValues("district", "not_found")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "test_dashboard_section_failures_total"))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveLoad("state", nil, time.Second, 1)
		m.CacheLookup("state", true)
		m.Search("state", "matched")
		m.Conversion(errors.New("x"))
		m.SectionFailed("kpi")
		m.ObserveRequest("GET", "/", 200, time.Millisecond)
	})
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
