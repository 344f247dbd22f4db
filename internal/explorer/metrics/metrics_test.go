package metrics_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/explorer/internal/explorer/metrics"
)

func TestCacheAndEmailCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.NewCollector(reg)

	c.CacheHit("app")
	c.CacheHit("app")
	c.CacheMiss("categories")
	c.CachePurge("app")
	c.EmailSent("verify_email", nil)
	c.EmailSent("reset_password", errors.New("boom"))

	n, err := testutil.GatherAndCount(reg,
		"explorer_cache_requests_total",
		"explorer_cache_purges_total",
		"explorer_emails_total",
	)
	require.NoError(t, err)
	require.Equal(t, 5, n)
}

func TestMiddlewareAndHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := metrics.NewCollector(reg)

	h := c.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	rec := httptest.NewRecorder()
	metrics.Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `explorer_http_requests_total{method="GET",status="418"} 1`)
	require.Contains(t, string(body), "explorer_http_request_duration_seconds_bucket")
}
