package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_LabelsByRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/items/{itemId}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/"+id, nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	require.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues(http.MethodGet, "/items/{itemId}", "418")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues(http.MethodGet, "unmatched", "404")))

	count, err := testutil.GatherAndCount(reg, "http_requests_total")
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestMetrics_CountsAuthOutcomes(t *testing.T) {
	before := testutil.ToFloat64(testServer.metrics.sessionsCreated.WithLabelValues("register"))
	failures := testutil.ToFloat64(testServer.metrics.authFailures.WithLabelValues("unauthenticated"))

	registerUser(t)
	rr := doRequest(t, http.MethodGet, "/api/v1/me", nil, "")
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	require.Equal(t, before+1, testutil.ToFloat64(testServer.metrics.sessionsCreated.WithLabelValues("register")))
	require.Equal(t, failures+1, testutil.ToFloat64(testServer.metrics.authFailures.WithLabelValues("unauthenticated")))
}
