package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/andresuchdata/fulfillment-efficiency/backend-go/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeAllowedOrigins(t *testing.T) {
	cases := []struct {
		name     string
		in       []string
		want     []string
		allowAll bool
	}{
		{name: "comma separated", in: []string{"http://a.test, http://b.test"}, want: []string{"http://a.test", "http://b.test"}},
		{name: "wildcard", in: []string{"*"}, allowAll: true},
		{name: "blanks", in: []string{" ", ","}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, allowAll := normalizeAllowedOrigins(tc.in)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.allowAll, allowAll)
		})
	}
}

func TestNewRouter_HealthAndMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(nil, Options{Metrics: metrics.New(prometheus.NewRegistry())})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/efficiency/summary", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
