package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHealthEndpoint(t *testing.T) {
	handler := NewHealthHandler()

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var response map[string]string
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)

	assert.Equal(t, "ok", response["status"])
}

func TestRouter(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "edge_gate_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	hashed, err := bcrypt.GenerateFromPassword([]byte("scrape"), bcrypt.MinCost)
	require.NoError(t, err)

	var gated []string
	gate := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gated = append(gated, r.URL.Path)
		w.WriteHeader(http.StatusFound)
	})

	router := NewRouter(gate, &MetricsEndpoint{
		Path:           "/metrics",
		Gatherer:       reg,
		Username:       "prom",
		HashedPassword: string(hashed),
	})

	tests := []struct {
		name       string
		path       string
		basicAuth  bool
		wantStatus int
		wantGated  bool
	}{
		{name: "health", path: "/healthz", wantStatus: http.StatusOK},
		{name: "metrics_unauthenticated", path: "/metrics", wantStatus: http.StatusUnauthorized},
		{name: "metrics", path: "/metrics", basicAuth: true, wantStatus: http.StatusOK},
		{name: "root", path: "/", wantStatus: http.StatusFound, wantGated: true},
		{name: "nested", path: "/docs/page", wantStatus: http.StatusFound, wantGated: true},
		{name: "login", path: "/auth/login", wantStatus: http.StatusFound, wantGated: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gated = nil
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.basicAuth {
				req.SetBasicAuth("prom", "scrape")
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantGated {
				assert.Equal(t, []string{tt.path}, gated)
			} else {
				assert.Empty(t, gated)
			}
			if tt.name == "metrics" {
				assert.Contains(t, rec.Body.String(), "edge_gate_test_total 1")
			}
		})
	}
}

func TestRouter_NoMetrics(t *testing.T) {
	router := NewRouter(http.NotFoundHandler(), nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
