package httpx

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelcm/marketing-pulse/internal/config"
	"github.com/angelcm/marketing-pulse/internal/connector"
	"github.com/angelcm/marketing-pulse/internal/connector/demo"
	"github.com/angelcm/marketing-pulse/internal/insight"
	"github.com/angelcm/marketing-pulse/internal/kpi"
	"github.com/angelcm/marketing-pulse/internal/normalize"
	"github.com/angelcm/marketing-pulse/internal/pipeline"
	"github.com/angelcm/marketing-pulse/internal/store"
	"github.com/angelcm/marketing-pulse/internal/telemetry"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	reg := connector.NewRegistry()
	demo.Register(reg, 1)

	cfg := config.Config{WindowDays: 14, DemoMode: true}
	tel := telemetry.New("test")
	pipe := pipeline.New(reg, normalize.New(nil, log), store.NewMemoryCache(0), tel, log, cfg)
	srv := NewServer(pipe, insight.NewEngine(insight.DefaultBenchmarks()), kpi.DefaultThresholds(), tel, log)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, dst any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if dst != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
	}
	return resp
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	var body map[string]string
	resp := getJSON(t, ts.URL+"/healthz", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestDashboard(t *testing.T) {
	ts := newTestServer(t)
	var body map[string]json.RawMessage
	resp := getJSON(t, ts.URL+"/api/v1/dashboard", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for _, key := range []string{"snapshot", "kpis", "charts", "insights", "connections"} {
		assert.Contains(t, body, key)
	}
}

func TestOverview(t *testing.T) {
	ts := newTestServer(t)
	var body map[string]any
	resp := getJSON(t, ts.URL+"/api/v1/overview", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Greater(t, body["total_spend"].(float64), 0.0)
	assert.Greater(t, body["overall_roas"].(float64), 0.0)
}

func TestChannelsTrendsPerformance(t *testing.T) {
	ts := newTestServer(t)
	for _, path := range []string{"/api/v1/channels", "/api/v1/trends", "/api/v1/performance", "/api/v1/kpis", "/api/v1/charts", "/api/v1/insights", "/api/v1/quality"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		resp.Body.Close()
	}
}

func TestRefreshProducesNewSnapshot(t *testing.T) {
	ts := newTestServer(t)

	var first map[string]any
	resp, err := http.Post(ts.URL+"/api/v1/refresh", "application/json", nil)
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&first))
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var second map[string]any
	resp, err = http.Post(ts.URL+"/api/v1/refresh", "application/json", nil)
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&second))
	resp.Body.Close()

	assert.NotEqual(t, first["snapshot_id"], second["snapshot_id"])
	assert.Equal(t, 5.0, first["sources"])
}

func TestSources(t *testing.T) {
	ts := newTestServer(t)
	var body struct {
		Sources    []connector.Status `json:"sources"`
		Categories map[string][2]int  `json:"categories"`
	}
	resp := getJSON(t, ts.URL+"/api/v1/sources", &body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Len(t, body.Sources, 5)
	assert.Equal(t, "meta", body.Sources[0].ID)
	assert.Equal(t, [2]int{2, 2}, body.Categories["advertising"])
}

func TestExportCSV(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/v1/export.csv")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	assert.Equal(t, "date,spend,revenue,conversions,impressions,clicks", lines[0])
	// 14 dias de datos demo
	assert.Len(t, lines, 15)
}

func TestPrometheusEndpoint(t *testing.T) {
	ts := newTestServer(t)

	// genera algo de tráfico primero
	resp, err := http.Get(ts.URL + "/api/v1/overview")
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(b), "test_http_requests_total")
	assert.Contains(t, string(b), "test_refresh_total")
}

func TestUnknownRouteIs404(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/v1/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
