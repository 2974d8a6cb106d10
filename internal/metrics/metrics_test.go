package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"kotlinls/internal/async"
	"kotlinls/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, srv *httptest.Server, path string) (int, string) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestRouter(t *testing.T) {
	reg := prometheus.NewRegistry()
	exec := async.NewExecutor(1, async.NewMetrics(reg))
	async.Submit(exec, "mainClass", func() (int, error) { return 1, nil })
	exec.Stop()

	srv := httptest.NewServer(metrics.Router(reg))
	defer srv.Close()

	code, body := get(t, srv, "/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok\n", body)

	code, body = get(t, srv, "/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, strings.Contains(body, `kotlinls_executor_tasks_submitted_total{task="mainClass"} 1`), body)

	code, _ = get(t, srv, "/nope")
	assert.Equal(t, http.StatusNotFound, code)
}
