package metric

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/ringbuf/errors"
	"github.com/c360/ringbuf/health"
)

func getHealth(t *testing.T, server *Server) (int, health.Status) {
	t.Helper()
	ts := httptest.NewServer(server.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	var status health.Status
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	return resp.StatusCode, status
}

func TestServer_HealthMonitor(t *testing.T) {
	monitor := health.NewMonitor()
	server := NewServer(0, "/metrics", NewMetricsRegistry(), nil)
	server.SetHealthMonitor(monitor, "ringsampler")

	monitor.Update("sensor", health.NewDegraded("sensor", "spill queue holding 3 samples"))
	code, status := getHealth(t, server)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ringsampler", status.Component)
	assert.True(t, status.IsDegraded())
	require.Len(t, status.SubStatuses, 1)
	assert.Equal(t, "sensor", status.SubStatuses[0].Component)

	monitor.Update("sensor", health.NewUnhealthy("sensor", "sink failing"))
	code, status = getHealth(t, server)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.True(t, status.IsUnhealthy())
}

func TestServer_RejectsHealthPathForMetrics(t *testing.T) {
	for _, p := range []string{"/health", "/health/"} {
		server := NewServer(0, p, NewMetricsRegistry(), nil)

		var err error
		require.NotPanics(t, func() { err = server.Start() })
		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrInvalidConfig)
		assert.True(t, errors.IsInvalid(err))
		assert.Empty(t, server.Address())
	}
}
