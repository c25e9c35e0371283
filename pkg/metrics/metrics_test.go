package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewRunMetrics(reg)
	require.NoError(t, err)

	m.ObserveRun("stream", "Completed", 2*time.Second)
	m.ObserveRun("stream", "Completed", time.Second)
	m.LogEvent("stdout")
	m.JanitorSweep(3, nil)
	m.JanitorSweep(0, errors.New("boom"))
	m.SetQueueDepth(4)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.runs.WithLabelValues("stream", "Completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.logEvents.WithLabelValues("stdout")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.janitorFreed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.janitorSweeps.WithLabelValues("error")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.queueDepth))

	_, err = NewRunMetrics(reg)
	require.Error(t, err, "second registration on the same registry")
}

func TestNilRunMetrics(t *testing.T) {
	var m *RunMetrics
	assert.NotPanics(t, func() {
		m.ObserveRun("sync", "Error", time.Second)
		m.LogEvent("stderr")
		m.SetQueueDepth(1)
		m.AddBusy(1)
		m.JanitorSweep(1, nil)
	})
}

func TestServerServesRegistry(t *testing.T) {
	server := ProvideServer(MetricsConfig{})
	m, err := ProvideRunMetrics(server)
	require.NoError(t, err)
	m.LogEvent("stdout")

	resp, err := server.App().Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `runstream_log_events_total{stream="stdout"} 1`)
}
