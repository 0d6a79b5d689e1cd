// control/metrics_test.go
// Author: momentics <momentics@gmail.com>

package control

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics("loop-1", nil)
	m.OnSubmit()
	m.OnSubmit()
	m.OnComplete()
	m.OnResubmit()
	m.OnBacklog()
	m.OnSentinelExpired()
	m.SetDepth(3, 2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.submitted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.completed))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.inflight))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.backlog))

	snap := m.GetSnapshot()
	assert.Equal(t, 2.0, snap["uring_reactor_submitted_total"])
	assert.Equal(t, 1.0, snap["uring_reactor_sentinel_expired_total"])
	assert.Equal(t, 1.0, snap["uring_reactor_backlogged_total"])
}

func TestMetricsExposition(t *testing.T) {
	m := NewMetrics("loop-2", nil)
	m.OnComplete()

	expected := `
# HELP uring_reactor_completed_total Completions whose callback was invoked.
# TYPE uring_reactor_completed_total counter
uring_reactor_completed_total{loop="loop-2"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected),
		"uring_reactor_completed_total"))

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `uring_reactor_inflight{loop="loop-2"} 0`)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.OnSubmit()
	m.OnComplete()
	m.SetDepth(1, 1)
	assert.Empty(t, m.GetSnapshot())
}
