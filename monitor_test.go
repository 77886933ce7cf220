package everly

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthMonitorStartStop(t *testing.T) {
	mgr := newTestManager(t)
	hm := NewHealthMonitor(mgr, testLogger(), "@every 1h")

	require.NoError(t, hm.Start())
	assert.Error(t, hm.Start(), "double start must fail")

	hm.Stop()
	hm.Stop() // stopping again is a no-op

	require.NoError(t, hm.Start(), "a stopped monitor can be restarted")
	hm.Stop()
}

func TestHealthMonitorRejectsBadSchedule(t *testing.T) {
	mgr := newTestManager(t)
	hm := NewHealthMonitor(mgr, testLogger(), "not a cron spec")
	assert.Error(t, hm.Start())
}

func TestHealthMonitorPollSkipsUnlessRunning(t *testing.T) {
	checked := false
	mgr := newTestManager(t)
	require.NoError(t, mgr.Register(&testModule{name: "auth", healthFn: func(context.Context) HealthSnapshot {
		checked = true
		return HealthSnapshot{Module: "auth", Healthy: true, CheckedAt: time.Now()}
	}}))

	hm := NewHealthMonitor(mgr, testLogger(), "@every 1h")
	hm.poll()
	assert.False(t, checked, "idle manager must not be polled")

	require.NoError(t, mgr.Start(context.Background()))
	hm.poll()
	assert.True(t, checked)
}

func TestHealthMonitorTracksTransitions(t *testing.T) {
	healthy := true
	mgr := newTestManager(t)
	require.NoError(t, mgr.Register(&testModule{name: "auth", healthFn: func(context.Context) HealthSnapshot {
		return HealthSnapshot{Module: "auth", Healthy: healthy, CheckedAt: time.Now()}
	}}))
	require.NoError(t, mgr.Start(context.Background()))

	hm := NewHealthMonitor(mgr, testLogger(), "@every 1h")

	hm.poll()
	assert.Equal(t, StatusHealthy, hm.last)

	healthy = false
	hm.poll()
	assert.Equal(t, StatusDegraded, hm.last)

	healthy = true
	hm.poll()
	assert.Equal(t, StatusHealthy, hm.last)
}
