package everly

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthyFn(name string) func(ctx context.Context) HealthSnapshot {
	return func(context.Context) HealthSnapshot {
		return HealthSnapshot{Module: name, Healthy: true, CheckedAt: time.Now()}
	}
}

func TestAggregateHealthAllHealthy(t *testing.T) {
	mgr := newTestManager(t)
	for _, name := range []string{"auth", "users", "media"} {
		require.NoError(t, mgr.Register(&testModule{name: name, healthFn: healthyFn(name)}))
	}
	require.NoError(t, mgr.Start(context.Background()))

	agg := mgr.AggregateHealth(context.Background())

	assert.Equal(t, StatusHealthy, agg.Status)
	assert.Equal(t, "running", agg.ManagerState)
	require.Len(t, agg.Modules, 3)
	// Breakdown follows registration order regardless of check completion.
	assert.Equal(t, "auth", agg.Modules[0].Module)
	assert.Equal(t, "users", agg.Modules[1].Module)
	assert.Equal(t, "media", agg.Modules[2].Module)
	for _, s := range agg.Modules {
		assert.True(t, s.Healthy, s.Module)
	}
	assert.False(t, agg.GeneratedAt.IsZero())
}

func TestAggregateHealthOneUnhealthyDegradesAggregate(t *testing.T) {
	mgr := newTestManager(t)
	require.NoError(t, mgr.Register(&testModule{name: "auth", healthFn: healthyFn("auth")}))
	require.NoError(t, mgr.Register(&testModule{name: "diaries", healthFn: func(context.Context) HealthSnapshot {
		return HealthSnapshot{
			Module:    "diaries",
			Healthy:   false,
			Detail:    map[string]any{"database": "connection refused"},
			CheckedAt: time.Now(),
		}
	}}))
	require.NoError(t, mgr.Start(context.Background()))

	agg := mgr.AggregateHealth(context.Background())

	assert.Equal(t, StatusDegraded, agg.Status)
	assert.True(t, agg.Modules[0].Healthy)
	assert.False(t, agg.Modules[1].Healthy)
	assert.Equal(t, "connection refused", agg.Modules[1].Detail["database"])
}

func TestAggregateHealthSlowModuleTimesOut(t *testing.T) {
	mgr := newTestManager(t, WithHealthTimeout(50*time.Millisecond))
	require.NoError(t, mgr.Register(&testModule{name: "auth", healthFn: healthyFn("auth")}))
	require.NoError(t, mgr.Register(&testModule{name: "stuck", healthFn: func(context.Context) HealthSnapshot {
		// Ignores the deadline entirely; the aggregate must not stall.
		time.Sleep(2 * time.Second)
		return HealthSnapshot{Module: "stuck", Healthy: true}
	}}))
	require.NoError(t, mgr.Register(&testModule{name: "media", healthFn: healthyFn("media")}))
	require.NoError(t, mgr.Start(context.Background()))

	began := time.Now()
	agg := mgr.AggregateHealth(context.Background())
	elapsed := time.Since(began)

	assert.Less(t, elapsed, time.Second, "aggregate must be bounded by the per-module timeout")
	assert.Equal(t, StatusDegraded, agg.Status)

	require.Len(t, agg.Modules, 3)
	assert.True(t, agg.Modules[0].Healthy)
	assert.False(t, agg.Modules[1].Healthy)
	assert.Equal(t, "health check timed out", agg.Modules[1].Detail["reason"])
	assert.True(t, agg.Modules[2].Healthy, "other modules are unaffected by the slow one")
}

func TestAggregateHealthChecksRunConcurrently(t *testing.T) {
	const delay = 100 * time.Millisecond
	slow := func(name string) func(context.Context) HealthSnapshot {
		return func(context.Context) HealthSnapshot {
			time.Sleep(delay)
			return HealthSnapshot{Module: name, Healthy: true, CheckedAt: time.Now()}
		}
	}

	mgr := newTestManager(t, WithHealthTimeout(2*time.Second))
	for _, name := range []string{"a", "b", "c", "d"} {
		require.NoError(t, mgr.Register(&testModule{name: name, healthFn: slow(name)}))
	}
	require.NoError(t, mgr.Start(context.Background()))

	began := time.Now()
	agg := mgr.AggregateHealth(context.Background())
	elapsed := time.Since(began)

	assert.Equal(t, StatusHealthy, agg.Status)
	// Four sequential checks would need 4x the delay.
	assert.Less(t, elapsed, 3*delay, "checks must fan out concurrently")
}

func TestAggregateHealthReportsNonReadyModules(t *testing.T) {
	mgr := newTestManager(t)
	require.NoError(t, mgr.Register(&testModule{name: "auth"}))

	// Never started: the module is still registered, not ready.
	agg := mgr.AggregateHealth(context.Background())

	assert.Equal(t, StatusDegraded, agg.Status)
	assert.Equal(t, "idle", agg.ManagerState)
	require.Len(t, agg.Modules, 1)
	assert.False(t, agg.Modules[0].Healthy)
	assert.Equal(t, "registered", agg.Modules[0].Detail["state"])
}

func TestAggregateHealthFillsMissingSnapshotFields(t *testing.T) {
	mgr := newTestManager(t)
	require.NoError(t, mgr.Register(&testModule{name: "sloppy", healthFn: func(context.Context) HealthSnapshot {
		return HealthSnapshot{Healthy: true} // no name, no timestamp
	}}))
	require.NoError(t, mgr.Start(context.Background()))

	agg := mgr.AggregateHealth(context.Background())
	require.Len(t, agg.Modules, 1)
	assert.Equal(t, "sloppy", agg.Modules[0].Module)
	assert.False(t, agg.Modules[0].CheckedAt.IsZero())
}
