package everly

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testLogger() Logger {
	return NewZapLogger(zap.NewNop())
}

// callLog records lifecycle calls across modules so tests can assert
// ordering.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) record(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.calls))
	copy(out, l.calls)
	return out
}

// testModule is a scriptable Module implementation.
type testModule struct {
	name       string
	deps       []string
	initErr    error
	cleanupErr error
	healthFn   func(ctx context.Context) HealthSnapshot
	routesFn   func() chi.Router
	log        *callLog
}

func (m *testModule) Descriptor() Descriptor {
	return Descriptor{Name: m.name, Version: "0.0.1", Dependencies: m.deps}
}

func (m *testModule) Init(context.Context, *Resources) error {
	if m.log != nil {
		m.log.record("init:" + m.name)
	}
	return m.initErr
}

func (m *testModule) Routes() chi.Router {
	if m.routesFn != nil {
		return m.routesFn()
	}
	r := chi.NewRouter()
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, "pong from %s", m.name)
	})
	return r
}

func (m *testModule) Cleanup(context.Context) error {
	if m.log != nil {
		m.log.record("cleanup:" + m.name)
	}
	return m.cleanupErr
}

func (m *testModule) Health(ctx context.Context) HealthSnapshot {
	if m.healthFn != nil {
		return m.healthFn(ctx)
	}
	return HealthSnapshot{Module: m.name, Healthy: true, CheckedAt: time.Now()}
}

func newTestManager(t *testing.T, opts ...Option) *Manager {
	t.Helper()
	return NewManager(testLogger(), &Resources{Logger: testLogger()}, opts...)
}

func TestRegisterRejectsEmptyName(t *testing.T) {
	mgr := newTestManager(t)
	err := mgr.Register(&testModule{name: ""})
	assert.ErrorIs(t, err, ErrModuleNameEmpty)
}

func TestRegisterRejectsSelfDependency(t *testing.T) {
	mgr := newTestManager(t)
	err := mgr.Register(&testModule{name: "loop", deps: []string{"loop"}})
	assert.ErrorIs(t, err, ErrModuleSelfDependency)
}

func TestRegisterRejectsDuplicateName(t *testing.T) {
	mgr := newTestManager(t)
	require.NoError(t, mgr.Register(&testModule{name: "auth"}))
	err := mgr.Register(&testModule{name: "auth"})
	assert.ErrorIs(t, err, ErrModuleAlreadyRegistered)

	// The original registration survives.
	state, ok := mgr.ModuleState("auth")
	require.True(t, ok)
	assert.Equal(t, StateRegistered, state)
	assert.Len(t, mgr.Modules(), 1)
}

func TestRegisterRejectedAfterStart(t *testing.T) {
	mgr := newTestManager(t)
	require.NoError(t, mgr.Register(&testModule{name: "auth"}))
	require.NoError(t, mgr.Start(context.Background()))

	err := mgr.Register(&testModule{name: "late"})
	assert.ErrorIs(t, err, ErrManagerNotIdle)
}

func TestStartInitializesInDependencyOrder(t *testing.T) {
	log := &callLog{}
	mgr := newTestManager(t)
	require.NoError(t, mgr.Register(&testModule{name: "diaries", deps: []string{"auth", "users"}, log: log}))
	require.NoError(t, mgr.Register(&testModule{name: "users", deps: []string{"auth"}, log: log}))
	require.NoError(t, mgr.Register(&testModule{name: "auth", log: log}))

	require.NoError(t, mgr.Start(context.Background()))

	assert.Equal(t, []string{"init:auth", "init:users", "init:diaries"}, log.all())
	assert.Equal(t, ManagerRunning, mgr.State())
	for _, name := range []string{"auth", "users", "diaries"} {
		state, ok := mgr.ModuleState(name)
		require.True(t, ok)
		assert.Equal(t, StateReady, state, name)
	}
	assert.NotNil(t, mgr.Router())
}

func TestStartTwiceFails(t *testing.T) {
	mgr := newTestManager(t)
	require.NoError(t, mgr.Register(&testModule{name: "auth"}))
	require.NoError(t, mgr.Start(context.Background()))

	err := mgr.Start(context.Background())
	assert.ErrorIs(t, err, ErrManagerAlreadyStarted)
}

func TestStartFailsOnMissingDependency(t *testing.T) {
	log := &callLog{}
	mgr := newTestManager(t)
	require.NoError(t, mgr.Register(&testModule{name: "users", deps: []string{"auth"}, log: log}))

	err := mgr.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrModuleDependencyMissing)
	assert.Equal(t, ManagerStartFailed, mgr.State())
	assert.Empty(t, log.all(), "no module Init may run when resolution fails")
}

func TestStartRollsBackOnInitFailure(t *testing.T) {
	log := &callLog{}
	boom := errors.New("database migration failed")
	mgr := newTestManager(t)
	require.NoError(t, mgr.Register(&testModule{name: "a", log: log}))
	require.NoError(t, mgr.Register(&testModule{name: "b", deps: []string{"a"}, log: log}))
	require.NoError(t, mgr.Register(&testModule{name: "c", deps: []string{"b"}, initErr: boom, log: log}))

	err := mgr.Start(context.Background())
	require.Error(t, err)

	var startErr *StartError
	require.ErrorAs(t, err, &startErr)
	assert.Equal(t, "c", startErr.Module)
	assert.ErrorIs(t, startErr.Err, boom)
	assert.Empty(t, startErr.Rollback)

	// a and b come back down in reverse initialization order.
	assert.Equal(t, []string{"init:a", "init:b", "init:c", "cleanup:b", "cleanup:a"}, log.all())
	assert.Equal(t, ManagerStartFailed, mgr.State())

	for name, want := range map[string]ModuleState{"a": StateStopped, "b": StateStopped, "c": StateFailed} {
		state, ok := mgr.ModuleState(name)
		require.True(t, ok)
		assert.Equal(t, want, state, name)
	}
	assert.Nil(t, mgr.Router(), "no routes are exposed after a failed start")
}

func TestStartErrorPreservedWhenRollbackAlsoFails(t *testing.T) {
	log := &callLog{}
	initBoom := errors.New("c init exploded")
	cleanupBoom := errors.New("a cleanup exploded")
	mgr := newTestManager(t)
	require.NoError(t, mgr.Register(&testModule{name: "a", cleanupErr: cleanupBoom, log: log}))
	require.NoError(t, mgr.Register(&testModule{name: "b", deps: []string{"a"}, log: log}))
	require.NoError(t, mgr.Register(&testModule{name: "c", deps: []string{"b"}, initErr: initBoom, log: log}))

	err := mgr.Start(context.Background())
	require.Error(t, err)

	var startErr *StartError
	require.ErrorAs(t, err, &startErr)
	assert.ErrorIs(t, startErr.Err, initBoom, "the original init error is never masked")
	assert.ErrorIs(t, err, initBoom)

	require.Len(t, startErr.Rollback, 1)
	assert.Equal(t, "a", startErr.Rollback[0].Module)
	assert.ErrorIs(t, startErr.Rollback[0].Err, cleanupBoom)

	// b's cleanup still ran despite a's failure being recorded.
	assert.Equal(t, []string{"init:a", "init:b", "init:c", "cleanup:b", "cleanup:a"}, log.all())
}

func TestStopCleansUpInReverseOrder(t *testing.T) {
	log := &callLog{}
	mgr := newTestManager(t)
	require.NoError(t, mgr.Register(&testModule{name: "auth", log: log}))
	require.NoError(t, mgr.Register(&testModule{name: "users", deps: []string{"auth"}, log: log}))
	require.NoError(t, mgr.Register(&testModule{name: "media", deps: []string{"auth"}, log: log}))
	require.NoError(t, mgr.Start(context.Background()))

	require.NoError(t, mgr.Stop(context.Background()))

	assert.Equal(t, []string{
		"init:auth", "init:users", "init:media",
		"cleanup:media", "cleanup:users", "cleanup:auth",
	}, log.all())
	assert.Equal(t, ManagerStopped, mgr.State())
}

func TestStopCollectsCleanupFailures(t *testing.T) {
	log := &callLog{}
	boomA := errors.New("a would not close")
	boomC := errors.New("c would not close")
	mgr := newTestManager(t)
	require.NoError(t, mgr.Register(&testModule{name: "a", cleanupErr: boomA, log: log}))
	require.NoError(t, mgr.Register(&testModule{name: "b", log: log}))
	require.NoError(t, mgr.Register(&testModule{name: "c", cleanupErr: boomC, log: log}))
	require.NoError(t, mgr.Start(context.Background()))

	err := mgr.Stop(context.Background())
	require.Error(t, err)

	var shutdownErr *ShutdownError
	require.ErrorAs(t, err, &shutdownErr)
	require.Len(t, shutdownErr.Failures, 2)
	assert.Equal(t, "c", shutdownErr.Failures[0].Module)
	assert.Equal(t, "a", shutdownErr.Failures[1].Module)

	// Every module was cleaned despite the failures.
	assert.Equal(t, []string{
		"init:a", "init:b", "init:c",
		"cleanup:c", "cleanup:b", "cleanup:a",
	}, log.all())
	assert.Equal(t, ManagerStopped, mgr.State())
}

func TestStopIsIdempotent(t *testing.T) {
	log := &callLog{}
	mgr := newTestManager(t)
	require.NoError(t, mgr.Register(&testModule{name: "auth", log: log}))
	require.NoError(t, mgr.Start(context.Background()))

	require.NoError(t, mgr.Stop(context.Background()))
	require.NoError(t, mgr.Stop(context.Background()))

	assert.Equal(t, []string{"init:auth", "cleanup:auth"}, log.all(),
		"cleanup must not run twice")
}

func TestStopWithoutStartIsNoOp(t *testing.T) {
	mgr := newTestManager(t)
	require.NoError(t, mgr.Register(&testModule{name: "auth"}))
	assert.NoError(t, mgr.Stop(context.Background()))
}

func TestStopAfterFailedStartSkipsFailedModule(t *testing.T) {
	log := &callLog{}
	mgr := newTestManager(t)
	require.NoError(t, mgr.Register(&testModule{name: "a", log: log}))
	require.NoError(t, mgr.Register(&testModule{name: "b", deps: []string{"a"}, initErr: errors.New("nope"), log: log}))

	require.Error(t, mgr.Start(context.Background()))
	// Rollback already cleaned a; a second Stop finds nothing to do.
	require.NoError(t, mgr.Stop(context.Background()))

	assert.Equal(t, []string{"init:a", "init:b", "cleanup:a"}, log.all())
}

func TestModulesViewKeepsRegistrationOrder(t *testing.T) {
	mgr := newTestManager(t)
	require.NoError(t, mgr.Register(&testModule{name: "zeta"}))
	require.NoError(t, mgr.Register(&testModule{name: "alpha"}))

	infos := mgr.Modules()
	require.Len(t, infos, 2)
	assert.Equal(t, "zeta", infos[0].Descriptor.Name)
	assert.Equal(t, "alpha", infos[1].Descriptor.Name)
	assert.Equal(t, "registered", infos[0].StateName)
}

func TestModuleStateUnknownModule(t *testing.T) {
	mgr := newTestManager(t)
	_, ok := mgr.ModuleState("ghost")
	assert.False(t, ok)
}
