package everly

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"
)

const defaultHealthTimeout = 5 * time.Second

// moduleEntry is one registry slot. The registry is owned exclusively by
// the Manager; nothing else mutates it.
type moduleEntry struct {
	module     Module
	descriptor Descriptor
	state      ModuleState
	lastHealth *HealthSnapshot
}

// Manager is the lifecycle orchestrator. It owns the module registry,
// resolves declared dependencies into a deterministic initialization order,
// drives each module through init and cleanup against the shared
// infrastructure handles, aggregates health, and composes the exposed
// routes into a single surface.
//
// Registration happens before Start; once startup has begun no further
// registration is accepted. Startup and shutdown are strictly sequential in
// resolved order; only health checks run concurrently.
type Manager struct {
	mu        sync.RWMutex
	logger    Logger
	resources *Resources

	entries map[string]*moduleEntry
	order   []string // registration order, used as resolution tie-break

	state ManagerState

	// initialized records the names that reached StateReady during the
	// current startup attempt, in initialization order. Rollback and Stop
	// walk it in reverse.
	initialized []string

	router http.Handler

	healthTimeout time.Duration
	metrics       *Metrics
	observers     *observerList
}

// Option configures a Manager.
type Option func(*Manager)

// WithHealthTimeout sets the per-module bound applied to concurrent health
// queries. Defaults to 5s.
func WithHealthTimeout(d time.Duration) Option {
	return func(m *Manager) { m.healthTimeout = d }
}

// WithMetrics attaches prometheus instrumentation to the manager.
func WithMetrics(metrics *Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// NewManager creates an idle manager. The resources are lent to every
// module's Init call; the manager never closes them.
func NewManager(logger Logger, resources *Resources, opts ...Option) *Manager {
	m := &Manager{
		logger:        logger,
		resources:     resources,
		entries:       make(map[string]*moduleEntry),
		state:         ManagerIdle,
		healthTimeout: defaultHealthTimeout,
		observers:     newObserverList(logger),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register adds a module to the registry. It fails if the manager is no
// longer idle, the descriptor name is empty or self-referential, or the
// name is already taken. Registration order is preserved and used as the
// resolution tie-break.
func (m *Manager) Register(mod Module) error {
	m.mu.Lock()

	if m.state != ManagerIdle {
		m.mu.Unlock()
		return fmt.Errorf("%w: state is %s", ErrManagerNotIdle, m.state)
	}

	d := mod.Descriptor()
	if d.Name == "" {
		m.mu.Unlock()
		return ErrModuleNameEmpty
	}
	if d.DependsOn(d.Name) {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrModuleSelfDependency, d.Name)
	}
	if _, exists := m.entries[d.Name]; exists {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrModuleAlreadyRegistered, d.Name)
	}

	m.entries[d.Name] = &moduleEntry{
		module:     mod,
		descriptor: d,
		state:      StateRegistered,
	}
	m.order = append(m.order, d.Name)

	// Notify outside the lock: observers are allowed to read the manager.
	m.mu.Unlock()

	m.logger.Info("registered module", "module", d.Name, "version", d.Version)
	m.setModuleStateMetric(d.Name, StateRegistered)
	m.observers.notify(context.Background(), newLifecycleEvent(EventModuleRegistered, d.Name, d))
	return nil
}

// Start resolves the initialization order and initializes every module
// sequentially. If the resolver fails, no module is touched. If a module's
// Init fails, modules already ready are cleaned up in reverse
// initialization order and Start returns a *StartError carrying the
// triggering module's error with any rollback failures attached.
//
// On success the manager transitions to ManagerRunning and the aggregated
// route surface becomes available through Router.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	switch m.state {
	case ManagerStarting, ManagerRunning, ManagerStopping:
		m.mu.Unlock()
		return fmt.Errorf("%w: state is %s", ErrManagerAlreadyStarted, m.state)
	}
	m.state = ManagerStarting
	m.initialized = nil

	descriptors := make([]Descriptor, 0, len(m.order))
	for _, name := range m.order {
		descriptors = append(descriptors, m.entries[name].descriptor)
	}
	m.mu.Unlock()

	order, err := ResolveOrder(descriptors)
	if err != nil {
		m.setState(ManagerStartFailed)
		m.observers.notify(ctx, newLifecycleEvent(EventApplicationFailed, "manager", map[string]any{
			"phase": "resolution", "error": err.Error(),
		}))
		return fmt.Errorf("dependency resolution failed: %w", err)
	}
	m.logger.Debug("resolved module initialization order", "order", order)

	for _, name := range order {
		if err := m.initModule(ctx, name); err != nil {
			rollback := m.rollback(ctx)
			m.setState(ManagerStartFailed)
			startErr := &StartError{Module: name, Err: err, Rollback: rollback}
			m.observers.notify(ctx, newLifecycleEvent(EventApplicationFailed, "manager", map[string]any{
				"phase": "initialization", "module": name, "error": err.Error(),
			}))
			return startErr
		}
	}

	m.mu.Lock()
	m.router = m.buildRouter()
	m.state = ManagerRunning
	m.mu.Unlock()

	m.logger.Info("all modules initialized", "count", len(order))
	m.observers.notify(ctx, newLifecycleEvent(EventApplicationStarted, "manager", map[string]any{
		"modules": order,
	}))
	return nil
}

// initModule drives one module through Initializing to Ready or Failed.
func (m *Manager) initModule(ctx context.Context, name string) error {
	m.mu.Lock()
	entry := m.entries[name]
	entry.state = StateInitializing
	m.mu.Unlock()
	m.setModuleStateMetric(name, StateInitializing)

	m.logger.Info("initializing module", "module", name)
	began := time.Now()
	err := entry.module.Init(ctx, m.resources)
	elapsed := time.Since(began)
	if m.metrics != nil {
		m.metrics.ObserveInit(name, elapsed, err == nil)
	}

	m.mu.Lock()
	if err != nil {
		entry.state = StateFailed
		m.mu.Unlock()
		m.setModuleStateMetric(name, StateFailed)
		m.logger.Error("module initialization failed", "module", name, "error", err)
		m.observers.notify(ctx, newLifecycleEvent(EventModuleFailed, name, map[string]any{
			"error": err.Error(),
		}))
		return err
	}
	entry.state = StateReady
	m.initialized = append(m.initialized, name)
	m.mu.Unlock()

	m.setModuleStateMetric(name, StateReady)
	m.logger.Info("module ready", "module", name, "elapsed", elapsed)
	m.observers.notify(ctx, newLifecycleEvent(EventModuleInitialized, name, map[string]any{
		"elapsed": elapsed.String(),
	}))
	return nil
}

// rollback cleans up every module that reached StateReady during the
// current startup attempt, last-initialized first. Failures are collected;
// they never mask the original startup error. Modules in StateFailed have
// nothing to clean and are skipped.
func (m *Manager) rollback(ctx context.Context) []*CleanupError {
	m.mu.Lock()
	names := make([]string, len(m.initialized))
	copy(names, m.initialized)
	m.initialized = nil
	m.mu.Unlock()

	var failures []*CleanupError
	for i := len(names) - 1; i >= 0; i-- {
		if cerr := m.cleanupModule(ctx, names[i]); cerr != nil {
			failures = append(failures, cerr)
		}
	}
	return failures
}

// Stop cleans up every ready module in reverse initialization order. A
// module's cleanup failure never blocks the remaining modules; failures are
// collected into a *ShutdownError. Stop is idempotent and safe to call even
// if Start never completed: with nothing ready it is a no-op returning nil.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	if m.state == ManagerRunning {
		m.state = ManagerStopping
	}
	names := make([]string, len(m.initialized))
	copy(names, m.initialized)
	m.initialized = nil
	m.mu.Unlock()

	var failures []*CleanupError
	for i := len(names) - 1; i >= 0; i-- {
		if cerr := m.cleanupModule(ctx, names[i]); cerr != nil {
			failures = append(failures, cerr)
		}
	}

	m.setState(ManagerStopped)
	m.observers.notify(ctx, newLifecycleEvent(EventApplicationStopped, "manager", map[string]any{
		"cleanupErrors": len(failures),
	}))

	if len(failures) > 0 {
		return &ShutdownError{Failures: failures}
	}
	return nil
}

// cleanupModule drives one module through CleaningUp to Stopped. The module
// ends up StateStopped even when its cleanup fails; shutdown is best
// effort.
func (m *Manager) cleanupModule(ctx context.Context, name string) *CleanupError {
	m.mu.Lock()
	entry, ok := m.entries[name]
	if !ok || entry.state != StateReady {
		m.mu.Unlock()
		return nil
	}
	entry.state = StateCleaningUp
	m.mu.Unlock()
	m.setModuleStateMetric(name, StateCleaningUp)

	m.logger.Info("cleaning up module", "module", name)
	err := entry.module.Cleanup(ctx)

	m.mu.Lock()
	entry.state = StateStopped
	m.mu.Unlock()
	m.setModuleStateMetric(name, StateStopped)

	if err != nil {
		m.logger.Error("module cleanup failed", "module", name, "error", err)
		return &CleanupError{Module: name, Err: err}
	}
	m.observers.notify(ctx, newLifecycleEvent(EventModuleStopped, name, nil))
	return nil
}

// State returns the manager's current lifecycle state.
func (m *Manager) State() ManagerState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// ModuleState returns the state of one registered module.
func (m *Manager) ModuleState(name string) (ModuleState, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[name]
	if !ok {
		return 0, false
	}
	return e.state, true
}

// Modules returns a read-only view of the registry in registration order.
func (m *Manager) Modules() []ModuleInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	infos := make([]ModuleInfo, 0, len(m.order))
	for _, name := range m.order {
		e := m.entries[name]
		infos = append(infos, ModuleInfo{
			Descriptor: e.descriptor,
			State:      e.state,
			StateName:  e.state.String(),
		})
	}
	return infos
}

// Router returns the aggregated route surface. It is nil until the manager
// reaches ManagerRunning.
func (m *Manager) Router() http.Handler {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.router
}

func (m *Manager) setState(s ManagerState) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

func (m *Manager) setModuleStateMetric(name string, s ModuleState) {
	if m.metrics != nil {
		m.metrics.SetModuleState(name, s)
	}
}

func (m *Manager) observeHealthCheck(name string, elapsed time.Duration, healthy bool) {
	if m.metrics != nil {
		m.metrics.ObserveHealthCheck(name, elapsed, healthy)
	}
}
