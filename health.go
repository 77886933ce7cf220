package everly

import (
	"context"
	"sync"
	"time"
)

// Status is the coarse health classification used at the aggregate level.
type Status string

const (
	// StatusHealthy means every module reported healthy.
	StatusHealthy Status = "healthy"

	// StatusDegraded means at least one module reported unhealthy, timed
	// out, or is not in a ready state.
	StatusDegraded Status = "degraded"
)

// HealthSnapshot is a point-in-time status report from one module. It is
// produced fresh on every health query and never cached by the Manager.
type HealthSnapshot struct {
	// Module is the reporting module's name.
	Module string `json:"module"`

	// Healthy reports whether the module considers itself operational.
	Healthy bool `json:"healthy"`

	// Detail carries module-specific diagnostics, JSON-compatible values
	// keyed by short names ("database", "sessions", ...).
	Detail map[string]any `json:"detail,omitempty"`

	// CheckedAt is when the snapshot was taken.
	CheckedAt time.Time `json:"checkedAt"`
}

// AggregateHealth combines the snapshots of all registered modules with the
// orchestrator-level status. It backs the operational /health endpoint.
type AggregateHealth struct {
	// Status is StatusHealthy iff every module reports healthy.
	Status Status `json:"status"`

	// ManagerState is the manager's own lifecycle state.
	ManagerState string `json:"managerState"`

	// Modules holds the per-module breakdown in registration order.
	Modules []HealthSnapshot `json:"modules"`

	// GeneratedAt is when the aggregate was collected.
	GeneratedAt time.Time `json:"generatedAt"`
}

// AggregateHealth queries every ready module's Health concurrently, bounded
// by the manager's per-module timeout. A module that does not answer within
// the bound is reported unhealthy with a timeout reason instead of stalling
// the aggregate. Modules not in StateReady are reported unhealthy with
// their current state.
func (m *Manager) AggregateHealth(ctx context.Context) AggregateHealth {
	m.mu.RLock()
	state := m.state
	names := make([]string, len(m.order))
	copy(names, m.order)
	modules := make([]Module, len(names))
	states := make([]ModuleState, len(names))
	for i, name := range names {
		modules[i] = m.entries[name].module
		states[i] = m.entries[name].state
	}
	timeout := m.healthTimeout
	m.mu.RUnlock()

	snapshots := make([]HealthSnapshot, len(names))
	var wg sync.WaitGroup
	for i := range names {
		if states[i] != StateReady {
			snapshots[i] = HealthSnapshot{
				Module:    names[i],
				Healthy:   false,
				Detail:    map[string]any{"state": states[i].String()},
				CheckedAt: time.Now(),
			}
			continue
		}

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			snapshots[i] = m.checkModule(ctx, names[i], modules[i], timeout)
		}(i)
	}
	wg.Wait()

	agg := AggregateHealth{
		Status:       StatusHealthy,
		ManagerState: state.String(),
		Modules:      snapshots,
		GeneratedAt:  time.Now(),
	}
	for _, s := range snapshots {
		if !s.Healthy {
			agg.Status = StatusDegraded
			break
		}
	}

	m.recordHealth(agg)
	return agg
}

// checkModule runs one module's health check under the per-module timeout.
// The check runs in its own goroutine so an implementation that ignores
// context cancellation still cannot stall the aggregate.
func (m *Manager) checkModule(ctx context.Context, name string, mod Module, timeout time.Duration) HealthSnapshot {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	began := time.Now()
	done := make(chan HealthSnapshot, 1)
	go func() {
		done <- mod.Health(cctx)
	}()

	select {
	case snap := <-done:
		if snap.Module == "" {
			snap.Module = name
		}
		if snap.CheckedAt.IsZero() {
			snap.CheckedAt = time.Now()
		}
		m.observeHealthCheck(name, time.Since(began), snap.Healthy)
		return snap
	case <-cctx.Done():
		m.observeHealthCheck(name, time.Since(began), false)
		return HealthSnapshot{
			Module:    name,
			Healthy:   false,
			Detail:    map[string]any{"reason": "health check timed out", "timeout": timeout.String()},
			CheckedAt: time.Now(),
		}
	}
}

// recordHealth stores the last snapshot per module and updates metrics.
func (m *Manager) recordHealth(agg AggregateHealth) {
	m.mu.Lock()
	for _, s := range agg.Modules {
		if e, ok := m.entries[s.Module]; ok {
			snap := s
			e.lastHealth = &snap
		}
	}
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.SetAggregateStatus(agg.Status)
		for _, s := range agg.Modules {
			m.metrics.SetModuleHealth(s.Module, s.Healthy)
		}
	}
}
