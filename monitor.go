package everly

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
)

// HealthMonitor polls the manager's aggregate health on a cron schedule
// during steady state and logs status transitions. Metric updates happen as
// a side effect of the aggregation itself.
type HealthMonitor struct {
	manager  *Manager
	logger   Logger
	schedule string

	mu   sync.Mutex
	cron *cron.Cron
	last Status
}

// NewHealthMonitor creates a monitor with a cron spec such as "@every 30s".
func NewHealthMonitor(manager *Manager, logger Logger, schedule string) *HealthMonitor {
	return &HealthMonitor{
		manager:  manager,
		logger:   logger,
		schedule: schedule,
		last:     StatusHealthy,
	}
}

// Start begins periodic polling. Calling Start on a running monitor is an
// error.
func (hm *HealthMonitor) Start() error {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	if hm.cron != nil {
		return fmt.Errorf("health monitor already running")
	}

	c := cron.New()
	if _, err := c.AddFunc(hm.schedule, hm.poll); err != nil {
		return fmt.Errorf("invalid health poll schedule %q: %w", hm.schedule, err)
	}
	c.Start()
	hm.cron = c
	hm.logger.Info("health monitor started", "schedule", hm.schedule)
	return nil
}

// Stop halts polling and waits for an in-flight poll to finish. Stopping a
// monitor that never started is a no-op.
func (hm *HealthMonitor) Stop() {
	hm.mu.Lock()
	c := hm.cron
	hm.cron = nil
	hm.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
	hm.logger.Info("health monitor stopped")
}

func (hm *HealthMonitor) poll() {
	if hm.manager.State() != ManagerRunning {
		return
	}
	agg := hm.manager.AggregateHealth(context.Background())

	hm.mu.Lock()
	previous := hm.last
	hm.last = agg.Status
	hm.mu.Unlock()

	if agg.Status == previous {
		return
	}
	if agg.Status == StatusHealthy {
		hm.logger.Info("aggregate health recovered")
		return
	}
	for _, s := range agg.Modules {
		if !s.Healthy {
			hm.logger.Warn("module unhealthy", "module", s.Module, "detail", s.Detail)
		}
	}
}
