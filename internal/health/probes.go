package health

import (
	"context"
	"sync/atomic"
	"time"
)

// ProbeManager adds startup and shutdown state to a Manager.
//
//   - liveness never runs checks and is always served with 200
//   - readiness runs every check and fails once shutdown begins
//   - startup passes after MarkInitialized
type ProbeManager struct {
	*Manager

	started     time.Time
	version     string
	initialized atomic.Bool
	shutdown    atomic.Bool
}

// ProbeResult is the JSON body of every probe endpoint.
type ProbeResult struct {
	Status    Status             `json:"status"`
	Version   string             `json:"version,omitempty"`
	Uptime    string             `json:"uptime,omitempty"`
	Checks    map[string]*Result `json:"checks,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// NewProbeManager creates a ProbeManager reporting version.
func NewProbeManager(version string) *ProbeManager {
	return &ProbeManager{Manager: NewManager(), started: time.Now(), version: version}
}

func (pm *ProbeManager) MarkInitialized()     { pm.initialized.Store(true) }
func (pm *ProbeManager) MarkShutdown()        { pm.shutdown.Store(true) }
func (pm *ProbeManager) IsInitialized() bool  { return pm.initialized.Load() }
func (pm *ProbeManager) IsShuttingDown() bool { return pm.shutdown.Load() }
func (pm *ProbeManager) Uptime() time.Duration {
	return time.Since(pm.started)
}
func (pm *ProbeManager) Version() string { return pm.version }

func (pm *ProbeManager) result(status Status, checks map[string]*Result) *ProbeResult {
	if checks == nil {
		checks = map[string]*Result{}
	}
	return &ProbeResult{
		Status:    status,
		Version:   pm.version,
		Uptime:    pm.Uptime().Round(time.Second).String(),
		Checks:    checks,
		Timestamp: time.Now().UTC(),
	}
}

// CheckLiveness reports degraded during shutdown and healthy otherwise.
func (pm *ProbeManager) CheckLiveness(ctx context.Context) *ProbeResult {
	if pm.IsShuttingDown() {
		return pm.result(StatusDegraded, nil)
	}
	return pm.result(StatusHealthy, nil)
}

// CheckReadiness aggregates every registered check.
func (pm *ProbeManager) CheckReadiness(ctx context.Context) *ProbeResult {
	if pm.IsShuttingDown() {
		return pm.result(StatusUnhealthy, nil)
	}
	checks := pm.Check(ctx)
	return pm.result(pm.OverallStatus(checks), checks)
}

// CheckStartup passes once the server has been marked initialized.
func (pm *ProbeManager) CheckStartup(ctx context.Context) *ProbeResult {
	if pm.IsInitialized() {
		return pm.result(StatusHealthy, nil)
	}
	return pm.result(StatusUnhealthy, nil)
}
