package health

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProbeLifecycle(t *testing.T) {
	ctx := context.Background()
	pm := NewProbeManager("1.2.3")
	pm.AddChecker(&stubChecker{name: "dep", status: StatusDegraded})

	assert.Equal(t, StatusUnhealthy, pm.CheckStartup(ctx).Status)
	assert.Equal(t, StatusHealthy, pm.CheckLiveness(ctx).Status)

	pm.MarkInitialized()
	assert.Equal(t, StatusHealthy, pm.CheckStartup(ctx).Status)

	ready := pm.CheckReadiness(ctx)
	assert.Equal(t, StatusDegraded, ready.Status)
	assert.Contains(t, ready.Checks, "dep")
	assert.Equal(t, "1.2.3", ready.Version)
	assert.NotEmpty(t, ready.Uptime)

	pm.MarkShutdown()
	assert.True(t, pm.IsShuttingDown())
	assert.Equal(t, StatusDegraded, pm.CheckLiveness(ctx).Status)
	shutting := pm.CheckReadiness(ctx)
	assert.Equal(t, StatusUnhealthy, shutting.Status)
	assert.Empty(t, shutting.Checks, "checks are skipped during shutdown")
}
