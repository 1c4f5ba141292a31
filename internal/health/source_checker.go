package health

import (
	"context"

	"github.com/abhishekK50/wardenxt/internal/incident"
)

// SourceChecker verifies the incident source can be listed. Without it no
// runbook can be generated.
type SourceChecker struct {
	source incident.Source
}

// NewSourceChecker checks src.
func NewSourceChecker(src incident.Source) *SourceChecker {
	return &SourceChecker{source: src}
}

func (c *SourceChecker) Name() string { return "incident-source" }

func (c *SourceChecker) Check(ctx context.Context) *Result {
	ids, err := c.source.List(ctx)
	if err != nil {
		return Unhealthy("incident source unavailable").WithDetail("error", err.Error())
	}
	return Healthy("incident source available").WithDetail("incidents", len(ids))
}
