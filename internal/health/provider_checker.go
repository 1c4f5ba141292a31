package health

import (
	"context"

	"github.com/abhishekK50/wardenxt/internal/provider"
)

// ProviderChecker reports whether runbook generation is possible. Every
// other operation works without a provider, so a missing or failing
// provider is degraded rather than unhealthy.
type ProviderChecker struct {
	client provider.Client
}

// NewProviderChecker checks client.
func NewProviderChecker(client provider.Client) *ProviderChecker {
	return &ProviderChecker{client: client}
}

func (c *ProviderChecker) Name() string { return "provider" }

func (c *ProviderChecker) Check(ctx context.Context) *Result {
	if c.client == nil {
		return Degraded("no provider configured").
			WithDetail("suggestion", "Set GEMINI_API_KEY to enable runbook generation")
	}

	info := c.client.Info()
	if !info.Configured {
		return Degraded(info.Name+" is not configured").
			WithDetail("provider", info.Name).
			WithDetail("suggestion", "Set GEMINI_API_KEY to enable runbook generation")
	}

	if err := c.client.Health(ctx); err != nil {
		return Degraded(info.Name+" is unreachable").
			WithDetail("provider", info.Name).
			WithDetail("model", info.Model).
			WithDetail("error", err.Error())
	}

	return Healthy(info.Name+" is reachable").
		WithDetail("provider", info.Name).
		WithDetail("model", info.Model)
}
