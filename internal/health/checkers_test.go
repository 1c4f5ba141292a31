package health

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abhishekK50/wardenxt/internal/incident"
	"github.com/abhishekK50/wardenxt/internal/provider"
	"github.com/abhishekK50/wardenxt/internal/provider/providertest"
)

func TestProviderChecker(t *testing.T) {
	ctx := context.Background()

	healthy := NewProviderChecker(providertest.New("{}")).Check(ctx)
	assert.Equal(t, StatusHealthy, healthy.Status)
	assert.Equal(t, "fake-model", healthy.Details["model"])

	failing := NewProviderChecker(providertest.Failing(stderrors.New("dial tcp: refused"))).Check(ctx)
	assert.Equal(t, StatusDegraded, failing.Status)
	assert.Equal(t, "dial tcp: refused", failing.Details["error"])

	unconfigured := NewProviderChecker(&provider.Unconfigured{Name: provider.NameGemini}).Check(ctx)
	assert.Equal(t, StatusDegraded, unconfigured.Status)
	assert.Contains(t, unconfigured.Details["suggestion"], "GEMINI_API_KEY")

	assert.Equal(t, StatusDegraded, NewProviderChecker(nil).Check(ctx).Status)
	assert.Equal(t, "provider", NewProviderChecker(nil).Name())
}

type brokenSource struct{ incident.MemorySource }

func (*brokenSource) List(context.Context) ([]string, error) {
	return nil, stderrors.New("permission denied")
}

func TestSourceChecker(t *testing.T) {
	ctx := context.Background()
	src := incident.NewMemorySource(&incident.Incident{Summary: incident.Summary{IncidentID: "INC-1"}})

	ok := NewSourceChecker(src).Check(ctx)
	assert.Equal(t, StatusHealthy, ok.Status)
	assert.Equal(t, 1, ok.Details["incidents"])

	bad := NewSourceChecker(&brokenSource{}).Check(ctx)
	assert.Equal(t, StatusUnhealthy, bad.Status)
}
