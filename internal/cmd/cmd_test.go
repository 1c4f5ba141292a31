package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhishekK50/wardenxt/internal/config"
	"github.com/abhishekK50/wardenxt/internal/errors"
	"github.com/abhishekK50/wardenxt/internal/exitcode"
	"github.com/abhishekK50/wardenxt/internal/generator"
	"github.com/abhishekK50/wardenxt/internal/health"
	"github.com/abhishekK50/wardenxt/internal/incident"
	"github.com/abhishekK50/wardenxt/internal/log"
	"github.com/abhishekK50/wardenxt/internal/provider/providertest"
	"github.com/abhishekK50/wardenxt/internal/safety"
	"github.com/abhishekK50/wardenxt/internal/server"
	"github.com/abhishekK50/wardenxt/internal/service"
	"github.com/abhishekK50/wardenxt/internal/store"
	"github.com/abhishekK50/wardenxt/internal/version"
)

const generated = `{
  "steps": [
    {"step_number": 1, "category": "diagnostic", "title": "Pods",
     "commands": [{"command": "kubectl get pods -n prod", "risk_level": "safe"}],
     "estimated_duration": "2 minutes"},
    {"step_number": 2, "category": "remediation", "title": "Clean up",
     "commands": [
       {"command": "kubectl rollout restart deployment/api", "risk_level": "medium"},
       {"command": "kubectl delete namespace staging", "risk_level": "high", "requires_approval": true}
     ],
     "estimated_duration": "5 minutes"},
    {"step_number": 3, "category": "remediation", "title": "Nuke",
     "commands": [{"command": "rm -rf /", "risk_level": "high"}],
     "estimated_duration": "1 minute"}
  ]
}`

// resetFlags restores every flag to its default between runs.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// run executes the CLI in isolation from any config on the machine.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CI", "true")
	t.Chdir(t.TempDir())

	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// newTestServer serves the API with a scripted provider.
func newTestServer(t *testing.T) string {
	t.Helper()
	logger := log.Discard()
	src := incident.NewMemorySource(&incident.Incident{Summary: incident.Summary{
		IncidentID: "INC-1", Severity: "P1", IncidentType: "deployment_failure",
	}})
	gen := generator.New(providertest.New(generated), generator.WithLogger(logger))
	svc := service.New(src, gen, store.NewMemoryStore(), service.WithLogger(logger))
	srv := server.New(svc, health.NewProbeManager("test"), server.Config{}, server.WithLogger(logger))

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts.URL
}

func TestClassify(t *testing.T) {
	out, err := run(t, "classify", "kubectl", "get", "pods", "-n", "prod")
	require.NoError(t, err)
	assert.Contains(t, out, "[safe]")

	out, err = run(t, "classify", "--", "rm", "-rf", "/")
	require.Error(t, err)
	assert.Contains(t, out, "BLOCKED")
	assert.Equal(t, errors.ErrCodeCommandBlocked, errors.CodeOf(err))
	assert.Equal(t, exitcode.SafetyRejection, exitcode.DetermineExitCode(err))

	out, err = run(t, "classify", "--format", "json", "kubectl delete namespace prod")
	require.NoError(t, err)
	var v safety.Verdict
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	assert.Equal(t, safety.TierHigh, v.Tier)
	assert.True(t, v.Allowed)
}

func TestClassifyRequiresCommand(t *testing.T) {
	_, err := run(t, "classify")
	require.Error(t, err)
	assert.Equal(t, exitcode.UsageError, exitcode.DetermineExitCode(err))
}

func TestRules(t *testing.T) {
	out, err := run(t, "rules", "-o", "json")
	require.NoError(t, err)

	var rules []safety.RuleInfo
	require.NoError(t, json.Unmarshal([]byte(out), &rules))
	require.NotEmpty(t, rules)
	assert.Equal(t, safety.StageBlocklist, rules[0].Stage)
}

func TestRulesWithPolicyFile(t *testing.T) {
	dir := t.TempDir()
	policy := filepath.Join(dir, "policy.yaml")
	require.NoError(t, os.WriteFile(policy, []byte(`rules:
  - stage: blocklist
    name: no-appctl-purge
    pattern: 'appctl\s+purge'
    rationale: purges customer data
`), 0o600))
	cfgPath := filepath.Join(dir, "wardenxt.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("safety:\n  policy_file: "+policy+"\n"), 0o600))

	out, err := run(t, "--config", cfgPath, "rules")
	require.NoError(t, err)
	assert.Contains(t, out, "no-appctl-purge")

	_, err = run(t, "--config", cfgPath, "classify", "appctl purge --all")
	assert.Equal(t, errors.ErrCodeCommandBlocked, errors.CodeOf(err))
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte(`incident_id: INC-1
steps:
  - step_number: 1
    category: diagnostic
    title: Disk
    estimated_duration: 1 minute
    commands:
      - command: df -h
        risk_level: safe
`), 0o600))
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"incident_id": "INC-1", "steps": [
	  {"step_number": 1, "category": "remediation", "title": "Wipe", "estimated_duration": "1 minute",
	   "commands": [{"command": "rm -rf /", "risk_level": "high"}]}]}`), 0o600))

	out, err := run(t, "validate", "--file", good)
	require.NoError(t, err)
	assert.Contains(t, out, "Runbook is valid")

	out, err = run(t, "validate", "-f", bad)
	require.Error(t, err)
	assert.Contains(t, out, "Step 1, Command 1")
	assert.Equal(t, exitcode.ValidationFailed, exitcode.DetermineExitCode(err))

	_, err = run(t, "validate", "--file", filepath.Join(dir, "missing.yaml"))
	assert.Equal(t, errors.ErrCodeFileNotFound, errors.CodeOf(err))

	_, err = run(t, "validate")
	assert.ErrorContains(t, err, `required flag(s) "file" not set`)
}

func TestRunbookLifecycle(t *testing.T) {
	url := newTestServer(t)

	out, err := run(t, "--server", url, "runbook", "generate", "INC-1", "--focus", "remediation")
	require.NoError(t, err)
	assert.Contains(t, out, "Runbook for INC-1")
	assert.Contains(t, out, "Safety warnings")

	out, err = run(t, "--server", url, "rb", "show", "INC-1")
	require.NoError(t, err)
	assert.Contains(t, out, "kubectl delete namespace staging")

	out, err = run(t, "--server", url, "runbook", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "1 cached runbooks")

	_, err = run(t, "--server", url, "runbook", "validate", "INC-1")
	assert.Equal(t, exitcode.ValidationFailed, exitcode.DetermineExitCode(err))

	out, err = run(t, "--server", url, "runbook", "execute", "INC-1", "--step", "1", "--by", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "success")
	assert.Contains(t, out, "by alice")

	_, err = run(t, "--server", url, "runbook", "execute", "INC-1", "--step", "2", "--command", "1", "--live")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeApprovalRequired, errors.CodeOf(err))
	assert.Equal(t, exitcode.SafetyRejection, exitcode.DetermineExitCode(err))

	out, err = run(t, "--server", url, "runbook", "execute", "INC-1", "--step", "2", "--command", "1", "--live", "--confirm", "EXECUTE")
	require.NoError(t, err)
	assert.Contains(t, out, "[DEMO MODE]")

	out, err = run(t, "--server", url, "runbook", "execute", "INC-1", "--step", "3")
	require.Error(t, err)
	assert.Contains(t, out, "failed")
	assert.Equal(t, errors.ErrCodeCommandBlocked, errors.CodeOf(err))

	out, err = run(t, "--server", url, "-o", "json", "runbook", "history", "INC-1")
	require.NoError(t, err)
	var hist service.HistorySummary
	require.NoError(t, json.Unmarshal([]byte(out), &hist))
	assert.Equal(t, 3, hist.ExecutionsCount)
	assert.Equal(t, 1, hist.FailedCount)
	assert.Equal(t, "alice", hist.History[0].ExecutedBy)

	out, err = run(t, "--server", url, "runbook", "invalidate", "INC-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Runbook cache cleared successfully")

	_, err = run(t, "--server", url, "runbook", "show", "INC-1")
	assert.Equal(t, errors.ErrCodeRunbookNotFound, errors.CodeOf(err))
	assert.Equal(t, exitcode.NotFound, exitcode.DetermineExitCode(err))
}

func TestRunbookErrors(t *testing.T) {
	url := newTestServer(t)

	_, err := run(t, "--server", url, "runbook", "generate", "INC-404")
	assert.Equal(t, errors.ErrCodeIncidentNotFound, errors.CodeOf(err))

	_, err = run(t, "--server", url, "runbook", "generate", "INC-1", "--focus", "everything")
	assert.Equal(t, exitcode.UsageError, exitcode.DetermineExitCode(err))

	_, err = run(t, "--server", url, "runbook", "execute", "INC-1")
	assert.ErrorContains(t, err, `required flag(s) "step" not set`)

	out, err := run(t, "--server", url, "incidents")
	require.NoError(t, err)
	assert.Contains(t, out, "INC-1")
}

func TestUnreachableServer(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := run(t, "--server", url, "runbook", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wardenxt serve")
}

func TestBuildApp(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "INC-7"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "INC-7", "summary.json"),
		[]byte(`{"incident_id": "INC-7", "severity": "P2", "incident_type": "disk_full"}`), 0o600))

	cfg := config.Default()
	cfg.Incidents.Dir = dir
	a, err := buildApp(cfg, log.Discard())
	require.NoError(t, err)
	assert.False(t, a.provider.Info().Configured)

	ts := httptest.NewServer(a.server.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health/ready")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(ts.URL+"/api/v1/runbooks/INC-7/generate", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "PROVIDER-001", body.Error.Code)

	var banner bytes.Buffer
	printBanner(&banner, a, version.GetInfo())
	assert.Contains(t, banner.String(), "not configured, generation disabled")
	assert.Contains(t, banner.String(), "Runbook TTL:  1h0m0s")
}

func TestBuildAppBadPolicy(t *testing.T) {
	cfg := config.Default()
	cfg.Safety.PolicyFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := buildApp(cfg, log.Discard())
	require.Error(t, err)
}

func TestConfigView(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "super-secret")

	out, err := run(t, "config", "view")
	require.NoError(t, err)
	assert.Contains(t, out, "port: 8000")
	assert.Contains(t, out, "********")
	assert.NotContains(t, out, "super-secret")

	_, err = run(t, "config", "path")
	assert.ErrorContains(t, err, "no config file found")
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "wardenxt dev\n", out)

	out, err = run(t, "version", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"go_version"`)
}
