package generator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abhishekK50/wardenxt/internal/incident"
)

func TestBuildPrompt_Main(t *testing.T) {
	prompt := BuildPrompt(testIncident(), FocusAll)

	for _, want := range []string{
		"**Incident ID:** INC-2024-001",
		"**Type:** kubernetes_crashloop",
		"**Severity:** P1",
		"**Services Affected:** checkout, payments",
		"**Primary Cause:** bad config map",
		"- no canary",
		"[10:00:01] ERROR checkout: missing DB_URL",
		"cpu_percent=91.50 memory_mb=512.00",
		`"prerequisite_steps": []`,
		"### ROLLBACK STEPS",
		"For Kubernetes CrashLoopBackOff",
		"Generate a complete, executable runbook",
	} {
		assert.Contains(t, prompt, want)
	}
}

func TestBuildPrompt_EmptyContext(t *testing.T) {
	inc := &incident.Incident{Summary: incident.Summary{IncidentID: "INC-9", IncidentType: "unknown"}}
	prompt := BuildPrompt(inc, FocusRemediation)

	assert.Contains(t, prompt, "No logs available")
	assert.Contains(t, prompt, "No metrics available")
	assert.Contains(t, prompt, "- None identified")
	assert.Contains(t, prompt, "**Services Affected:** Unknown")
	assert.Contains(t, prompt, "**Focus Area:** remediation")
	assert.Contains(t, prompt, "For general incidents")
}

func TestBuildPrompt_Diagnostic(t *testing.T) {
	prompt := BuildPrompt(testIncident(), FocusDiagnostic)

	assert.Contains(t, prompt, "Generate ONLY diagnostic commands")
	assert.Contains(t, prompt, "Include ONLY the diagnostic section")
	assert.NotContains(t, prompt, "### REMEDIATION STEPS")
}

func TestBuildPrompt_EmergencyRollback(t *testing.T) {
	prompt := BuildPrompt(testIncident(), FocusEmergencyRollback)

	assert.True(t, strings.Contains(prompt, "EMERGENCY SITUATION: Incident INC-2024-001 is affecting services: checkout, payments"))
	assert.Contains(t, prompt, `category: "rollback"`)
	assert.NotContains(t, prompt, "RECENT LOGS")
}

func TestGuidance(t *testing.T) {
	assert.Contains(t, Guidance("DISK_FULL"), "df -h")
	assert.Contains(t, Guidance("database_outage"), "pg_stat_activity")
	assert.Equal(t, generalGuidance, Guidance("solar_flare"))
}
