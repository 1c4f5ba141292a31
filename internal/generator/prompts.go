package generator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/abhishekK50/wardenxt/internal/incident"
)

const fence = "```"

const systemPrompt = `You are an expert DevOps/SRE engineer creating executable runbooks for incident resolution.
Respond with a single JSON object and nothing else.`

// guidance holds incident-type specific hints appended to the main prompt.
var guidance = map[string]string{
	"database_outage": `For database outages:
- Check connection pool status: psql -c "SELECT count(*) FROM pg_stat_activity"
- Look for long-running queries: SELECT pid, query, state FROM pg_stat_activity WHERE state != 'idle'
- Consider connection pool restart or scaling
- Verify database replication lag
- Check disk space: df -h /var/lib/postgresql`,
	"memory_leak": `For memory leaks:
- Check process memory: ps aux --sort=-%mem | head
- Capture a heap profile before restarting if the runtime supports it
- Restart the service to reclaim memory
- Consider raising memory limits as a stopgap`,
	"high_latency": `For high latency:
- Check network latency: ping -c 5 <service>
- Verify DNS resolution: dig <service-host>
- Check slow queries with EXPLAIN ANALYZE
- Look for CPU or disk I/O saturation
- Consider scaling horizontally`,
	"kubernetes_crashloop": `For Kubernetes CrashLoopBackOff:
- Describe the pod: kubectl describe pod <pod> -n <namespace>
- Read the previous container logs: kubectl logs <pod> -n <namespace> --previous
- Verify referenced ConfigMaps and Secrets exist
- Look for OOMKilled in pod events
- Consider rolling back: kubectl rollout undo deployment/<name>`,
	"connection_pool_exhaustion": `For connection pool exhaustion:
- Count active connections on the database
- Look for connection leaks in application logs
- Restart the application to reset the pool
- Raise the pool size only as a temporary fix
- Roll back if the issue started with a recent deployment`,
	"disk_full": `For disk space issues:
- Check usage: df -h
- Find large directories: du -sh /var/* | sort -h
- Vacuum old journal logs: journalctl --vacuum-time=2d
- Prune unused container images
- Expand the volume if it is cloud backed`,
	"api_timeout": `For API timeouts:
- Measure response time: curl -o /dev/null -s -w 'Total: %{time_total}s' <url>
- Check upstream health endpoints
- Look for slow database queries
- Check CPU and memory pressure
- Consider opening the circuit breaker`,
	"deployment_failure": `For deployment failures:
- Check rollout status: kubectl rollout status deployment/<name>
- Review recent events: kubectl describe deployment/<name>
- Roll back: kubectl rollout undo deployment/<name>
- Confirm the image can be pulled
- Check resource quotas: kubectl describe resourcequota`,
}

const generalGuidance = `For general incidents:
- Start with diagnostic commands that confirm the issue
- Prefer read-only commands first
- Escalate gradually to remediation
- Always include verification steps
- Provide rollback procedures`

// Guidance returns the hints for an incident type, falling back to the
// general advice.
func Guidance(incidentType string) string {
	if g, ok := guidance[strings.ToLower(incidentType)]; ok {
		return g
	}
	return generalGuidance
}

// BuildPrompt renders the prompt for the focus area.
func BuildPrompt(inc *incident.Incident, focus Focus) string {
	switch focus {
	case FocusEmergencyRollback:
		return emergencyRollbackPrompt(inc)
	case FocusDiagnostic:
		return mainPrompt(inc, focus, true)
	default:
		return mainPrompt(inc, focus, false)
	}
}

func mainPrompt(inc *incident.Incident, focus Focus, diagnosticOnly bool) string {
	s := inc.Summary
	var b strings.Builder

	b.WriteString("You are an expert DevOps/SRE engineer creating an executable runbook for incident resolution.\n\n")

	b.WriteString("## INCIDENT DETAILS\n\n")
	fmt.Fprintf(&b, "**Incident ID:** %s\n", s.IncidentID)
	fmt.Fprintf(&b, "**Type:** %s\n", s.IncidentType)
	fmt.Fprintf(&b, "**Severity:** %s\n", s.Severity)
	fmt.Fprintf(&b, "**Title:** %s\n", orDefault(s.Title, "Unknown Incident"))
	fmt.Fprintf(&b, "**Duration:** %d minutes\n", s.DurationMinutes)
	fmt.Fprintf(&b, "**Services Affected:** %s\n\n", servicesList(s.ServicesAffected))

	b.WriteString("## ROOT CAUSE ANALYSIS\n\n")
	fmt.Fprintf(&b, "**Primary Cause:** %s\n\n", orDefault(s.RootCause.Primary, "Unknown root cause"))
	b.WriteString("**Contributing Factors:**\n")
	if len(s.RootCause.ContributingFactors) == 0 {
		b.WriteString("- None identified\n")
	}
	for _, f := range s.RootCause.ContributingFactors {
		fmt.Fprintf(&b, "- %s\n", f)
	}

	logs := inc.RecentLogs(incident.RecentLogs)
	fmt.Fprintf(&b, "\n## RECENT LOGS (last %d lines)\n\n%s\n", len(logs), fence)
	if len(logs) == 0 {
		b.WriteString("No logs available\n")
	}
	for _, l := range logs {
		fmt.Fprintf(&b, "[%s] %s %s: %s\n", orDefault(l.Timestamp, "N/A"), orDefault(l.Level, "INFO"), l.Service, l.Message)
	}
	b.WriteString(fence + "\n")

	metrics := inc.RecentMetrics(incident.RecentMetrics)
	fmt.Fprintf(&b, "\n## METRICS (last %d samples)\n\n%s\n", len(metrics), fence)
	if len(metrics) == 0 {
		b.WriteString("No metrics available\n")
	}
	for _, m := range metrics {
		fmt.Fprintf(&b, "%s %s: %s\n", orDefault(m.Timestamp, "N/A"), m.Service, formatMetrics(m.Metrics))
	}
	b.WriteString(fence + "\n\n")

	b.WriteString("## YOUR TASK\n\n")
	if diagnosticOnly {
		b.WriteString("Generate ONLY diagnostic commands (no remediation or rollback) for this incident.")
	} else {
		b.WriteString("Generate a complete, executable runbook for this incident.")
	}
	b.WriteString(" Commands must be real shell commands (bash, kubectl, psql, docker, etc.).\n\n")
	fmt.Fprintf(&b, "**Focus Area:** %s\n\n", focus)

	b.WriteString("## OUTPUT REQUIREMENTS\n\nReturn a JSON object with this exact structure:\n\n")
	b.WriteString(fence + "json\n" + outputSchema + "\n" + fence + "\n\n")

	b.WriteString(commandGuidelines)
	b.WriteString("\n\n## RUNBOOK STRUCTURE\n\n")
	if diagnosticOnly {
		b.WriteString("Include ONLY the diagnostic section:\n\n" + diagnosticSection)
	} else {
		b.WriteString("Include these sections unless the focus area says otherwise:\n\n" + fullStructure)
	}

	b.WriteString("\n\n## INCIDENT-SPECIFIC GUIDANCE\n\n")
	b.WriteString(Guidance(s.IncidentType))
	b.WriteString("\n\n" + closingRules)
	return b.String()
}

func emergencyRollbackPrompt(inc *incident.Incident) string {
	return fmt.Sprintf(`You are an expert DevOps/SRE engineer.

EMERGENCY SITUATION: Incident %s is affecting services: %s

Generate IMMEDIATE ROLLBACK COMMANDS to restore service quickly.

Focus on:
1. Rolling back recent deployments
2. Restoring previous configurations
3. Emergency service restart procedures
4. Quick health verification

Return JSON with a "steps" array containing 2-4 emergency rollback steps.
Each step must have:
- category: "rollback"
- actual executable commands
- risk_level, description, expected_output
- estimated_duration

Generate ONLY rollback commands. Make them fast and safe.`,
		inc.Summary.IncidentID, servicesList(inc.Summary.ServicesAffected))
}

const outputSchema = `{
  "steps": [
    {
      "step_number": 1,
      "category": "diagnostic | remediation | verification | rollback",
      "title": "Brief step title",
      "commands": [
        {
          "command": "actual executable command",
          "description": "What this command does",
          "risk_level": "safe | medium | high",
          "expected_output": "What success looks like",
          "timeout_seconds": 30,
          "requires_approval": true
        }
      ],
      "prerequisite_steps": [],
      "estimated_duration": "2 minutes"
    }
  ],
  "warnings": ["Important warnings about execution"],
  "prerequisites": ["Required access/tools"]
}`

const commandGuidelines = `## COMMAND GUIDELINES

1. Use real, copy-paste ready commands, not pseudo-code.
2. Safety first: add --dry-run where supported, verify before destructive operations, and never emit rm -rf /, dd, mkfs or similar.
3. Be specific: use the actual service names and namespaces from the incident.
4. Risk levels:
   - safe: read-only commands (kubectl get, SELECT, logs)
   - medium: reversible state changes (restart, scale)
   - high: potentially dangerous changes (delete, rollback, config changes)`

const diagnosticSection = `### DIAGNOSTIC STEPS (2-4 commands)
- Check pod/container status
- Query databases for connection counts
- Examine logs for error patterns
- Verify metric anomalies`

const fullStructure = diagnosticSection + `

### REMEDIATION STEPS (3-6 commands)
- Restart or scale affected services
- Roll back to previous versions
- Apply configuration fixes
- Clear caches or queues

### VERIFICATION STEPS (2-3 commands)
- Re-check pod/container status
- Verify metrics returned to normal
- Test service health endpoints

### ROLLBACK STEPS (2-4 commands)
- Revert configuration changes
- Restore the previous deployment`

const closingRules = `## IMPORTANT

- Generate ONLY valid JSON (no markdown, no explanations outside JSON)
- Estimate durations realistically (seconds/minutes)
- Add clear warnings for high-risk operations
- prerequisite_steps must reference earlier step numbers

Generate the complete runbook now.`

func servicesList(services []string) string {
	if len(services) == 0 {
		return "Unknown"
	}
	return strings.Join(services, ", ")
}

func formatMetrics(m map[string]float64) string {
	if len(m) == 0 {
		return "no values"
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%.2f", k, m[k])
	}
	return strings.Join(parts, " ")
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
