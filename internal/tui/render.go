package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/abhishekK50/wardenxt/internal/client"
	"github.com/abhishekK50/wardenxt/internal/runbook"
	"github.com/abhishekK50/wardenxt/internal/safety"
	"github.com/abhishekK50/wardenxt/internal/service"
)

// Render returns the terminal rendering of a WardenXT result. The second
// return is false for types it does not know.
func Render(data interface{}) (string, bool) {
	s := DefaultStyles()
	switch v := data.(type) {
	case *runbook.Runbook:
		return s.runbook(v), true
	case runbook.ValidationResult:
		return s.validation(v), true
	case runbook.ExecutionResult:
		return s.execution(v), true
	case service.HistorySummary:
		return s.history(v), true
	case service.CacheListing:
		return s.listing(v), true
	case service.InvalidateResult:
		return s.Success.Render("✓ ") + v.Message + " (" + v.IncidentID + ")", true
	case safety.Verdict:
		return s.verdict(v), true
	case []safety.RuleInfo:
		return s.rules(v), true
	case client.IncidentList:
		return s.incidents(v), true
	}
	return "", false
}

func (s Styles) runbook(rb *runbook.Runbook) string {
	var b strings.Builder

	b.WriteString(s.Title.Render("Runbook for " + rb.IncidentID))
	b.WriteString("\n")
	b.WriteString(s.Muted.Render(fmt.Sprintf("%s · severity %s · %d steps · ~%s · generated %s",
		rb.IncidentType, rb.Severity, rb.TotalSteps, rb.EstimatedTotalTime,
		rb.GeneratedAt.Format("2006-01-02 15:04:05Z07:00"))))
	b.WriteString("\n")

	if len(rb.Prerequisites) > 0 {
		b.WriteString("\n" + s.Heading.Render("Prerequisites") + "\n")
		for _, p := range rb.Prerequisites {
			b.WriteString("  • " + p + "\n")
		}
	}

	for _, step := range rb.Steps {
		b.WriteString("\n")
		header := fmt.Sprintf("Step %d [%s] %s", step.StepNumber, step.Category, step.Title)
		b.WriteString(s.Heading.Render(header))
		b.WriteString(s.Muted.Render(" (" + step.EstimatedDuration + ")"))
		if len(step.PrerequisiteSteps) > 0 {
			deps := make([]string, len(step.PrerequisiteSteps))
			for i, d := range step.PrerequisiteSteps {
				deps[i] = strconv.Itoa(d)
			}
			b.WriteString(s.Muted.Render(" after " + strings.Join(deps, ", ")))
		}
		b.WriteString("\n")
		for i, cmd := range step.Commands {
			line := fmt.Sprintf("  %d. %s %s", i, s.Tier(cmd.RiskLevel), s.Command.Render(cmd.Command))
			if cmd.RequiresApproval {
				line += s.Warning.Render(" (approval)")
			}
			b.WriteString(line + "\n")
			if cmd.Description != "" {
				b.WriteString("     " + s.Muted.Render(cmd.Description) + "\n")
			}
		}
	}

	if len(rb.Warnings) > 0 {
		var w strings.Builder
		w.WriteString(s.Warning.Render("Safety warnings"))
		for _, warning := range rb.Warnings {
			w.WriteString("\n⚠ " + warning)
		}
		b.WriteString("\n" + s.Border.BorderForeground(lipgloss.Color("226")).Render(w.String()) + "\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func (s Styles) validation(res runbook.ValidationResult) string {
	var b strings.Builder
	if res.IsValid {
		b.WriteString(s.Success.Render("✓ Runbook is valid"))
	} else {
		b.WriteString(s.Error.Render("✗ Runbook is invalid"))
	}
	for _, issue := range res.Issues {
		b.WriteString("\n  " + s.Error.Render("issue") + "   " + issue)
	}
	for _, warning := range res.Warnings {
		b.WriteString("\n  " + s.Warning.Render("warning") + " " + warning)
	}
	for _, dc := range res.DangerousCommands {
		b.WriteString(fmt.Sprintf("\n  %s step %d command %d: %s (%s)",
			s.Blocked.Render("BLOCKED"), dc.Step, dc.CommandIndex, s.Command.Render(dc.Command), dc.Rule))
	}
	return b.String()
}

func (s Styles) execution(res runbook.ExecutionResult) string {
	var b strings.Builder
	status := s.Success.Render("✓ success")
	if !res.Success {
		status = s.Error.Render("✗ failed")
	}
	mode := "dry run"
	if !res.DryRun {
		mode = "live"
	}
	b.WriteString(fmt.Sprintf("%s %s step %d command %d %s\n",
		status, s.Tier(res.RiskLevel), res.StepNumber, res.CommandIndex, s.Muted.Render("("+mode+")")))
	b.WriteString("$ " + s.Command.Render(res.Command) + "\n")
	if res.Output != "" {
		b.WriteString(res.Output + "\n")
	}
	if res.Error != nil {
		b.WriteString(s.Error.Render(*res.Error) + "\n")
	}
	b.WriteString(s.Muted.Render(fmt.Sprintf("by %s at %s in %.2fs",
		res.ExecutedBy, res.ExecutedAt.Format("15:04:05"), res.DurationSeconds)))
	return b.String()
}

func (s Styles) history(h service.HistorySummary) string {
	var b strings.Builder
	b.WriteString(s.Title.Render("Execution history for " + h.IncidentID))
	b.WriteString("\n")
	b.WriteString(s.Muted.Render(fmt.Sprintf("%d executions · %d succeeded · %d failed · %d dry run",
		h.ExecutionsCount, h.SuccessfulCount, h.FailedCount, h.DryRunCount)))
	if len(h.History) == 0 {
		return b.String()
	}

	rows := make([][]string, 0, len(h.History))
	for _, r := range h.History {
		result := "ok"
		if !r.Success {
			result = "failed"
		}
		rows = append(rows, []string{
			r.ExecutedAt.Format("15:04:05"),
			fmt.Sprintf("%d.%d", r.StepNumber, r.CommandIndex),
			string(r.RiskLevel),
			result,
			r.ExecutedBy,
			r.Command,
		})
	}
	b.WriteString("\n" + s.table([]string{"TIME", "STEP", "RISK", "RESULT", "BY", "COMMAND"}, rows))
	return b.String()
}

func (s Styles) listing(l service.CacheListing) string {
	header := s.Muted.Render(fmt.Sprintf("%d cached runbooks (ttl %d minutes)", l.CachedCount, l.CacheTTLMinutes))
	if len(l.Runbooks) == 0 {
		return header
	}
	rows := make([][]string, 0, len(l.Runbooks))
	for _, rb := range l.Runbooks {
		rows = append(rows, []string{
			rb.IncidentID,
			rb.Severity,
			strconv.Itoa(rb.TotalSteps),
			rb.EstimatedTime,
			fmt.Sprintf("%dm", rb.AgeMinutes),
		})
	}
	return header + "\n" + s.table([]string{"INCIDENT", "SEVERITY", "STEPS", "ESTIMATE", "AGE"}, rows)
}

func (s Styles) verdict(v safety.Verdict) string {
	line := s.Verdict(v) + " " + v.Reason
	if v.Rule != "" {
		line += s.Muted.Render(fmt.Sprintf(" (%s rule %s)", v.Stage, v.Rule))
	}
	return line
}

func (s Styles) rules(rules []safety.RuleInfo) string {
	rows := make([][]string, 0, len(rules))
	for _, r := range rules {
		risk := string(r.Tier)
		if !r.Allowed {
			risk = "blocked"
		}
		rows = append(rows, []string{string(r.Stage), r.Name, risk, r.Rationale})
	}
	return s.table([]string{"STAGE", "RULE", "RISK", "RATIONALE"}, rows)
}

func (s Styles) incidents(l client.IncidentList) string {
	if l.Count == 0 {
		return s.Muted.Render("no incidents found")
	}
	return strings.Join(l.Incidents, "\n") + "\n" + s.Muted.Render(fmt.Sprintf("%d incidents", l.Count))
}

func (s Styles) table(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.Muted).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.Heading.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(headers...).
		Rows(rows...).
		String()
}
