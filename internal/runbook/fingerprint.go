package runbook

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/zeebo/blake3"
)

// Canonicalize returns a stable JSON form of the runbook's identity and
// steps. Warnings are excluded since validation may append to them.
func Canonicalize(rb *Runbook) ([]byte, error) {
	steps := make([]interface{}, len(rb.Steps))
	for i, s := range rb.Steps {
		cmds := make([]interface{}, len(s.Commands))
		for j, c := range s.Commands {
			cmds[j] = map[string]interface{}{
				"command":           c.Command,
				"risk_level":        string(c.RiskLevel),
				"requires_approval": c.RequiresApproval,
				"timeout_seconds":   c.TimeoutSeconds,
			}
		}
		prereqs := s.PrerequisiteSteps
		if prereqs == nil {
			prereqs = []int{}
		}
		steps[i] = map[string]interface{}{
			"step_number":        s.StepNumber,
			"category":           string(s.Category),
			"title":              s.Title,
			"commands":           cmds,
			"prerequisite_steps": prereqs,
		}
	}

	// encoding/json writes map keys in sorted order
	return json.Marshal(map[string]interface{}{
		"incident_id":  rb.IncidentID,
		"generated_at": rb.GeneratedAt.UTC().Format(time.RFC3339Nano),
		"steps":        steps,
	})
}

// Fingerprint computes the blake3 hash of the canonical runbook.
func Fingerprint(rb *Runbook) (string, error) {
	canonical, err := Canonicalize(rb)
	if err != nil {
		return "", fmt.Errorf("canonicalize runbook: %w", err)
	}

	hasher := blake3.New()
	if _, err := hasher.Write(canonical); err != nil {
		return "", fmt.Errorf("hash runbook: %w", err)
	}

	return fmt.Sprintf("%x", hasher.Sum(nil)), nil
}
