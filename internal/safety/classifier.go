// Package safety classifies shell-like commands proposed for incident
// remediation into risk tiers.
//
// Classification walks an ordered rule table: blocklist, known-safe prefixes,
// medium-risk patterns, high-risk patterns, then a default. The first match
// wins. Blocklisted commands are never allowed and nothing downstream can
// override that verdict. Unknown commands are allowed at medium risk and
// require approval.
package safety

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/abhishekK50/wardenxt/internal/errors"
)

// Tier is the risk tier of a command.
type Tier string

const (
	TierSafe   Tier = "safe"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	return t == TierSafe || t == TierMedium || t == TierHigh
}

func (t Tier) weight() int {
	switch t {
	case TierSafe:
		return 0
	case TierHigh:
		return 2
	default:
		return 1
	}
}

// Max returns the riskier of two tiers. Unknown tiers count as medium.
func Max(a, b Tier) Tier {
	if b.weight() > a.weight() {
		return b
	}
	return a
}

// Verdict is the result of classifying one command.
type Verdict struct {
	Allowed bool   `json:"allowed" yaml:"allowed"`
	Tier    Tier   `json:"risk_level" yaml:"risk_level"`
	Reason  string `json:"reason" yaml:"reason"`
	Rule    string `json:"rule,omitempty" yaml:"rule,omitempty"`
	Stage   Stage  `json:"stage" yaml:"stage"`
}

// RequiresConfirmation reports whether the command needs the confirmation
// token before it may run outside dry-run.
func (v Verdict) RequiresConfirmation() bool {
	return v.Allowed && v.Tier == TierHigh
}

// Err returns a safety rejection error for blocked verdicts and nil otherwise.
func (v Verdict) Err(command string) error {
	if v.Allowed {
		return nil
	}
	return errors.NewCommandBlockedError(command, v.Reason)
}

// Classifier evaluates commands against an ordered rule table. It holds no
// mutable state and is safe for concurrent use.
type Classifier struct {
	rules []Rule
}

// New returns a classifier with the built-in rules followed by extra. Extra
// rules are placed after the built-in rules of their own stage.
func New(extra ...Rule) *Classifier {
	rules := make([]Rule, 0, len(builtinRules)+len(extra))
	rules = append(rules, builtinRules...)
	rules = append(rules, extra...)
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Stage.rank() < rules[j].Stage.rank()
	})
	return &Classifier{rules: rules}
}

var defaultClassifier = New()

// Default returns the classifier built from the built-in rules only.
func Default() *Classifier {
	return defaultClassifier
}

// Classify runs the default classifier.
func Classify(command string) Verdict {
	return defaultClassifier.Classify(command)
}

// Normalize trims surrounding whitespace and collapses internal runs of
// whitespace, line breaks included, to single spaces.
func Normalize(command string) string {
	return strings.Join(strings.Fields(command), " ")
}

// lineContinuation joins a line ending in a backslash with the next one.
var lineContinuation = regexp.MustCompile(`\\\r?\n`)

// Statements normalizes command like Normalize but keeps line breaks as
// statement boundaries: every non-blank line becomes a "; " separated
// statement. A shell runs each line of a multi-line command.
func Statements(command string) string {
	command = lineContinuation.ReplaceAllString(command, " ")
	lines := strings.FieldsFunc(command, func(r rune) bool { return r == '\n' || r == '\r' })

	stmts := make([]string, 0, len(lines))
	for _, line := range lines {
		if n := Normalize(line); n != "" {
			stmts = append(stmts, n)
		}
	}
	return strings.Join(stmts, "; ")
}

// Classify returns the verdict for command. Blocklist rules see both the
// whitespace-collapsed command and its statement form, so neither spacing
// nor line breaks hide a blocked command. Every other stage sees the
// statement form, and a safe rule only applies when each pipeline stage after
// the first is a read-only filter.
func (c *Classifier) Classify(command string) Verdict {
	flat := Normalize(command)
	stmts := Statements(command)

	for _, r := range c.rules {
		if r.Stage == StageBlocklist && r.matches(flat) {
			return verdictFor(r)
		}
	}

	for _, r := range c.rules {
		if r.Stage == StageSafe && !pipesIntoFilters(stmts) {
			continue
		}
		if r.matches(stmts) {
			return verdictFor(r)
		}
	}

	return Verdict{
		Allowed: true,
		Tier:    TierMedium,
		Reason:  "Command not recognized as safe. Requires approval before execution.",
		Stage:   StageDefault,
	}
}

func verdictFor(r Rule) Verdict {
	v := Verdict{Allowed: true, Tier: r.Stage.Tier(), Rule: r.Name, Stage: r.Stage}

	switch r.Stage {
	case StageBlocklist:
		v.Allowed = false
		v.Reason = fmt.Sprintf("Command matches dangerous pattern %q (%s). This command is blocked for safety.", r.Name, r.Rationale)
	case StageSafe:
		v.Reason = fmt.Sprintf("Command is read-only and considered safe (%s)", r.Name)
	case StageMedium:
		v.Reason = fmt.Sprintf("Command modifies system state (%s: %s). Requires approval.", r.Name, r.Rationale)
	case StageHigh:
		v.Reason = fmt.Sprintf("High-risk command that requires explicit confirmation (type '%s'): %s", errors.ConfirmationToken, r.Rationale)
	}

	return v
}

// RuleInfo describes a rule for audit listings.
type RuleInfo struct {
	Stage     Stage  `json:"stage" yaml:"stage"`
	Name      string `json:"name" yaml:"name"`
	Tier      Tier   `json:"risk_level" yaml:"risk_level"`
	Allowed   bool   `json:"allowed" yaml:"allowed"`
	Pattern   string `json:"pattern" yaml:"pattern"`
	Unless    string `json:"unless,omitempty" yaml:"unless,omitempty"`
	Rationale string `json:"rationale" yaml:"rationale"`
}

// Rules lists every rule in evaluation order.
func (c *Classifier) Rules() []RuleInfo {
	out := make([]RuleInfo, 0, len(c.rules))
	for _, r := range c.rules {
		info := RuleInfo{
			Stage:     r.Stage,
			Name:      r.Name,
			Tier:      r.Stage.Tier(),
			Allowed:   r.Stage != StageBlocklist,
			Pattern:   strings.TrimPrefix(r.Pattern.String(), "(?i)"),
			Rationale: r.Rationale,
		}
		if r.Unless != nil {
			info.Unless = strings.TrimPrefix(r.Unless.String(), "(?i)")
		}
		out = append(out, info)
	}
	return out
}
