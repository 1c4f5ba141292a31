package safety

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/abhishekK50/wardenxt/internal/errors"
)

// Policy is the on-disk form of additional safety rules.
//
//	rules:
//	  - stage: blocklist
//	    name: prod-db-writes
//	    pattern: 'psql .*prod.*(insert|update|delete)'
//	    rationale: production database writes go through change control
type Policy struct {
	Rules []PolicyRule `yaml:"rules"`
}

// PolicyRule is one rule entry in a policy file.
type PolicyRule struct {
	Stage     string `yaml:"stage"`
	Name      string `yaml:"name"`
	Pattern   string `yaml:"pattern"`
	Unless    string `yaml:"unless,omitempty"`
	Rationale string `yaml:"rationale"`
}

// LoadPolicy reads a Policy from a YAML file
func LoadPolicy(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewFileNotFoundError(path)
		}
		return nil, errors.Wrap(errors.ErrCodeFileReadFailed, "read safety policy", err)
	}

	return ParsePolicy(data)
}

// ParsePolicy decodes policy YAML.
func ParsePolicy(data []byte) (*Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, errors.NewSafetyPolicyError("unmarshal policy", err)
	}
	return &p, nil
}

// Compile turns the policy entries into rules, reporting every invalid entry.
func (p *Policy) Compile() ([]Rule, error) {
	var (
		rules    []Rule
		problems []string
	)
	seen := make(map[string]bool)
	for _, r := range builtinRules {
		seen[r.Name] = true
	}

	for i, pr := range p.Rules {
		label := pr.Name
		if label == "" {
			label = fmt.Sprintf("rules[%d]", i)
		}

		stage, err := ParseStage(pr.Stage)
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", label, err))
			continue
		}
		if pr.Name == "" || pr.Pattern == "" {
			problems = append(problems, fmt.Sprintf("%s: name and pattern are required", label))
			continue
		}
		if seen[pr.Name] {
			problems = append(problems, fmt.Sprintf("%s: duplicate rule name", label))
			continue
		}
		seen[pr.Name] = true

		rule, err := NewRule(stage, pr.Name, pr.Pattern, pr.Unless, pr.Rationale)
		if err != nil {
			problems = append(problems, err.Error())
			continue
		}
		rules = append(rules, rule)
	}

	if len(problems) > 0 {
		return nil, errors.NewSafetyPolicyError(fmt.Sprintf("%d invalid rule(s): %v", len(problems), problems), nil)
	}
	return rules, nil
}

// NewFromPolicyFile builds a classifier from the built-in rules plus the rules
// in the policy file at path. An empty path yields the default classifier.
func NewFromPolicyFile(path string) (*Classifier, error) {
	if path == "" {
		return Default(), nil
	}

	p, err := LoadPolicy(path)
	if err != nil {
		return nil, err
	}
	extra, err := p.Compile()
	if err != nil {
		return nil, err
	}
	return New(extra...), nil
}
