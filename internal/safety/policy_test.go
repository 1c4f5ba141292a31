package safety

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhishekK50/wardenxt/internal/errors"
)

const samplePolicy = `
rules:
  - stage: blocklist
    name: prod-db-writes
    pattern: 'psql\s.*prod.*\b(insert|update|delete)\b'
    rationale: production database writes go through change control
  - stage: safe
    name: app-status
    pattern: '^appctl\s+status\b'
    rationale: read-only application status
  - stage: high
    name: cache-purge
    pattern: '\bcachectl\s+purge\b'
    unless: '--dry-run'
    rationale: cold caches overload the database
`

func writePolicy(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewFromPolicyFile(t *testing.T) {
	c, err := NewFromPolicyFile(writePolicy(t, samplePolicy))
	require.NoError(t, err)

	v := c.Classify(`psql -h prod-db -c "delete from carts where id = 1"`)
	assert.False(t, v.Allowed)
	assert.Equal(t, "prod-db-writes", v.Rule)

	v = c.Classify("appctl status --verbose")
	assert.Equal(t, TierSafe, v.Tier)
	assert.Equal(t, "app-status", v.Rule)

	v = c.Classify("cachectl purge sessions")
	assert.Equal(t, TierHigh, v.Tier)
	assert.True(t, v.RequiresConfirmation())

	v = c.Classify("cachectl purge sessions --dry-run")
	assert.Equal(t, StageDefault, v.Stage)

	// built-in blocklist still wins over an extra safe rule
	assert.False(t, c.Classify("appctl status; rm -rf /").Allowed)
}

func TestNewFromPolicyFile_EmptyPathUsesDefault(t *testing.T) {
	c, err := NewFromPolicyFile("")
	require.NoError(t, err)
	assert.Same(t, Default(), c)
}

func TestNewFromPolicyFile_Missing(t *testing.T) {
	_, err := NewFromPolicyFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeFileNotFound, errors.CodeOf(err))
}

func TestExtraRulesFollowBuiltinsOfTheirStage(t *testing.T) {
	c, err := NewFromPolicyFile(writePolicy(t, samplePolicy))
	require.NoError(t, err)

	rules := c.Rules()
	index := make(map[string]int)
	for i, r := range rules {
		index[r.Name] = i
	}

	assert.Greater(t, index["prod-db-writes"], index["fork-bomb"])
	assert.Less(t, index["prod-db-writes"], index["kubectl-read"])
	assert.Greater(t, index["cache-purge"], index["sql-drop"])
}

func TestCompileReportsEveryProblem(t *testing.T) {
	p, err := ParsePolicy([]byte(`
rules:
  - stage: critical
    name: bad-stage
    pattern: x
  - stage: safe
    name: missing-pattern
  - stage: medium
    name: rm-recursive-root
    pattern: rm
  - stage: high
    name: bad-regex
    pattern: '(['
`))
	require.NoError(t, err)

	_, err = p.Compile()
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeSafetyPolicy, errors.CodeOf(err))
	assert.Equal(t, errors.KindValidationFailure, errors.KindOf(err))
	for _, name := range []string{"bad-stage", "missing-pattern", "rm-recursive-root", "bad-regex"} {
		assert.Contains(t, err.Error(), name)
	}
}

func TestParsePolicy_InvalidYAML(t *testing.T) {
	_, err := ParsePolicy([]byte("rules: [unterminated"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeSafetyPolicy, errors.CodeOf(err))
}

func TestParseStage(t *testing.T) {
	for _, st := range Order {
		got, err := ParseStage(string(st))
		require.NoError(t, err)
		assert.Equal(t, st, got)
	}

	_, err := ParseStage("default")
	assert.Error(t, err)
}
