package safety

import (
	"fmt"
	"regexp"
)

// Stage is one pass of the classifier. Stages are evaluated in Order and the
// first matching rule wins.
type Stage string

const (
	StageBlocklist Stage = "blocklist"
	StageSafe      Stage = "safe"
	StageMedium    Stage = "medium"
	StageHigh      Stage = "high"
	StageDefault   Stage = "default"
)

// Order lists the stages in evaluation order.
var Order = []Stage{StageBlocklist, StageSafe, StageMedium, StageHigh}

func (s Stage) rank() int {
	for i, st := range Order {
		if st == s {
			return i
		}
	}
	return len(Order)
}

// Tier returns the risk tier a match in this stage assigns.
func (s Stage) Tier() Tier {
	switch s {
	case StageSafe:
		return TierSafe
	case StageBlocklist, StageHigh:
		return TierHigh
	default:
		return TierMedium
	}
}

// ParseStage validates a stage name from a policy file.
func ParseStage(s string) (Stage, error) {
	for _, st := range Order {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown stage %q", s)
}

// Rule is one row of the safety table. A rule matches when Pattern matches the
// normalized command and Unless (if set) does not.
type Rule struct {
	Name      string
	Stage     Stage
	Pattern   *regexp.Regexp
	Unless    *regexp.Regexp
	Rationale string
}

func (r Rule) matches(command string) bool {
	if !r.Pattern.MatchString(command) {
		return false
	}
	return r.Unless == nil || !r.Unless.MatchString(command)
}

// NewRule compiles a rule. Patterns are matched case-insensitively.
func NewRule(stage Stage, name, pattern, unless, rationale string) (Rule, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return Rule{}, fmt.Errorf("rule %s: pattern: %w", name, err)
	}
	r := Rule{Name: name, Stage: stage, Pattern: re, Rationale: rationale}
	if unless != "" {
		ure, err := regexp.Compile("(?i)" + unless)
		if err != nil {
			return Rule{}, fmt.Errorf("rule %s: unless: %w", name, err)
		}
		r.Unless = ure
	}
	return r, nil
}

func mustRule(stage Stage, name, pattern, unless, rationale string) Rule {
	r, err := NewRule(stage, name, pattern, unless, rationale)
	if err != nil {
		panic(err)
	}
	return r
}

// cmdStart anchors a tool name at the start of a command, after a shell
// separator or substitution, or after sudo.
const cmdStart = `(?:^|[;&|(` + "`" + `]\s*|\bsudo\s+)`

// recursiveFlag matches -r, -R, -rf, -fR, --recursive and similar.
const recursiveFlag = `(?:-[a-z]*r[a-z]*|--recursive)`

// kubectlFlags matches global flags that may precede the kubectl verb.
const kubectlFlags = `(?:\s+(?:-n|--namespace|--context|--kubeconfig|--cluster)[\s=]\S+)*`

// criticalK8sResource is the set of kubectl resources whose deletion is high risk.
const criticalK8sResource = `kubectl` + kubectlFlags + `\s+delete\s+(?:\S+\s+)*?(?:deployments?|deploy|services?|svc|namespaces?|ns)(?:[/.\s]|$)`

// safeUnless keeps redirection into files, command chaining and command or
// process substitution out of the safe stage. Such commands fall through to
// the later stages.
const safeUnless = `(?:^|[^0-9&>])>{1,2}\s*[^&\s]|;\s*[^\s'"]|&&|\|\||\|\s*(?:xargs|tee)\b` +
	`|\$\(|[<>]\(|` + "`" + `|\bsystem\s*\(|\bgetline\b`

// shellName matches a shell invoked by name or by path, optionally via sudo.
const shellName = `(?:sudo(?:\s+-[ug]\s+\S+|\s+-\S+)*\s+)?(?:env(?:\s+\S+=\S*)*\s+)?(?:\S*/)?(?:ba|z|k|da|a|c|tc|fi)?sh(?:[^\w.-]|$)`

func safePrefix(name, prefix, unless string) Rule {
	u := safeUnless
	if unless != "" {
		u = safeUnless + "|" + unless
	}
	return mustRule(StageSafe, name, `^`+prefix+`(?:\s|$)`, u, "read-only inspection")
}

var builtinRules = []Rule{
	// Absolute blocklist.
	mustRule(StageBlocklist, "rm-no-preserve-root", `\brm\b.*--no-preserve-root`, "",
		"disables the root filesystem safeguard"),
	mustRule(StageBlocklist, "rm-recursive-root",
		`\brm\s+(?:-{1,2}[\w-]+\s+)*`+recursiveFlag+`\s+(?:[^\s;&|]+\s+)*?['"]?(?:/|~|\$\{?HOME\b|[^\s'"]*\*)`, "",
		"recursive delete of an absolute path, the home directory or a wildcard"),
	mustRule(StageBlocklist, "disk-wipe", `\bdd\b.*\bif=/dev/(?:zero|u?random)\b`, "",
		"overwrites a device with zero or random data"),
	mustRule(StageBlocklist, "raw-disk-dd", `\bdd\b.*\bof=/dev/(?:sd|hd|vd|xvd|nvme|mmcblk|disk)`, "",
		"writes raw data to a block device"),
	mustRule(StageBlocklist, "raw-disk-redirect", `>+\s*/dev/(?:sd|hd|vd|xvd|nvme|mmcblk|disk)`, "",
		"redirects output onto a block device"),
	mustRule(StageBlocklist, "shred", `\bshred\b`, "",
		"irrecoverably overwrites files or devices"),
	mustRule(StageBlocklist, "filesystem-format", `\bmkfs(?:\.\w+)?\b|\bmke2fs\b|\bmkswap\b`, "",
		"formats a filesystem"),
	mustRule(StageBlocklist, "partitioning", `\b(?:fdisk|sfdisk|gdisk|parted|wipefs)\b`, "",
		"modifies disk partition tables"),
	mustRule(StageBlocklist, "firewall-flush",
		`\biptables\b.*\s(?:-F|--flush)\b|\bnft\s+flush\s+ruleset\b|\bufw\s+(?:disable|reset)\b`, "",
		"removes all firewall rules"),
	mustRule(StageBlocklist, "power-state", `\b(?:shutdown|reboot|halt|poweroff)\b|\binit\s+[06]\b|\btelinit\s+[06]\b`, "",
		"shuts down or reboots the host"),
	mustRule(StageBlocklist, "chmod-recursive-777",
		`\bchmod\s+(?:\S+\s+)*?`+recursiveFlag+`\s+(?:\S+\s+)*?0?777\b`, "",
		"recursively grants world-writable permissions"),
	mustRule(StageBlocklist, "recursive-perm-root",
		`\bch(?:mod|own|grp)\s+(?:\S+\s+)*?`+recursiveFlag+`\s+(?:\S+\s+)*?/(?:\s|$)`, "",
		"recursively changes permissions or ownership of the root filesystem"),
	mustRule(StageBlocklist, "chown-recursive-root",
		`\bchown\s+(?:\S+\s+)*?`+recursiveFlag+`\s+(?:\S+\s+)*?root(?::\S*)?(?:\s|$)`, "",
		"recursively hands ownership to root"),
	mustRule(StageBlocklist, "drop-database", `\bdrop\s+(?:database|schema)\b`, "",
		"drops an entire database"),
	mustRule(StageBlocklist, "drop-table", `\bdrop\s+table\b`, "",
		"drops a table"),
	mustRule(StageBlocklist, "truncate-table", `\btruncate\s+(?:table\b|[^-\s])`, "",
		"removes every row of a table"),
	mustRule(StageBlocklist, "unfiltered-delete", `\bdelete\s+from\s+\S+`, `\bwhere\b`,
		"deletes every row of a table (no WHERE clause)"),
	mustRule(StageBlocklist, "unfiltered-update", `\bupdate\s+\S+\s+set\b`, `\bwhere\b`,
		"updates every row of a table (no WHERE clause)"),
	mustRule(StageBlocklist, "redis-flush", `\bredis-cli\b.*\bflush(?:all|db)\b`, "",
		"deletes every key in a redis instance"),
	mustRule(StageBlocklist, "pipe-to-shell", `\|\s*`+shellName, "",
		"pipes downloaded or generated text into a shell"),
	mustRule(StageBlocklist, "shell-download-substitution",
		`(?:^|[;&|(\s])(?:\S*/)?(?:ba|z|k|da|a)?sh\b.*(?:<\(|\$\(|`+"`"+`)\s*(?:curl|wget)\b`, "",
		"runs a downloaded script through a shell"),
	mustRule(StageBlocklist, "eval", `\beval\b`, "",
		"evaluates arbitrary code"),
	mustRule(StageBlocklist, "fork-bomb", `:\(\)\s*\{\s*:\s*\|\s*:\s*&\s*\}\s*;\s*:`, "",
		"exhausts process table"),

	// Known-safe read-only prefixes.
	safePrefix("kubectl-read", `kubectl`+kubectlFlags+`\s+(?:get|describe|logs|top|explain|version|cluster-info|api-resources|events|auth\s+can-i|config\s+view|rollout\s+(?:status|history))`, ""),
	safePrefix("docker-read", `docker\s+(?:ps|inspect|logs|stats|images|info|version|top|port|events|compose\s+(?:ps|logs))`, ""),
	safePrefix("docker-compose-read", `docker-compose\s+(?:ps|logs)`, ""),
	safePrefix("helm-read", `helm\s+(?:list|ls|status|history|get)`, ""),
	safePrefix("systemd-read", `systemctl\s+(?:status|is-active|is-enabled|is-failed|list-units|list-timers|show|cat)`, ""),
	safePrefix("journal-read", `journalctl`, `--(?:vacuum|rotate|flush)`),
	safePrefix("process-read", `(?:ps|top|htop|pgrep|uptime|who|w|last|free|vmstat|iostat|mpstat|pidstat|sar|dmesg)`, `^dmesg\s+(?:-\S*c|--clear)`),
	safePrefix("disk-read", `(?:df|du|lsblk|blkid|findmnt|mount)`, `\bmount\s+\S+\s+\S+`),
	safePrefix("net-read", `(?:netstat|ss|lsof|ip\s+(?:a|addr|address|r|route|link|neigh)(?:\s+show)?|ifconfig|ping|dig|nslookup|host|traceroute|tracepath|mtr|telnet|nc|arp)`, `\bip\s+\S+\s+(?:add|del|delete|flush|change|replace|set)\b`),
	safePrefix("file-read", `(?:cat|tail|head|less|more|wc|sort|uniq|grep|egrep|fgrep|zgrep|zcat|ls|pwd|stat|file|diff|jq|yq|whoami|id|hostname|uname|date)`, ""),
	safePrefix("find-read", `find`, `-(?:delete|exec|execdir|ok|fprint)\b`),
	safePrefix("sed-read", `sed`, `\s-[a-z]*i|--in-place`),
	safePrefix("awk-read", `(?:awk|gawk)`, `\bsystem\s*\(|>\s*"`),
	safePrefix("http-read", `curl`, `\s(?:-X|--request)\s*['"]?(?:POST|PUT|DELETE|PATCH)\b|\s(?:-d|--data\S*|-F|--form|-T|--upload-file|-o|--output)(?:\s|=|$)`),
	safePrefix("http-fetch", `wget`, `--(?:post|method|body)`),
	safePrefix("git-read", `git\s+(?:status|log|diff|show|branch|remote\s+-v|rev-parse|describe)`, ""),
	safePrefix("sql-read", `(?:select|show|describe|desc|explain)`, `\b(?:insert|update|delete|drop|truncate|alter|create|grant|revoke)\b|\binto\s+outfile\b`),
	mustRule(StageSafe, "sql-client-read",
		`^(?:psql|mysql|mariadb|sqlite3)\b.*(?:-c|-e|--command|--execute)[\s=]*['"]?\s*(?:select|show|describe|explain|\\d)`,
		`\b(?:insert|update|delete|drop|truncate|alter|create|grant|revoke)\b|`+safeUnless,
		"read-only database query"),
	safePrefix("redis-read", `redis-cli(?:\s+-\S+(?:\s+\S+)?)*\s+(?:info|ping|get|keys|scan|ttl|type|dbsize|slowlog\s+get|client\s+list|memory\s+usage)`, ""),

	// Recoverable state changes.
	mustRule(StageMedium, "kubectl-mutate",
		cmdStart+`kubectl`+kubectlFlags+`\s+(?:apply|create|scale|patch|rollout|set|annotate|label|cordon|uncordon|drain|edit|replace|autoscale)\b`, "",
		"declarative or scaling change to cluster state"),
	mustRule(StageMedium, "kubectl-delete", cmdStart+`kubectl`+kubectlFlags+`\s+delete\b`, criticalK8sResource,
		"deletes a recreatable cluster resource"),
	mustRule(StageMedium, "service-lifecycle",
		cmdStart+`(?:systemctl\s+(?:restart|stop|start|reload|try-restart|enable|disable)|service\s+\S+\s+(?:restart|stop|start|reload))\b`, "",
		"restarts, stops or starts a service"),
	mustRule(StageMedium, "container-lifecycle",
		cmdStart+`(?:docker|podman)(?:\s+compose|-compose)?\s+(?:restart|stop|start|up|down|pull|kill|pause|unpause)\b`, "",
		"restarts, stops or starts containers"),
	mustRule(StageMedium, "helm-release", cmdStart+`helm\s+(?:upgrade|install|rollback)\b`, "",
		"changes a helm release"),
	mustRule(StageMedium, "terraform-apply", cmdStart+`terraform\s+(?:plan|apply|init)\b`, `\s-destroy\b`,
		"applies an infrastructure plan"),
	mustRule(StageMedium, "process-signal", cmdStart+`(?:kill|pkill|killall)\b`, "",
		"signals running processes"),
	mustRule(StageMedium, "dependency-management",
		cmdStart+`(?:git|npm|yarn|pnpm|pip3?\s+install|apt-get|apt|yum|dnf|apk)\b`, "",
		"changes source or installed packages"),
	mustRule(StageMedium, "sql-insert", `\binsert\s+into\b`, "",
		"inserts rows"),
	mustRule(StageMedium, "sql-filtered-write", `\b(?:update\s+\S+\s+set|delete\s+from)\b.*\bwhere\b`, "",
		"filtered update or delete"),

	// Destructive but sometimes legitimate.
	mustRule(StageHigh, "kubectl-delete-critical", criticalK8sResource, "",
		"deletes a deployment, service or namespace"),
	mustRule(StageHigh, "terraform-destroy", `\bterraform\s+(?:destroy|apply\s+.*-destroy)\b`, "",
		"destroys managed infrastructure"),
	mustRule(StageHigh, "container-prune", `\b(?:docker|podman)\s+(?:system|volume|image|container|network)\s+prune\b`, "",
		"removes containers, images or volumes in bulk"),
	mustRule(StageHigh, "file-remove", cmdStart+`(?:rm|rmdir|unlink)\s`, "",
		"removes files"),
	mustRule(StageHigh, "file-move", cmdStart+`mv\s`, "",
		"moves or overwrites files"),
	mustRule(StageHigh, "permission-change", cmdStart+`(?:chmod|chown|chgrp|setfacl)\b`, "",
		"changes ownership or permissions"),
	mustRule(StageHigh, "schema-alter", `\balter\s+(?:table|database|schema|user|role)\b`, "",
		"alters a database schema"),
	mustRule(StageHigh, "sql-create", `\bcreate\s+(?:database|schema|table)\b`, "",
		"creates a database or table"),
	mustRule(StageHigh, "sql-drop", `\bdrop\s+\w`, "",
		"drops a database object"),
}
