package safety

import "strings"

// readOnlyFilters are the programs a safe command may pipe into. Anything
// else after a pipe (an interpreter, sed, xargs, a shell by any path) keeps
// the command out of the safe stage.
var readOnlyFilters = map[string]bool{
	"grep": true, "egrep": true, "fgrep": true, "zgrep": true, "rg": true,
	"head": true, "tail": true, "wc": true, "sort": true, "uniq": true,
	"cut": true, "tr": true, "column": true, "nl": true, "tac": true,
	"less": true, "more": true, "jq": true, "yq": true, "awk": true, "gawk": true,
}

// pipesIntoFilters reports whether every pipeline stage after the first
// starts with a read-only filter.
func pipesIntoFilters(command string) bool {
	stages := pipeStages(command)
	for _, stage := range stages[1:] {
		fields := strings.Fields(stage)
		if len(fields) == 0 || !readOnlyFilters[strings.ToLower(fields[0])] {
			return false
		}
	}
	return true
}

// pipeStages splits command on unquoted, unescaped pipes. "||" yields an
// empty stage.
func pipeStages(command string) []string {
	var (
		stages  []string
		quote   rune
		escaped bool
		start   int
	)
	for i, r := range command {
		switch {
		case escaped:
			escaped = false
		case quote == '\'':
			if r == '\'' {
				quote = 0
			}
		case r == '\\':
			escaped = true
		case quote == '"':
			if r == '"' {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == '|':
			stages = append(stages, command[start:i])
			start = i + 1
		}
	}
	return append(stages, command[start:])
}
