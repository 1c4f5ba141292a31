package runbook

import (
	"encoding/json"
	stderrors "errors"
	"regexp"
	"strings"

	"github.com/abhishekK50/wardenxt/internal/errors"
)

var fencedJSON = regexp.MustCompile("```(?:json)?\\s*(\\{[\\s\\S]*?\\})\\s*```")

// ExtractJSON finds the runbook object in generated text. It tries a direct
// parse, then a fenced code block, then every brace-balanced object in the
// text that has a "steps" key.
func ExtractJSON(text string) ([]byte, error) {
	trimmed := strings.TrimSpace(text)

	if isObject(trimmed) {
		return []byte(trimmed), nil
	}

	if m := fencedJSON.FindStringSubmatch(trimmed); m != nil && isObject(m[1]) {
		return []byte(m[1]), nil
	}

	for _, candidate := range braceObjects(trimmed) {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal([]byte(candidate), &fields); err != nil {
			continue
		}
		if _, ok := fields["steps"]; ok {
			return []byte(candidate), nil
		}
	}

	return nil, errors.NewRunbookUnparsableError(stderrors.New("no JSON object with a steps array found in response"))
}

func isObject(s string) bool {
	if !strings.HasPrefix(s, "{") {
		return false
	}
	var fields map[string]json.RawMessage
	return json.Unmarshal([]byte(s), &fields) == nil
}

// braceObjects returns brace-balanced substrings of text in order, skipping
// braces inside JSON strings. An unbalanced '{' is skipped rather than
// swallowing the rest of the text.
func braceObjects(text string) []string {
	var out []string
	for i := 0; i < len(text); {
		idx := strings.IndexByte(text[i:], '{')
		if idx < 0 {
			break
		}
		start := i + idx
		end, ok := balancedEnd(text, start)
		if !ok {
			i = start + 1
			continue
		}
		out = append(out, text[start:end+1])
		i = end + 1
	}
	return out
}

func balancedEnd(text string, start int) (int, bool) {
	depth := 0
	inString := false
	escape := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escape:
				escape = false
			case c == '\\':
				escape = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
