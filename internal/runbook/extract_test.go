package runbook

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhishekK50/wardenxt/internal/errors"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "bare object",
			input: `{"steps": [{"commands": []}]}`,
		},
		{
			name:  "bare object with whitespace",
			input: "\n\n  {\"steps\": []}  \n",
		},
		{
			name:  "fenced json block",
			input: "```json\n{\"steps\": []}\n```",
		},
		{
			name:  "fenced block without language",
			input: "Sure!\n```\n{\"steps\": []}\n```\nDone.",
		},
		{
			name:  "object inside prose",
			input: `I suggest the following plan: {"steps": [{"title": "check {braces} in strings"}]} Good luck.`,
		},
		{
			name:  "skips objects without steps",
			input: `Context {"note": "ignore me"} then {"steps": []}`,
		},
		{
			name:  "unbalanced brace before the object",
			input: `Use { carefully. {"steps": []}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := ExtractJSON(tt.input)
			require.NoError(t, err)

			var fields map[string]json.RawMessage
			require.NoError(t, json.Unmarshal(data, &fields))
			assert.Contains(t, fields, "steps")
		})
	}
}

func TestExtractJSON_Failure(t *testing.T) {
	for _, input := range []string{
		"",
		"I cannot help with that.",
		`Result: {"summary": "no steps here"}`,
		`{"steps": [`,
	} {
		t.Run(input, func(t *testing.T) {
			_, err := ExtractJSON(input)
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeRunbookUnparsable, errors.CodeOf(err))
			assert.Equal(t, errors.KindValidationFailure, errors.KindOf(err))
		})
	}
}
