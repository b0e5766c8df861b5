package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLongestObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{name: "bare", in: `{"a":1}`, want: `{"a":1}`, ok: true},
		{name: "prose around", in: "Sure! Here it is:\n{\"a\": 1}\nHope that helps.", want: `{"a": 1}`, ok: true},
		{name: "nested", in: `x {"a": {"b": 2}} y`, want: `{"a": {"b": 2}}`, ok: true},
		{name: "longest wins", in: `{"a":1} and {"bb": 22, "cc": 33}`, want: `{"bb": 22, "cc": 33}`, ok: true},
		{name: "brace in string", in: `{"a": "}{"}`, want: `{"a": "}{"}`, ok: true},
		{name: "escaped quote", in: `{"a": "say \"}\""}`, want: `{"a": "say \"}\""}`, ok: true},
		{name: "unbalanced then balanced", in: `{ oops {"a":1}`, want: `{"a":1}`, ok: true},
		{name: "none", in: "no json here", ok: false},
		{name: "only open", in: "{{{", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := LongestObject(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractJSON(t *testing.T) {
	var out struct {
		First string `json:"first_name"`
		Last  string `json:"last_name"`
	}
	err := ExtractJSON("```json\n{\"first_name\": \"Jane\", \"last_name\": \"Doe\"}\n```", &out)
	require.NoError(t, err)
	assert.Equal(t, "Jane", out.First)
	assert.Equal(t, "Doe", out.Last)
}

func TestExtractJSONTolerant(t *testing.T) {
	var out map[string]any
	err := ExtractJSON(`{"a": 1, "b": [1, 2,],}`, &out)
	require.NoError(t, err)
	assert.Equal(t, float64(1), out["a"])
}

func TestExtractJSONErrors(t *testing.T) {
	var out map[string]any
	err := ExtractJSON("nothing", &out)
	assert.ErrorIs(t, err, ErrNoJSON)

	err = ExtractJSON(`{"a": ]}`, &out)
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, `{"a": ]}`, pe.Span)
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "hello", CleanText("  hello \n"))
	assert.Equal(t, "hello", CleanText("```\nhello\n```"))
	assert.Equal(t, "Smith Roofing", CleanText(`"Smith Roofing"`))
	assert.Empty(t, CleanText("   "))
}
