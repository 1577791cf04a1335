package llmjson

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDirect(t *testing.T) {
	m := Parse(`{"action": "opened", "reason": "looks relevant"}`, nil)
	assert.Equal(t, "opened", m["action"])
	assert.Equal(t, "looks relevant", m["reason"])
}

func TestParseFenced(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"lowercase tag", "```json\n{\"action\": \"opened\"}\n```"},
		{"uppercase tag", "```JSON\n{\"action\": \"opened\"}\n```"},
		{"no tag", "```\n{\"action\": \"opened\"}\n```"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Parse(tt.raw, nil)
			assert.Equal(t, "opened", m["action"])
		})
	}
}

func TestParseEmbeddedInProse(t *testing.T) {
	raw := `Sure! Here is the JSON you asked for:
{"action": "ignored", "reason": "not my area"}
Let me know if you need anything else.`
	m := Parse(raw, nil)
	assert.Equal(t, "ignored", m["action"])
	assert.Equal(t, "not my area", m["reason"])
}

// The wrapped and unwrapped forms of the same payload must parse to the
// same structure.
func TestParseRoundTrip(t *testing.T) {
	payload := `{"final_action": "clicked", "internal_monologue": "worth a look"}`
	plain := Parse(payload, nil)
	fenced := Parse("```json\n"+payload+"\n```", nil)
	prose := Parse("Of course. "+payload+" Hope that helps!", nil)
	assert.Equal(t, plain, fenced)
	assert.Equal(t, plain, prose)
}

func TestParseNestedObject(t *testing.T) {
	raw := `prefix {"outer": {"inner": "value"}, "list": [1, 2]} suffix`
	m := Parse(raw, nil)
	require.Contains(t, m, "outer")
	inner, ok := m["outer"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "value", inner["inner"])
}

func TestParseStringWithBraces(t *testing.T) {
	raw := `{"comment": "use {placeholders} carefully", "action": "opened"}`
	m := Parse(raw, nil)
	assert.Equal(t, "use {placeholders} carefully", m["comment"])
}

func TestParseBareArrayWrapped(t *testing.T) {
	m := Parse(`[{"type": "positive"}, {"type": "warning"}]`, nil)
	arr, ok := m["data"].([]any)
	require.True(t, ok)
	assert.Len(t, arr, 2)
}

func TestParseFallbacks(t *testing.T) {
	fallback := map[string]any{"action": "ignored"}
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"whitespace", "   \n\t  "},
		{"plain prose", "I could not produce a response."},
		{"truncated object", `{"action": "opened", "reason": "cut off`},
		{"unbalanced braces", `{{"action": "opened"`},
		{"trailing comma", `{"action": "opened",}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Parse(tt.raw, fallback)
			assert.Equal(t, fallback, m)
		})
	}
}

func TestParseNilFallbackReturnsEmptyMap(t *testing.T) {
	m := Parse("garbage", nil)
	require.NotNil(t, m)
	assert.Empty(t, m)
}

func TestStr(t *testing.T) {
	m := map[string]any{"a": "x", "b": "", "c": 7}
	assert.Equal(t, "x", Str(m, "a", "def"))
	assert.Equal(t, "def", Str(m, "b", "def"))
	assert.Equal(t, "def", Str(m, "c", "def"))
	assert.Equal(t, "def", Str(m, "missing", "def"))
}
