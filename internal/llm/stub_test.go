package llm

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	scanPromptSample    = "You are checking your inbox between meetings."
	actionPromptSample  = "You opened the email. Here is the Call to Action (CTA)."
	insightPromptSample = "Analyze the campaign simulation results below."
)

func parseJSON(t *testing.T, raw string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &m), "stub output must be valid JSON: %s", raw)
	return m
}

func TestStubScanResponse(t *testing.T) {
	s := NewStub(1)
	for i := 0; i < 20; i++ {
		out, err := s.Complete(context.Background(), scanPromptSample)
		require.NoError(t, err)
		m := parseJSON(t, out)
		assert.Contains(t, []any{"opened", "ignored", "spam"}, m["action"])
		assert.NotEmpty(t, m["reason"])
		assert.NotEmpty(t, m["thought_process"])
	}
}

func TestStubActionResponse(t *testing.T) {
	s := NewStub(1)
	sawReply := false
	for i := 0; i < 30; i++ {
		out, err := s.Complete(context.Background(), actionPromptSample)
		require.NoError(t, err)
		m := parseJSON(t, out)
		final := m["final_action"]
		assert.Contains(t, []any{"clicked", "replied", "opened"}, final)
		if final == "replied" {
			sawReply = true
			assert.NotEmpty(t, m["reply_text"])
		}
	}
	assert.True(t, sawReply, "30 draws should include at least one reply")
}

func TestStubInsightResponse(t *testing.T) {
	s := NewStub(1)
	out, err := s.Complete(context.Background(), insightPromptSample)
	require.NoError(t, err)
	m := parseJSON(t, out)
	insights, ok := m["insights"].([]any)
	require.True(t, ok)
	assert.Len(t, insights, 3)
}

func TestStubUnknownPrompt(t *testing.T) {
	s := NewStub(1)
	out, err := s.Complete(context.Background(), "something unrelated")
	require.NoError(t, err)
	assert.Equal(t, "{}", out)
}

func TestStubDeterministicPerSeed(t *testing.T) {
	prompts := []string{
		scanPromptSample, actionPromptSample,
		scanPromptSample, scanPromptSample, actionPromptSample,
	}
	run := func(seed int64) []string {
		s := NewStub(seed)
		out := make([]string, 0, len(prompts))
		for _, p := range prompts {
			resp, err := s.Complete(context.Background(), p)
			require.NoError(t, err)
			out = append(out, resp)
		}
		return out
	}

	assert.Equal(t, run(42), run(42), "same seed must replay identically")
}
