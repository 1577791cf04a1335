package simulation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberline/inboxsim/internal/domain"
)

func insightsFor(t *testing.T, p *scriptProvider, m domain.Metrics) []domain.Insight {
	t.Helper()
	e := newTestEngine(p, makePersonas(0))
	responses := []domain.Response{{Persona: testPersona, Action: domain.ActionOpened}}
	return e.generateInsights(context.Background(), testDraft, m, responses)
}

func TestModelInsightsParsed(t *testing.T) {
	p := &scriptProvider{insight: `{"insights": [
		{"type": "positive", "title": "Good subject", "description": "It lands."},
		{"type": "issue", "title": "Weak CTA", "description": "Too vague."},
		{"type": "surprising", "title": "Odd pattern", "description": "Mixed reactions."}
	]}`}
	insights := insightsFor(t, p, domain.Metrics{OpenRate: 50})

	require.Len(t, insights, 3)
	assert.Equal(t, domain.InsightPositive, insights[0].Type)
	assert.Equal(t, domain.InsightNegative, insights[1].Type, `"issue" maps to negative`)
	assert.Equal(t, domain.InsightWarning, insights[2].Type, "unknown types map to warning")
}

func TestModelInsightsFencedOutput(t *testing.T) {
	p := &scriptProvider{insight: "```json\n" +
		`{"insights": [{"type": "warning", "title": "W", "description": "d"}]}` +
		"\n```"}
	insights := insightsFor(t, p, domain.Metrics{})

	require.Len(t, insights, 1)
	assert.Equal(t, "W", insights[0].Title)
}

// A trailing comma breaks strict JSON parsing; the run must fall back to
// heuristics rather than surface an error.
func TestModelInsightsTrailingCommaFallsBack(t *testing.T) {
	p := &scriptProvider{insight: `Here is my analysis:
{"insights": [{"type": "positive", "title": "T", "description": "d"},]}`}
	insights := insightsFor(t, p, domain.Metrics{OpenRate: 50, ClickRate: 20})

	require.NotEmpty(t, insights)
	assert.Equal(t, "High open rate", insights[0].Title)
}

func TestModelInsightsErrorFallsBack(t *testing.T) {
	p := &scriptProvider{insightErr: assert.AnError}
	insights := insightsFor(t, p, domain.Metrics{OpenRate: 10})

	require.NotEmpty(t, insights)
	assert.Equal(t, "Low open rate", insights[0].Title)
}

func TestCoerceInsightType(t *testing.T) {
	assert.Equal(t, domain.InsightPositive, coerceInsightType("positive"))
	assert.Equal(t, domain.InsightPositive, coerceInsightType("Positive"))
	assert.Equal(t, domain.InsightNegative, coerceInsightType("negative"))
	assert.Equal(t, domain.InsightNegative, coerceInsightType("issue"))
	assert.Equal(t, domain.InsightWarning, coerceInsightType("warning"))
	assert.Equal(t, domain.InsightWarning, coerceInsightType("celebration"))
	assert.Equal(t, domain.InsightWarning, coerceInsightType(""))
}

func TestHeuristicInsights(t *testing.T) {
	tests := []struct {
		name    string
		metrics domain.Metrics
		titles  []string
	}{
		{
			"low open rate",
			domain.Metrics{OpenRate: 10},
			[]string{"Low open rate"},
		},
		{
			"high open rate",
			domain.Metrics{OpenRate: 55},
			[]string{"High open rate"},
		},
		{
			"middling open rate produces nothing",
			domain.Metrics{OpenRate: 30},
			nil,
		},
		{
			"spam risk",
			domain.Metrics{OpenRate: 30, SpamRate: 15},
			[]string{"Spam risk"},
		},
		{
			"effective cta stacks with high opens",
			domain.Metrics{OpenRate: 60, ClickRate: 20},
			[]string{"High open rate", "Effective CTA"},
		},
		{
			"boundary values excluded",
			domain.Metrics{OpenRate: 20, SpamRate: 10, ClickRate: 15},
			nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			insights := heuristicInsights(tt.metrics)
			var titles []string
			for _, in := range insights {
				titles = append(titles, in.Title)
			}
			assert.Equal(t, tt.titles, titles)
		})
	}
}
