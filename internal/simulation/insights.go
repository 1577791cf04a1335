package simulation

import (
	"context"
	"strings"

	"github.com/emberline/inboxsim/internal/domain"
	"github.com/emberline/inboxsim/internal/llmjson"
	"github.com/emberline/inboxsim/internal/pkg/logger"
)

// generateInsights asks the model for three insights and falls back to
// threshold heuristics when the model is down or its answer is unusable.
// This step never fails the run.
func (e *Engine) generateInsights(ctx context.Context, d domain.Draft, m domain.Metrics, responses []domain.Response) []domain.Insight {
	if len(responses) == 0 {
		// Nothing to analyze; don't burn a model call on an empty run.
		return heuristicInsights(m)
	}

	prompt := InsightPrompt(d, m, responses)

	raw, err := e.provider.Complete(ctx, prompt)
	if err != nil {
		logger.Warn("insight completion failed, using heuristics", "error", err)
		return heuristicInsights(m)
	}

	parsed := llmjson.Parse(raw, nil)
	items, _ := parsed["insights"].([]any)

	var insights []domain.Insight
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		insights = append(insights, domain.Insight{
			Type:        coerceInsightType(llmjson.Str(entry, "type", "warning")),
			Title:       llmjson.Str(entry, "title", "Insight"),
			Description: llmjson.Str(entry, "description", ""),
		})
	}
	if len(insights) > 0 {
		logger.Info("generated model insights", "count", len(insights))
		return insights
	}

	logger.Warn("model response contained no usable insights, using heuristics")
	return heuristicInsights(m)
}

// coerceInsightType normalizes model-produced insight types. Models like to
// invent "issue"; anything else unknown becomes a warning.
func coerceInsightType(raw string) domain.InsightType {
	switch strings.ToLower(raw) {
	case "positive":
		return domain.InsightPositive
	case "negative", "issue":
		return domain.InsightNegative
	case "warning":
		return domain.InsightWarning
	}
	return domain.InsightWarning
}

// heuristicInsights derives 0-4 insights from fixed metric thresholds.
func heuristicInsights(m domain.Metrics) []domain.Insight {
	var insights []domain.Insight

	if m.OpenRate < 20 {
		insights = append(insights, domain.Insight{
			Type:        domain.InsightNegative,
			Title:       "Low open rate",
			Description: "The subject line isn't compelling enough for this audience.",
		})
	} else if m.OpenRate > 40 {
		insights = append(insights, domain.Insight{
			Type:        domain.InsightPositive,
			Title:       "High open rate",
			Description: "The subject line is working well.",
		})
	}

	if m.SpamRate > 10 {
		insights = append(insights, domain.Insight{
			Type:        domain.InsightWarning,
			Title:       "Spam risk",
			Description: "Many recipients flagged this as spam. Check for trigger words.",
		})
	}

	if m.ClickRate > 15 {
		insights = append(insights, domain.Insight{
			Type:        domain.InsightPositive,
			Title:       "Effective CTA",
			Description: "The call to action is driving clicks.",
		})
	}

	logger.Info("generated heuristic insights", "count", len(insights))
	return insights
}
