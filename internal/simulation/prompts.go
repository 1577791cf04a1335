package simulation

import (
	"fmt"
	"strings"

	"github.com/osteele/liquid"

	"github.com/emberline/inboxsim/internal/domain"
	"github.com/emberline/inboxsim/internal/pkg/logger"
)

// Prompt builders are pure renderers: persona + draft + phase data in,
// prompt string out. Each prompt ends with a strict JSON-only output
// contract because everything downstream assumes machine-readable output.

var liquidEngine = liquid.NewEngine()

// personalize renders merge tags ({{ first_name }}, {{ company }}, ...) in
// draft text against the persona, the same way the real campaign send
// would. Render failures fall back to the raw text; a broken tag should
// not break a simulation.
func personalize(text string, p domain.Persona) string {
	if !strings.Contains(text, "{{") {
		return text
	}
	firstName := p.Name
	if i := strings.IndexByte(p.Name, ' '); i > 0 {
		firstName = p.Name[:i]
	}
	out, err := liquidEngine.ParseAndRenderString(text, liquid.Bindings{
		"name":       p.Name,
		"first_name": firstName,
		"role":       p.Role,
		"company":    p.Company,
	})
	if err != nil {
		logger.Debug("merge tag render failed", "error", err)
		return text
	}
	return out
}

// InboxScanPrompt renders the phase-one prompt: the persona sees only the
// subject line and decides opened / ignored / spam.
func InboxScanPrompt(p domain.Persona, d domain.Draft, relevance float64) string {
	return fmt.Sprintf(`You are %s, a %s at %s.
Your psychographic profile: %s
Your past behavior: %s

Task: You are checking your inbox. You see a new email.

Email Subject: %q
Relevance Score: %.2f (0.00 = irrelevant, 1.00 = perfect match)

Analyze the subject line and decide:
1. Is it relevant to your role and industry?
2. Does the tone appeal to your psychographic profile?
3. Make a decision: "opened", "ignored", or "spam".

Respond ONLY with valid JSON (no extra text, no markdown):
{
    "thought_process": "Brief explanation",
    "action": "opened",
    "reason": "One sentence explanation"
}

Valid action values: "opened", "ignored", "spam"`,
		p.Name, p.Role, p.Company, p.Psychographics, p.PastBehavior,
		personalize(d.Subject, p), relevance)
}

// TakeActionPrompt renders the phase-three prompt: the persona has read the
// email and decides what to do about the call to action.
func TakeActionPrompt(p domain.Persona, d domain.Draft) string {
	return fmt.Sprintf(`You are %s, a %s at %s.
You have read the email. Now decide about the Call to Action (CTA).

Email Body:
%q

CTA: %q

Analyze:
1. Is the CTA clear? Is the value proposition strong enough?
2. Make a final decision: "clicked" (clicked the CTA), "replied" (sent a reply), or "opened" (just read and closed).
3. If replying, write a realistic response text matching your persona.
4. If clicking or doing nothing, write your internal thoughts.

Respond ONLY with valid JSON (no extra text, no markdown):
{
    "internal_monologue": "Your thoughts",
    "final_action": "clicked",
    "reply_text": "Your reply if applicable, otherwise empty"
}

Valid final_action values: "clicked", "replied", "opened"`,
		p.Name, p.Role, p.Company,
		personalize(d.Body, p), personalize(d.CTA, p))
}

// insightSampleCap bounds how many recipient reactions ride along in the
// insight prompt. The full response list would blow the context window.
const insightSampleCap = 5

// InsightPrompt renders the analysis prompt from the final metrics and a
// capped sample of responses.
func InsightPrompt(d domain.Draft, m domain.Metrics, responses []domain.Response) string {
	var sample strings.Builder
	for i, r := range responses {
		if i >= insightSampleCap {
			break
		}
		fmt.Fprintf(&sample, "- %s: %s (%s)\n", r.Persona.Role, r.Action, r.Comment)
	}

	return fmt.Sprintf(`You are an email marketing expert analyzing campaign simulation results.

Email Context:
Subject: %q
Audience: %s

Performance Metrics:
- Open Rate: %d%%
- Click Rate: %d%%
- Reply Rate: %d%%
- Spam Rate: %d%%
- Ignore Rate: %d%%

Sample Recipient Reactions:
%s
Task:
1. Identify the main reason for these results.
2. Find patterns (who opened, who ignored).
3. Provide 3 specific actionable insights.

IMPORTANT: Use ONLY double quotes for JSON keys and string values. No single quotes.

Respond ONLY with valid JSON (no extra text, no markdown, no code blocks):
{
    "insights": [
        {"type": "positive", "title": "...", "description": "..."},
        {"type": "negative", "title": "...", "description": "..."},
        {"type": "warning", "title": "...", "description": "..."}
    ]
}

Valid type values: "positive", "negative", "warning"`,
		d.Subject, d.Audience,
		m.OpenRate, m.ClickRate, m.ReplyRate, m.SpamRate, m.IgnoreRate,
		sample.String())
}
