package simulation

import (
	"context"
	"strings"

	"github.com/emberline/inboxsim/internal/domain"
	"github.com/emberline/inboxsim/internal/llm"
	"github.com/emberline/inboxsim/internal/llmjson"
	"github.com/emberline/inboxsim/internal/pkg/logger"
	"github.com/emberline/inboxsim/internal/similarity"
)

// State names the position of a persona inside the decision pipeline.
type State string

const (
	StateScanning   State = "scanning"
	StateActing     State = "acting"
	StateTerminated State = "terminated"
)

// Transition applies the single pipeline transition rule: a persona who
// opened the email moves on to the action phase, everyone else is done.
func Transition(from State, action domain.Action) State {
	if from == StateScanning && action == domain.ActionOpened {
		return StateActing
	}
	return StateTerminated
}

// Pipeline runs the per-persona decision sequence against one draft.
// Provider failures at any phase degrade to conservative defaults; the
// pipeline itself never fails a persona.
type Pipeline struct {
	provider llm.Provider
	scorer   similarity.Scorer
}

// NewPipeline creates a decision pipeline over the given provider and
// scorer.
func NewPipeline(provider llm.Provider, scorer similarity.Scorer) *Pipeline {
	return &Pipeline{provider: provider, scorer: scorer}
}

// Run produces exactly one Response for the persona. Sentiment is always
// neutral: upstream behavior, preserved deliberately.
func (pl *Pipeline) Run(ctx context.Context, d domain.Draft, p domain.Persona) domain.Response {
	state := StateScanning

	action, comment, reasoning := pl.scan(ctx, d, p)
	state = Transition(state, action)

	if state == StateActing {
		action, comment, reasoning = pl.act(ctx, d, p, comment)
		state = StateTerminated
	}

	if comment == "" {
		comment = "No comment"
	}
	if reasoning == "" {
		reasoning = "No detailed reasoning"
	}
	return domain.Response{
		Persona:           p,
		Action:            action,
		Sentiment:         domain.SentimentNeutral,
		Comment:           comment,
		DetailedReasoning: reasoning,
	}
}

// scan is the inbox-scan phase: subject line only, decide opened / ignored
// / spam. The relevance score between the subject and the persona's
// profile feeds the prompt.
func (pl *Pipeline) scan(ctx context.Context, d domain.Draft, p domain.Persona) (domain.Action, string, string) {
	personaContext := p.Role + " " + p.Company + " " + p.Psychographics + " " + p.PastBehavior
	relevance := pl.scorer.Score(ctx, d.Subject, personaContext)

	prompt := InboxScanPrompt(p, d, relevance)

	var res map[string]any
	raw, err := pl.provider.Complete(ctx, prompt)
	if err != nil {
		logger.Error("inbox scan completion failed", "persona", p.Name, "error", err)
		res = map[string]any{
			"action":          "ignored",
			"reason":          "Model unavailable",
			"thought_process": err.Error(),
		}
	} else {
		res = llmjson.Parse(raw, map[string]any{
			"action":          "ignored",
			"reason":          "Unable to parse response",
			"thought_process": "Model response parsing failed",
		})
	}

	action := domain.CoerceAction(strings.ToLower(llmjson.Str(res, "action", "")), domain.ActionIgnored,
		domain.ActionOpened, domain.ActionIgnored, domain.ActionSpam)
	reason := llmjson.Str(res, "reason", "Not relevant")
	reasoning := llmjson.Str(res, "thought_process", reason)
	return action, reason, reasoning
}

// act is the action phase, entered only after an open: the persona has
// read the body and decides about the CTA. Failures degrade to a plain
// open, never abort.
func (pl *Pipeline) act(ctx context.Context, d domain.Draft, p domain.Persona, scanReason string) (domain.Action, string, string) {
	prompt := TakeActionPrompt(p, d)

	var res map[string]any
	raw, err := pl.provider.Complete(ctx, prompt)
	if err != nil {
		logger.Error("take-action completion failed", "persona", p.Name, "error", err)
		res = map[string]any{
			"final_action":       "opened",
			"internal_monologue": "Model unavailable",
		}
	} else {
		res = llmjson.Parse(raw, map[string]any{
			"final_action":       "opened",
			"internal_monologue": "Read but no action taken",
		})
	}

	// Only clicked/replied may override; anything else stays an open.
	action := domain.CoerceAction(strings.ToLower(llmjson.Str(res, "final_action", "")), domain.ActionOpened,
		domain.ActionClicked, domain.ActionReplied)
	monologue := llmjson.Str(res, "internal_monologue", scanReason)

	comment := monologue
	if action == domain.ActionReplied {
		comment = llmjson.Str(res, "reply_text", monologue)
	}
	return action, comment, monologue
}
