package simulation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberline/inboxsim/internal/domain"
	"github.com/emberline/inboxsim/internal/llm"
	"github.com/emberline/inboxsim/internal/similarity"
)

// staticSource serves a fixed persona slice regardless of audience.
type staticSource []domain.Persona

func (s staticSource) Fetch(_ context.Context, _ string, n int) []domain.Persona {
	if n > len(s) {
		n = len(s)
	}
	return s[:n]
}

func makePersonas(n int) staticSource {
	out := make(staticSource, n)
	for i := range out {
		out[i] = domain.Persona{
			ID:      fmt.Sprintf("persona-%d", i),
			Name:    fmt.Sprintf("Persona %d", i),
			Role:    "CTO",
			Company: "Nimbus Labs",
		}
	}
	return out
}

// drain consumes the full event stream, returning progress events and the
// terminal result (nil when the run ended without one).
func drain(t *testing.T, events <-chan Event) ([]Event, *domain.SimulationResult) {
	t.Helper()
	var progress []Event
	var result *domain.SimulationResult
	for ev := range events {
		switch ev.Type {
		case EventProgress:
			progress = append(progress, ev)
		case EventResult:
			require.Nil(t, result, "stream must contain exactly one result")
			result = ev.Result
		}
	}
	return progress, result
}

func newTestEngine(p llm.Provider, src PersonaSource) *Engine {
	e := NewEngine(p, similarity.New(nil, nil), src)
	e.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return e
}

func TestEngineAllOpenedAllClicked(t *testing.T) {
	p := &scriptProvider{
		scan:    `{"action": "opened", "reason": "Relevant"}`,
		act:     `{"final_action": "clicked", "internal_monologue": "Good offer."}`,
		insight: `{"insights": [{"type": "positive", "title": "Strong", "description": "d"}]}`,
	}
	e := newTestEngine(p, makePersonas(10))

	progress, result := drain(t, e.Run(context.Background(), testDraft))
	require.NotNil(t, result)

	assert.Equal(t, 100, result.Metrics.ClickRate)
	assert.Equal(t, 100, result.Metrics.OpenRate)
	assert.Equal(t, 100, result.Metrics.ReadRate)
	assert.Equal(t, 0, result.Metrics.IgnoreRate)
	assert.Equal(t, 0, result.Metrics.SpamRate)
	assert.LessOrEqual(t, result.Metrics.ForwardRate, result.Metrics.ClickRate)
	assert.Len(t, result.Responses, 10)

	// One progress event per persona, in order.
	require.Len(t, progress, 10)
	for i, ev := range progress {
		assert.Equal(t, i+1, ev.Current)
		assert.Equal(t, 10, ev.Total)
	}
}

func TestEngineResultIdentity(t *testing.T) {
	p := &scriptProvider{
		scan:    `{"action": "ignored", "reason": "r"}`,
		insight: `{}`,
	}
	e := newTestEngine(p, makePersonas(2))

	_, result := drain(t, e.Run(context.Background(), testDraft))
	require.NotNil(t, result)
	assert.Equal(t, "1700000000", result.ID)
	assert.Equal(t, int64(1700000000000), result.Timestamp)
}

func TestEngineEmptyPersonaSet(t *testing.T) {
	p := &scriptProvider{}
	e := newTestEngine(p, makePersonas(0))

	progress, result := drain(t, e.Run(context.Background(), testDraft))
	require.NotNil(t, result, "an empty run still produces a result")

	assert.Empty(t, progress)
	assert.Equal(t, domain.Metrics{}, result.Metrics)
	assert.Empty(t, result.Responses)
	assert.Equal(t, 0, p.insightCalls, "empty runs use heuristic insights only")
	// openRate 0 trips the low-open-rate heuristic.
	require.NotEmpty(t, result.Insights)
	assert.Equal(t, domain.InsightNegative, result.Insights[0].Type)
}

func TestEngineTotalProviderOutage(t *testing.T) {
	p := &scriptProvider{
		scanErr:    fmt.Errorf("%w: request timed out", llm.ErrTimeout),
		insightErr: fmt.Errorf("%w: request timed out", llm.ErrTimeout),
	}
	e := newTestEngine(p, makePersonas(5))

	_, result := drain(t, e.Run(context.Background(), testDraft))
	require.NotNil(t, result, "provider outage must not fail the run")

	require.Len(t, result.Responses, 5)
	for _, r := range result.Responses {
		assert.Equal(t, domain.ActionIgnored, r.Action)
		assert.Equal(t, domain.SentimentNeutral, r.Sentiment)
	}
	assert.Equal(t, 100, result.Metrics.IgnoreRate)
	assert.NotEmpty(t, result.Insights, "heuristics still produce insights")
}

func TestEngineStubIdempotence(t *testing.T) {
	src := makePersonas(10)
	run := func() domain.Metrics {
		e := newTestEngine(llm.NewStub(7), src)
		_, result := drain(t, e.Run(context.Background(), testDraft))
		require.NotNil(t, result)
		return result.Metrics
	}

	assert.Equal(t, run(), run(), "same stub seed and personas must reproduce metrics")
}

func TestEngineForwardsDeterministic(t *testing.T) {
	for _, id := range []string{"persona-0", "persona-1", "abc", ""} {
		assert.Equal(t, forwards(id), forwards(id))
	}
}

func TestEngineCancelledRunStops(t *testing.T) {
	p := &scriptProvider{
		scan: `{"action": "ignored", "reason": "r"}`,
	}
	e := newTestEngine(p, makePersonas(50))

	ctx, cancel := context.WithCancel(context.Background())
	events := e.Run(ctx, testDraft)

	// Take one event, then walk away.
	<-events
	cancel()

	var sawResult bool
	for ev := range events {
		if ev.Type == EventResult {
			sawResult = true
		}
	}
	assert.False(t, sawResult, "a cancelled run must not emit a result")
}

func TestEnginePanickingPipelineIsContained(t *testing.T) {
	var calls int
	p := llm.ProviderFunc(func(ctx context.Context, prompt string) (string, error) {
		calls++
		if calls == 1 {
			panic("model client bug")
		}
		return `{"action": "ignored", "reason": "r"}`, nil
	})
	e := newTestEngine(p, makePersonas(2))

	_, result := drain(t, e.Run(context.Background(), testDraft))
	require.NotNil(t, result)
	require.Len(t, result.Responses, 2)

	assert.Equal(t, domain.ActionIgnored, result.Responses[0].Action)
	assert.Equal(t, "Simulation error occurred", result.Responses[0].Comment)
	assert.Contains(t, result.Responses[0].DetailedReasoning, "model client bug")
}
