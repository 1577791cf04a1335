// Package simulation is the orchestration core: it drives the per-persona
// decision pipeline across a sampled audience, aggregates the reactions
// into campaign metrics, and produces qualitative insights.
package simulation

import (
	"context"
	"fmt"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/emberline/inboxsim/internal/domain"
	"github.com/emberline/inboxsim/internal/llm"
	"github.com/emberline/inboxsim/internal/pkg/logger"
	"github.com/emberline/inboxsim/internal/similarity"
)

// EventType discriminates stream events.
type EventType string

const (
	EventProgress EventType = "progress"
	EventResult   EventType = "result"
)

// Event is one item of a run's output sequence: a progress tick per
// persona, then exactly one terminal result.
type Event struct {
	Type    EventType                `json:"type"`
	Current int                      `json:"current,omitempty"`
	Total   int                      `json:"total,omitempty"`
	Result  *domain.SimulationResult `json:"data,omitempty"`
}

// PersonaSource supplies sampled personas for an audience. Implementations
// must not fail: when records are missing they degrade to synthetic
// generation. May return fewer than n.
type PersonaSource interface {
	Fetch(ctx context.Context, audienceID string, n int) []domain.Persona
}

// Engine orchestrates simulation runs. Safe for concurrent use: each run
// owns its counters and response collection exclusively.
type Engine struct {
	pipeline *Pipeline
	provider llm.Provider
	personas PersonaSource

	now func() time.Time
}

// NewEngine wires an engine from its collaborators.
func NewEngine(provider llm.Provider, scorer similarity.Scorer, personas PersonaSource) *Engine {
	return &Engine{
		pipeline: NewPipeline(provider, scorer),
		provider: provider,
		personas: personas,
		now:      time.Now,
	}
}

// Run simulates the draft against a sampled audience and returns the event
// stream. The channel is unbuffered: the caller pulls one event at a time
// and controls backpressure. Cancelling ctx stops the run; the worker
// goroutine never outlives an abandoned consumer.
func (e *Engine) Run(ctx context.Context, d domain.Draft) <-chan Event {
	out := make(chan Event)
	go func() {
		defer close(out)
		e.run(ctx, d, out)
	}()
	return out
}

func (e *Engine) run(ctx context.Context, d domain.Draft, out chan<- Event) {
	start := e.now()
	logger.Info("starting simulation", "audience", d.Audience, "sample_size", d.SampleSize)

	personas := e.personas.Fetch(ctx, d.Audience, d.SampleSize)
	total := len(personas)
	logger.Info("simulating personas", "count", total)

	var counts domain.Counts
	responses := make([]domain.Response, 0, total)

	for i, p := range personas {
		if ctx.Err() != nil {
			logger.Info("simulation cancelled", "completed", i, "total", total)
			return
		}

		resp := e.simulateOne(ctx, d, p)
		responses = append(responses, resp)
		counts.Tally(resp.Action)
		if resp.Action == domain.ActionClicked && forwards(p.ID) {
			counts.Forward++
		}

		if !emit(ctx, out, Event{Type: EventProgress, Current: i + 1, Total: total}) {
			return
		}
	}

	metrics := domain.ComputeMetrics(counts, total)
	logger.Info("simulation metrics computed",
		"open", metrics.OpenRate, "click", metrics.ClickRate,
		"spam", metrics.SpamRate, "ignore", metrics.IgnoreRate)

	insights := e.generateInsights(ctx, d, metrics, responses)

	result := &domain.SimulationResult{
		ID:        strconv.FormatInt(start.Unix(), 10),
		Timestamp: start.UnixMilli(),
		Metrics:   metrics,
		Insights:  insights,
		Responses: responses,
	}

	if emit(ctx, out, Event{Type: EventResult, Result: result}) {
		logger.Info("simulation completed", "id", result.ID, "responses", len(responses))
	}
}

// simulateOne runs the pipeline for a single persona. A panic anywhere in
// the pipeline converts into a deterministic ignored/neutral response; one
// persona must never take down a run.
func (e *Engine) simulateOne(ctx context.Context, d domain.Draft, p domain.Persona) (resp domain.Response) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("persona simulation panicked", "persona", p.Name, "panic", fmt.Sprint(r))
			resp = domain.Response{
				Persona:           p,
				Action:            domain.ActionIgnored,
				Sentiment:         domain.SentimentNeutral,
				Comment:           "Simulation error occurred",
				DetailedReasoning: fmt.Sprintf("Error: %v", r),
			}
		}
	}()
	return e.pipeline.Run(ctx, d, p)
}

// forwards decides whether a clicked response also counts as a forward: a
// deterministic hash-based one-in-five subset of clickers, so forwardRate
// never exceeds clickRate and identical persona sets reproduce identical
// rates.
func forwards(personaID string) bool {
	h := fnv.New32a()
	h.Write([]byte(personaID))
	return h.Sum32()%5 == 0
}

// emit delivers one event, abandoning the run if the consumer is gone.
func emit(ctx context.Context, out chan<- Event, ev Event) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
