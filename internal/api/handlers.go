package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/emberline/inboxsim/internal/domain"
	"github.com/emberline/inboxsim/internal/pkg/httputil"
	"github.com/emberline/inboxsim/internal/pkg/logger"
	"github.com/emberline/inboxsim/internal/service/history"
	"github.com/emberline/inboxsim/internal/simulation"
	"github.com/emberline/inboxsim/internal/validate"
)

// AudienceSource lists the audiences a draft can target.
type AudienceSource interface {
	Audiences(ctx context.Context) ([]domain.Audience, error)
}

// Handlers holds the HTTP handlers and their collaborators.
type Handlers struct {
	engine    *simulation.Engine
	history   *history.Service
	audiences AudienceSource
	started   time.Time
}

// NewHandlers creates the handler set.
func NewHandlers(engine *simulation.Engine, hist *history.Service, audiences AudienceSource) *Handlers {
	return &Handlers{
		engine:    engine,
		history:   hist,
		audiences: audiences,
		started:   time.Now(),
	}
}

// HealthCheck reports service liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]any{
		"status":    "ok",
		"timestamp": time.Now(),
		"uptime":    time.Since(h.started).Round(time.Second).String(),
	})
}

// Simulate validates the draft and streams the run as newline-delimited
// JSON: one progress line per persona, then one result line. The result is
// persisted after it has been streamed; a persistence failure appends an
// error line but the client already has the result.
func (h *Handlers) Simulate(w http.ResponseWriter, r *http.Request) {
	var draft domain.Draft
	if !httputil.Decode(w, r, &draft) {
		return
	}
	draft, err := validateDraft(draft)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	stream := httputil.NewLineStream(w)
	var result *domain.SimulationResult
	for ev := range h.engine.Run(ctx, draft) {
		if ev.Type == simulation.EventResult {
			result = ev.Result
		}
		if err := stream.Send(ev); err != nil {
			logger.Info("simulation client disconnected", "audience", draft.Audience)
			cancel()
			return
		}
	}

	if result == nil {
		// Run ended without a result: cancelled or aborted. Nothing is
		// persisted in that case.
		_ = stream.Send(map[string]string{"type": "error", "message": "simulation aborted"})
		return
	}

	if err := h.history.Save(ctx, draft, result); err != nil {
		logger.Error("simulation save failed", "id", result.ID, "error", err)
		_ = stream.Send(map[string]string{"type": "error", "message": "failed to save simulation"})
	}
}

// GetAudiences lists the selectable audiences.
func (h *Handlers) GetAudiences(w http.ResponseWriter, r *http.Request) {
	audiences, err := h.audiences.Audiences(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, audiences)
}

// GetHistory lists stored run summaries, newest first.
func (h *Handlers) GetHistory(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.history.List(r.Context())
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, summaries)
}

// GetSimulation returns one stored run with its full response set.
func (h *Handlers) GetSimulation(w http.ResponseWriter, r *http.Request) {
	run, err := h.history.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, history.ErrNotFound) {
		httputil.NotFound(w, "simulation not found")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, run)
}

// ClearHistory removes all stored runs.
func (h *Handlers) ClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.history.Clear(r.Context()); err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]string{"status": "cleared"})
}

// validateDraft runs every field through the sanitizers and returns the
// cleaned draft. The first violation wins.
func validateDraft(d domain.Draft) (domain.Draft, error) {
	var err error
	if d.Subject, err = validate.Subject(d.Subject); err != nil {
		return d, err
	}
	if d.Body, err = validate.Body(d.Body); err != nil {
		return d, err
	}
	if d.CTA, err = validate.CTA(d.CTA); err != nil {
		return d, err
	}
	if d.Audience, err = validate.Audience(d.Audience); err != nil {
		return d, err
	}
	if d.SampleSize, err = validate.SampleSize(d.SampleSize); err != nil {
		return d, err
	}
	return d, nil
}
