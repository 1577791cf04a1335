// Package memory provides in-process storage used when no database is
// configured. Contents do not survive a restart.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/emberline/inboxsim/internal/domain"
	"github.com/emberline/inboxsim/internal/service/history"
)

// HistoryRepo implements history.Repository with a mutex-guarded map.
type HistoryRepo struct {
	mu   sync.RWMutex
	runs map[string]history.Run
}

// NewHistoryRepo creates an empty in-memory history store.
func NewHistoryRepo() *HistoryRepo {
	return &HistoryRepo{runs: make(map[string]history.Run)}
}

func (r *HistoryRepo) Save(ctx context.Context, d domain.Draft, result *domain.SimulationResult) error {
	run := history.Run{
		ID:        result.ID,
		Timestamp: result.Timestamp,
		Subject:   d.Subject,
		Body:      d.Body,
		CTA:       d.CTA,
		Audience:  d.Audience,
		Metrics:   result.Metrics,
		Insights:  append([]domain.Insight(nil), result.Insights...),
		Responses: append([]domain.Response(nil), result.Responses...),
	}
	r.mu.Lock()
	r.runs[run.ID] = run
	r.mu.Unlock()
	return nil
}

func (r *HistoryRepo) Get(ctx context.Context, id string) (*history.Run, error) {
	r.mu.RLock()
	run, ok := r.runs[id]
	r.mu.RUnlock()
	if !ok {
		return nil, history.ErrNotFound
	}
	return &run, nil
}

func (r *HistoryRepo) List(ctx context.Context) ([]history.Summary, error) {
	r.mu.RLock()
	out := make([]history.Summary, 0, len(r.runs))
	for _, run := range r.runs {
		out = append(out, history.Summary{
			ID:        run.ID,
			Timestamp: run.Timestamp,
			Subject:   run.Subject,
			Audience:  run.Audience,
			Metrics:   run.Metrics,
		})
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out, nil
}

func (r *HistoryRepo) Clear(ctx context.Context) error {
	r.mu.Lock()
	r.runs = make(map[string]history.Run)
	r.mu.Unlock()
	return nil
}
