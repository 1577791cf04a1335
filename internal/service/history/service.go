package history

import (
	"context"
	"fmt"

	"github.com/emberline/inboxsim/internal/domain"
	"github.com/emberline/inboxsim/internal/pkg/logger"
)

// Service implements run-history business logic over a Repository.
type Service struct {
	repo Repository
}

// NewService creates a history service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Save persists a completed run. Failures here are the only persistence
// errors that surface to the transport layer.
func (s *Service) Save(ctx context.Context, d domain.Draft, result *domain.SimulationResult) error {
	if result == nil {
		return fmt.Errorf("nil result")
	}
	if err := s.repo.Save(ctx, d, result); err != nil {
		return fmt.Errorf("save run %s: %w", result.ID, err)
	}
	logger.Info("simulation persisted", "id", result.ID, "responses", len(result.Responses))
	return nil
}

// Get returns one stored run.
func (s *Service) Get(ctx context.Context, id string) (*Run, error) {
	return s.repo.Get(ctx, id)
}

// List returns stored run summaries, newest first.
func (s *Service) List(ctx context.Context) ([]Summary, error) {
	return s.repo.List(ctx)
}

// Clear removes all stored runs.
func (s *Service) Clear(ctx context.Context) error {
	return s.repo.Clear(ctx)
}
