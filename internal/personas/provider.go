// Package personas supplies recipient personas for simulation runs:
// stored corpus records when the database has them, synthetic generation
// when it doesn't. Fetch never fails; persona supply problems degrade,
// they don't abort runs.
package personas

import (
	"context"

	"github.com/emberline/inboxsim/internal/domain"
	"github.com/emberline/inboxsim/internal/pkg/logger"
)

// Repository is the storage contract the provider samples from.
type Repository interface {
	// Sample returns up to n personas for the audience, in stable order.
	Sample(ctx context.Context, audienceID string, n int) ([]domain.Persona, error)
}

// Provider resolves persona samples, falling back to synthetic generation
// when the repository is absent, failing, or empty for the audience.
type Provider struct {
	repo Repository
	gen  *Generator
}

// NewProvider creates a provider. repo may be nil (pure synthetic mode).
func NewProvider(repo Repository, gen *Generator) *Provider {
	if gen == nil {
		gen = NewGenerator(1)
	}
	return &Provider{repo: repo, gen: gen}
}

// Fetch implements simulation.PersonaSource.
func (p *Provider) Fetch(ctx context.Context, audienceID string, n int) []domain.Persona {
	if n <= 0 {
		return nil
	}
	if p.repo == nil {
		logger.Info("no persona store configured, generating synthetic personas", "count", n)
		return p.gen.Generate(n)
	}

	stored, err := p.repo.Sample(ctx, audienceID, n)
	if err != nil {
		logger.Warn("persona store unavailable, generating synthetic personas",
			"audience", audienceID, "error", err)
		return p.gen.Generate(n)
	}
	if len(stored) == 0 {
		logger.Info("no stored personas for audience, generating synthetic personas",
			"audience", audienceID, "count", n)
		return p.gen.Generate(n)
	}

	logger.Info("loaded personas from store",
		"audience", audienceID, "loaded", len(stored), "requested", n)
	return stored
}
