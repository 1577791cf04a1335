package history

import (
	"context"

	"github.com/emberline/inboxsim/internal/domain"
)

// Repository defines the data access contract for run history.
// Implementations must be safe for concurrent use.
type Repository interface {
	// Save persists a completed run with its originating draft, atomically:
	// a partially written run must never become visible to Get or List.
	Save(ctx context.Context, d domain.Draft, result *domain.SimulationResult) error

	// Get returns one run with its full response set.
	// Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (*Run, error)

	// List returns run summaries ordered by timestamp DESC.
	List(ctx context.Context) ([]Summary, error)

	// Clear removes all stored runs and their responses.
	Clear(ctx context.Context) error
}

// Summary is the listing projection of a stored run.
type Summary struct {
	ID        string         `json:"id"`
	Timestamp int64          `json:"timestamp"`
	Subject   string         `json:"subject"`
	Audience  string         `json:"audience"`
	Metrics   domain.Metrics `json:"metrics"`
}

// Run is a fully hydrated stored run: the draft as submitted plus the
// complete result.
type Run struct {
	ID        string            `json:"id"`
	Timestamp int64             `json:"timestamp"`
	Subject   string            `json:"subject"`
	Body      string            `json:"body"`
	CTA       string            `json:"cta"`
	Audience  string            `json:"audience"`
	Metrics   domain.Metrics    `json:"metrics"`
	Insights  []domain.Insight  `json:"insights"`
	Responses []domain.Response `json:"responses"`
}
