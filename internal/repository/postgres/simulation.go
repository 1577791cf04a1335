package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/emberline/inboxsim/internal/domain"
	"github.com/emberline/inboxsim/internal/service/history"
)

// SimulationRepo implements history.Repository against PostgreSQL.
type SimulationRepo struct{ db *sql.DB }

// NewSimulationRepo creates a Postgres-backed simulation history repository.
func NewSimulationRepo(db *sql.DB) *SimulationRepo { return &SimulationRepo{db: db} }

// Save writes the run and its responses in one transaction. A failed run
// leaves no rows behind.
func (r *SimulationRepo) Save(ctx context.Context, d domain.Draft, result *domain.SimulationResult) error {
	metrics, err := json.Marshal(result.Metrics)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}
	insights, err := json.Marshal(result.Insights)
	if err != nil {
		return fmt.Errorf("marshal insights: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO simulations
			(id, run_at, subject, body, cta, audience, metrics, insights)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, result.ID, result.Timestamp, d.Subject, d.Body, d.CTA, d.Audience, metrics, insights)
	if err != nil {
		return fmt.Errorf("insert simulation: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO simulation_responses
			(simulation_id, persona_id, persona, action, sentiment, comment, reasoning)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`)
	if err != nil {
		return fmt.Errorf("prepare responses: %w", err)
	}
	defer stmt.Close()

	for _, resp := range result.Responses {
		persona, err := json.Marshal(resp.Persona)
		if err != nil {
			return fmt.Errorf("marshal persona %s: %w", resp.Persona.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			result.ID, resp.Persona.ID, persona,
			resp.Action, resp.Sentiment, resp.Comment, resp.DetailedReasoning,
		); err != nil {
			return fmt.Errorf("insert response: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

func (r *SimulationRepo) Get(ctx context.Context, id string) (*history.Run, error) {
	run := &history.Run{}
	var metrics, insights []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT id, run_at, subject, COALESCE(body,''), COALESCE(cta,''),
		       COALESCE(audience,''), metrics, insights
		FROM simulations
		WHERE id = $1
	`, id).Scan(
		&run.ID, &run.Timestamp, &run.Subject, &run.Body, &run.CTA,
		&run.Audience, &metrics, &insights,
	)
	if err == sql.ErrNoRows {
		return nil, history.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get simulation: %w", err)
	}
	if err := json.Unmarshal(metrics, &run.Metrics); err != nil {
		return nil, fmt.Errorf("decode metrics: %w", err)
	}
	if err := json.Unmarshal(insights, &run.Insights); err != nil {
		return nil, fmt.Errorf("decode insights: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT persona, action, sentiment, COALESCE(comment,''), COALESCE(reasoning,'')
		FROM simulation_responses
		WHERE simulation_id = $1
		ORDER BY id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("load responses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var resp domain.Response
		var persona []byte
		if err := rows.Scan(&persona, &resp.Action, &resp.Sentiment, &resp.Comment, &resp.DetailedReasoning); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		if err := json.Unmarshal(persona, &resp.Persona); err != nil {
			return nil, fmt.Errorf("decode persona: %w", err)
		}
		run.Responses = append(run.Responses, resp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate responses: %w", err)
	}
	return run, nil
}

func (r *SimulationRepo) List(ctx context.Context) ([]history.Summary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, run_at, subject, COALESCE(audience,''), metrics
		FROM simulations
		ORDER BY run_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list simulations: %w", err)
	}
	defer rows.Close()

	out := []history.Summary{}
	for rows.Next() {
		var s history.Summary
		var metrics []byte
		if err := rows.Scan(&s.ID, &s.Timestamp, &s.Subject, &s.Audience, &metrics); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		if err := json.Unmarshal(metrics, &s.Metrics); err != nil {
			return nil, fmt.Errorf("decode metrics: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summaries: %w", err)
	}
	return out, nil
}

func (r *SimulationRepo) Clear(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin clear: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM simulation_responses`); err != nil {
		return fmt.Errorf("clear responses: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM simulations`); err != nil {
		return fmt.Errorf("clear simulations: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit clear: %w", err)
	}
	return nil
}
