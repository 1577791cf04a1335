package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/emberline/inboxsim/internal/domain"
)

// PersonaRepo serves stored personas and audience definitions.
type PersonaRepo struct{ db *sql.DB }

// NewPersonaRepo creates a Postgres-backed persona repository.
func NewPersonaRepo(db *sql.DB) *PersonaRepo { return &PersonaRepo{db: db} }

// Sample returns up to n personas belonging to the audience, in random
// order so repeated runs against the same audience mix membership.
func (r *PersonaRepo) Sample(ctx context.Context, audienceID string, n int) ([]domain.Persona, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, role, company, COALESCE(avatar,''),
		       COALESCE(psychographics,''), COALESCE(past_behavior,'')
		FROM personas
		WHERE audience_id = $1
		ORDER BY random()
		LIMIT $2
	`, audienceID, n)
	if err != nil {
		return nil, fmt.Errorf("sample personas: %w", err)
	}
	defer rows.Close()

	var out []domain.Persona
	for rows.Next() {
		var p domain.Persona
		if err := rows.Scan(&p.ID, &p.Name, &p.Role, &p.Company, &p.Avatar, &p.Psychographics, &p.PastBehavior); err != nil {
			return nil, fmt.Errorf("scan persona: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate personas: %w", err)
	}
	return out, nil
}

// Audiences lists the selectable audiences with their live persona counts.
func (r *PersonaRepo) Audiences(ctx context.Context) ([]domain.Audience, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id, a.name, a.type, COALESCE(a.description,''),
		       COUNT(p.id)
		FROM audiences a
		LEFT JOIN personas p ON p.audience_id = a.id
		GROUP BY a.id, a.name, a.type, a.description
		ORDER BY a.name
	`)
	if err != nil {
		return nil, fmt.Errorf("list audiences: %w", err)
	}
	defer rows.Close()

	out := []domain.Audience{}
	for rows.Next() {
		var a domain.Audience
		if err := rows.Scan(&a.ID, &a.Name, &a.Type, &a.Description, &a.Size); err != nil {
			return nil, fmt.Errorf("scan audience: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audiences: %w", err)
	}
	return out, nil
}

// UpsertAudience inserts or updates an audience definition. Used by seeding.
func (r *PersonaRepo) UpsertAudience(ctx context.Context, a domain.Audience) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audiences (id, name, type, description)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			description = EXCLUDED.description
	`, a.ID, a.Name, a.Type, a.Description)
	if err != nil {
		return fmt.Errorf("upsert audience: %w", err)
	}
	return nil
}

// InsertPersonas writes a batch of personas for an audience inside one
// transaction. Used by seeding.
func (r *PersonaRepo) InsertPersonas(ctx context.Context, audienceID string, personas []domain.Persona) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO personas
			(id, audience_id, name, role, company, avatar, psychographics, past_behavior)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("prepare personas: %w", err)
	}
	defer stmt.Close()

	for _, p := range personas {
		if _, err := stmt.ExecContext(ctx,
			p.ID, audienceID, p.Name, p.Role, p.Company, p.Avatar, p.Psychographics, p.PastBehavior,
		); err != nil {
			return fmt.Errorf("insert persona: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert: %w", err)
	}
	return nil
}
