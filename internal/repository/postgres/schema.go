package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS audiences (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		type        TEXT NOT NULL DEFAULT 'B2B',
		description TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS personas (
		id             TEXT PRIMARY KEY,
		audience_id    TEXT NOT NULL REFERENCES audiences(id),
		name           TEXT NOT NULL,
		role           TEXT NOT NULL,
		company        TEXT NOT NULL,
		avatar         TEXT,
		psychographics TEXT,
		past_behavior  TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_personas_audience ON personas(audience_id)`,
	`CREATE TABLE IF NOT EXISTS simulations (
		id       TEXT PRIMARY KEY,
		run_at   BIGINT NOT NULL,
		subject  TEXT NOT NULL,
		body     TEXT,
		cta      TEXT,
		audience TEXT,
		metrics  JSONB NOT NULL,
		insights JSONB NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_simulations_run_at ON simulations(run_at DESC)`,
	`CREATE TABLE IF NOT EXISTS simulation_responses (
		id            BIGSERIAL PRIMARY KEY,
		simulation_id TEXT NOT NULL REFERENCES simulations(id) ON DELETE CASCADE,
		persona_id    TEXT NOT NULL,
		persona       JSONB NOT NULL,
		action        TEXT NOT NULL,
		sentiment     TEXT NOT NULL,
		comment       TEXT,
		reasoning     TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_responses_simulation ON simulation_responses(simulation_id)`,
}

// EnsureSchema creates the tables the repositories expect. Statements are
// idempotent so this is safe to run on every startup.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
