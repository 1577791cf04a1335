package main

import (
	"context"
	"database/sql"
	"os"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/emberline/inboxsim/internal/config"
	"github.com/emberline/inboxsim/internal/personas"
	"github.com/emberline/inboxsim/internal/pkg/logger"
	"github.com/emberline/inboxsim/internal/repository/postgres"
)

// Creates the schema and populates the audience catalog with a synthetic
// persona corpus. Safe to re-run: existing rows are left alone.
func main() {
	cfg, err := config.LoadFromEnv("config.yaml")
	if err != nil {
		logger.Error("config load failed", "error", err)
		os.Exit(1)
	}
	if cfg.Database.URL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		logger.Error("database open failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		logger.Error("database unreachable", "error", err)
		os.Exit(1)
	}

	if err := postgres.EnsureSchema(ctx, db); err != nil {
		logger.Error("schema setup failed", "error", err)
		os.Exit(1)
	}
	logger.Info("schema ready")

	repo := postgres.NewPersonaRepo(db)
	audiences, _ := personas.Catalog{}.Audiences(ctx)
	for i, a := range audiences {
		if err := repo.UpsertAudience(ctx, a); err != nil {
			logger.Error("audience seed failed", "audience", a.ID, "error", err)
			os.Exit(1)
		}

		var existing int
		if err := db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM personas WHERE audience_id = $1`, a.ID,
		).Scan(&existing); err != nil {
			logger.Error("persona count failed", "audience", a.ID, "error", err)
			os.Exit(1)
		}
		if existing >= a.Size {
			logger.Info("audience already populated", "audience", a.ID, "personas", existing)
			continue
		}

		gen := personas.NewGenerator(int64(i + 1))
		batch := gen.Generate(a.Size - existing)
		if err := repo.InsertPersonas(ctx, a.ID, batch); err != nil {
			logger.Error("persona seed failed", "audience", a.ID, "error", err)
			os.Exit(1)
		}
		logger.Info("audience seeded", "audience", a.ID, "personas", len(batch))
	}

	logger.Info("seed complete")
}
