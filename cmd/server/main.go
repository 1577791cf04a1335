package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/emberline/inboxsim/internal/api"
	"github.com/emberline/inboxsim/internal/config"
	"github.com/emberline/inboxsim/internal/llm"
	"github.com/emberline/inboxsim/internal/personas"
	"github.com/emberline/inboxsim/internal/pkg/logger"
	"github.com/emberline/inboxsim/internal/repository/memory"
	"github.com/emberline/inboxsim/internal/repository/postgres"
	"github.com/emberline/inboxsim/internal/service/history"
	"github.com/emberline/inboxsim/internal/similarity"
	"github.com/emberline/inboxsim/internal/simulation"
)

func main() {
	cfg, err := config.LoadFromEnv("config.yaml")
	if err != nil {
		logger.Error("config load failed", "error", err)
		os.Exit(1)
	}
	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	logger.SetRedactSecrets(cfg.Logging.RedactSecrets())

	provider, err := llm.New(llm.Options{
		Kind:        llm.Kind(cfg.LLM.Provider),
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		TimeoutSecs: cfg.LLM.TimeoutSeconds,
		MaxAttempts: cfg.LLM.MaxRetries,
		Region:      cfg.LLM.Region,
		StubSeed:    cfg.LLM.StubSeed,
	})
	if err != nil {
		logger.Error("provider setup failed", "error", err)
		os.Exit(1)
	}
	logger.Info("completion provider ready", "kind", cfg.LLM.Provider, "model", cfg.LLM.Model)

	// Embedding-based relevance with optional Redis cache; lexical fallback
	// when embeddings are off.
	var embedder similarity.Embedder
	var cache *similarity.Cache
	if cfg.Embeddings.Enabled {
		embedder = similarity.NewHTTPEmbedder(
			cfg.Embeddings.BaseURL, cfg.Embeddings.APIKey,
			cfg.Embeddings.Model, cfg.Embeddings.Timeout(),
		)
		if cfg.Redis.Enabled {
			rdb := redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			if err := rdb.Ping(context.Background()).Err(); err != nil {
				logger.Warn("redis unreachable, embedding cache disabled", "addr", cfg.Redis.Addr, "error", err)
			} else {
				cache = similarity.NewCache(rdb, cfg.Embeddings.Model, cfg.Redis.TTL())
				logger.Info("embedding cache ready", "addr", cfg.Redis.Addr)
			}
		}
	}
	scorer := similarity.New(embedder, cache)

	// Postgres is optional: without it personas are generated synthetically
	// and history lives in process memory.
	var personaRepo personas.Repository
	var historyRepo history.Repository = memory.NewHistoryRepo()
	var audiences api.AudienceSource = personas.Catalog{}
	if cfg.Database.Enabled {
		db, err := sql.Open("postgres", cfg.Database.URL)
		if err != nil {
			logger.Error("database open failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = db.PingContext(pingCtx)
		pingCancel()
		if err != nil {
			logger.Warn("database unreachable, using in-memory fallbacks", "error", err)
		} else {
			pg := postgres.NewPersonaRepo(db)
			personaRepo = pg
			audiences = pg
			historyRepo = postgres.NewSimulationRepo(db)
			logger.Info("database connected")
		}
	}

	engine := simulation.NewEngine(provider, scorer,
		personas.NewProvider(personaRepo, nil))
	handlers := api.NewHandlers(engine, history.NewService(historyRepo), audiences)
	server := api.NewServer(handlers, cfg.Server.AllowedOrigins)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)
		logger.Info("server listening", "addr", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	logger.Info("server stopped")
}
