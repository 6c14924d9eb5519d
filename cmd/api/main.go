package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/docvision/internal/api"
	"github.com/nikhilbhutani/docvision/internal/config"
	"github.com/nikhilbhutani/docvision/internal/database"
	"github.com/nikhilbhutani/docvision/internal/llm"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Database connection (optional, enables the audit log)
	var db *pgxpool.Pool
	if cfg.Database.URL != "" {
		pool, err := database.NewPool(ctx, cfg.Database)
		if err != nil {
			slog.Warn("database unavailable, running without audit log", "error", err)
		} else if err := database.RunMigrations(ctx, pool); err != nil {
			slog.Warn("migrations failed, running without audit log", "error", err)
			pool.Close()
		} else {
			db = pool
			defer db.Close()
		}
	}

	// Redis connection (optional, enables the result cache)
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			slog.Warn("redis unavailable, running without cache", "error", err)
			client.Close()
		} else {
			rdb = client
			defer rdb.Close()
		}
	}

	var extraModels []llm.Model
	if cfg.LLM.ModelsFile != "" {
		extraModels, err = llm.LoadModelsFile(cfg.LLM.ModelsFile)
		if err != nil {
			slog.Error("failed to load models file", "path", cfg.LLM.ModelsFile, "error", err)
			os.Exit(1)
		}
	}
	gw := llm.NewGateway(cfg.LLM, extraModels...)

	router := api.NewRouter(db, rdb, cfg, gw)
	handler := router.Setup()

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("starting server",
			"addr", cfg.Addr(),
			"audit", db != nil,
			"cache", rdb != nil && cfg.Cache.TTL > 0,
			"models", len(gw.Catalog().Models()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced shutdown", "error", err)
	}
	slog.Info("server stopped")
}
