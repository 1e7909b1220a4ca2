// Package main is the entrypoint for bankd, the development banking backend
// the teller client talks to.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/tellerapp/teller/internal/auth"
	"github.com/tellerapp/teller/internal/config"
	"github.com/tellerapp/teller/internal/handler"
	"github.com/tellerapp/teller/internal/ledger"
	"github.com/tellerapp/teller/internal/repository"
	"github.com/tellerapp/teller/internal/server"
)

func main() {
	cfg, err := config.LoadServer()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := cfg.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		accounts handler.Ledger = ledger.New()
		checks                  = map[string]handler.HealthChecker{}
		repo     *repository.Repository
	)
	if cfg.UsesDatabase() {
		repo, err = repository.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database",
				slog.String("error", config.SanitizeError(err, cfg.DatabaseURL)),
				slog.String("database_url", config.RedactURL(cfg.DatabaseURL)),
			)
			os.Exit(1)
		}
		if err := repo.EnsureSchema(ctx); err != nil {
			logger.Error("failed to prepare database", slog.String("error", config.SanitizeError(err, cfg.DatabaseURL)))
			repo.Close()
			os.Exit(1)
		}
		accounts = repo
		checks["postgres"] = repo
		logger.Info("connected to database")
	}

	router := server.NewRouter(server.RouterConfig{
		Ledger:        accounts,
		Sessions:      auth.NewSessions([]byte(cfg.SessionSecret), cfg.IsProduction()),
		Checks:        checks,
		MaxBodySize:   cfg.MaxRequestBodySize,
		IsDevelopment: cfg.IsDevelopment(),
		Logger:        logger,
	})

	srv := server.New(router, server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)
	if repo != nil {
		srv.OnShutdown("postgres", func(context.Context) error {
			repo.Close()
			return nil
		})
	}

	logger.Info("starting bankd",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"store", storeName(cfg),
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func storeName(cfg *config.ServerConfig) string {
	if cfg.UsesDatabase() {
		return "postgres"
	}
	return "memory"
}
