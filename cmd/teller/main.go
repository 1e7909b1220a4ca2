// Package main is the entrypoint for teller, a terminal client for the
// banking API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tellerapp/teller/internal/apiclient"
	"github.com/tellerapp/teller/internal/app"
	"github.com/tellerapp/teller/internal/cache"
	"github.com/tellerapp/teller/internal/config"
	"github.com/tellerapp/teller/internal/console"
	"github.com/tellerapp/teller/internal/metrics"
	"github.com/tellerapp/teller/internal/view"
)

const sessionIOTimeout = 2 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "teller:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// The screen owns stdout; logs go to stderr.
	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	recorder := metrics.NewInMemory()

	client, err := apiclient.New(apiclient.Options{
		BaseURL:               cfg.APIURL,
		DialTimeout:           cfg.DialTimeout,
		ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
		RequestTimeout:        cfg.RequestTimeout,
		Logger:                logger,
		Metrics:               recorder,
	})
	if err != nil {
		return err
	}

	var afterCommand func(context.Context)
	if cfg.SessionPersistence() {
		store, err := cache.New(ctx, cfg.RedisURL, cache.WithSessionTTL(cfg.SessionTTL))
		if err != nil {
			// Persistence is optional; run with an in-memory session.
			logger.Warn("session persistence disabled",
				slog.String("error", config.SanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", config.RedactURL(cfg.RedisURL)),
			)
		} else {
			defer store.Close()
			afterCommand = restoreSession(ctx, store, client, cfg.SessionKey, logger)
		}
	}

	dashboard := app.New(client, app.Config{
		Logger:  logger,
		Metrics: recorder,
		TxLimit: cfg.TxLimit,
	})
	renderer := view.NewTextRenderer(os.Stdout, cfg.ClearScreen)
	dashboard.Subscribe(renderer)

	c := console.New(dashboard, os.Stdout, console.Config{
		Logger:       logger,
		Stats:        recorder,
		AfterCommand: afterCommand,
	})

	if err := c.Run(ctx, os.Stdin); err != nil && ctx.Err() == nil {
		return err
	}
	if err := renderer.Err(); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

// restoreSession seeds client with the stored session cookie and returns a
// hook that writes the jar back after every command.
func restoreSession(ctx context.Context, store *cache.Cache, client *apiclient.Client, profile string, logger *slog.Logger) func(context.Context) {
	base := client.BaseURL().String()

	loadCtx, cancel := context.WithTimeout(ctx, sessionIOTimeout)
	cookies, err := store.LoadSession(loadCtx, base, profile)
	cancel()
	if err != nil {
		logger.Warn("failed to load saved session", slog.String("error", err.Error()))
	} else if len(cookies) > 0 {
		client.SetCookies(cookies)
		logger.Debug("restored saved session", slog.String("profile", profile))
	}

	return func(ctx context.Context) {
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sessionIOTimeout)
		defer cancel()
		if err := store.SaveSession(saveCtx, base, profile, client.Cookies()); err != nil {
			logger.Warn("failed to save session", slog.String("error", err.Error()))
		}
	}
}
