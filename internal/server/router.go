package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tellerapp/teller/internal/auth"
	"github.com/tellerapp/teller/internal/handler"
	"github.com/tellerapp/teller/internal/middleware"
)

// RouterConfig holds what NewRouter wires together.
type RouterConfig struct {
	Ledger        handler.Ledger
	Sessions      *auth.Sessions
	Checks        map[string]handler.HealthChecker
	MaxBodySize   int64
	IsDevelopment bool
	Logger        *slog.Logger
}

// NewRouter builds the bankd route tree.
func NewRouter(cfg RouterConfig) http.Handler {
	bank := handler.NewBankHandler(cfg.Ledger, cfg.Sessions, cfg.Logger)
	health := handler.NewHealthHandler(cfg.Checks)

	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger, cfg.IsDevelopment))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment}))
	r.Use(middleware.MaxBodySize(cfg.MaxBodySize))

	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", health.Healthz)

		r.Post("/register", bank.Register)
		r.Post("/login", bank.Login)
		r.Post("/logout", bank.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession(cfg.Sessions, cfg.Logger))

			r.Get("/me", bank.Me)
			r.Get("/transactions", bank.Transactions)
			r.Post("/deposit", bank.Deposit)
			r.Post("/withdraw", bank.Withdraw)
			r.Post("/transfer", bank.Transfer)
		})
	})

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	return r
}
