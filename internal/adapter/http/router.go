package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/vaultledger/internal/adapter/http/handler"
	"github.com/iho/vaultledger/internal/adapter/http/middleware"
	"github.com/iho/vaultledger/internal/domain"
	"github.com/iho/vaultledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	BankHandler   *handler.BankHandler
	QueryHandler  *handler.QueryHandler
	HealthHandler *handler.HealthHandler

	// Authenticator attaches a principal to mutating requests.
	Authenticator func(http.Handler) http.Handler

	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter
	Metrics          *middleware.HTTPMetrics
	MetricsHandler   http.Handler
	Logger           zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Wrap)
	}
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/accounts/{account}/balances", cfg.QueryHandler.ListBalances)
		r.Get("/accounts/{account}/balances/{asset}", cfg.QueryHandler.GetBalance)
		r.Get("/cap", cfg.QueryHandler.Cap)
		r.Get("/totals", cfg.QueryHandler.Totals)

		r.Group(func(r chi.Router) {
			if cfg.Authenticator != nil {
				r.Use(cfg.Authenticator)
			}
			// Runs after authentication so keys are scoped to the caller.
			if cfg.IdempotencyStore != nil {
				r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger).Wrap)
			}

			r.Post("/deposits/native", cfg.BankHandler.DepositNative)
			r.Post("/deposits/token", cfg.BankHandler.DepositToken)
			r.Post("/withdrawals", cfg.BankHandler.Withdraw)

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(domain.RoleOwner))
				r.Post("/sweep", cfg.BankHandler.Sweep)
				r.Put("/withdrawal-cap", cfg.BankHandler.SetWithdrawalCap)
			})

			r.With(middleware.RequireRole(domain.RoleOwner)).Get("/reconciliation", cfg.QueryHandler.Reconciliation)
		})
	})

	return r
}
