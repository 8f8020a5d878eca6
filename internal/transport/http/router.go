package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-market-triggers/internal/application/escrow"
	"github.com/go-market-triggers/internal/application/notification"
	"github.com/go-market-triggers/internal/application/translation"
	"github.com/go-market-triggers/internal/config"
	"github.com/go-market-triggers/internal/domain"
	"github.com/go-market-triggers/internal/transport/http/handler"
	appmiddleware "github.com/go-market-triggers/internal/transport/http/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	NotificationRepo NotificationRepository
	TransactionRepo  TransactionRepository
	Listings         ListingDocuments
	Index            IndexSyncer
	Translator       translation.Provider
	Secrets          config.SecretSource
	Verifier         appmiddleware.TokenVerifier
	Logger           *slog.Logger
}

// NewRouter builds and returns the application router. ctx bounds the
// background work of the rate limiters.
func NewRouter(ctx context.Context, cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.Verifier)

	// Callables proxy a metered provider: 2 requests/second, burst of 5 per caller.
	callableRL := appmiddleware.NewRateLimiter(ctx, rate.Limit(2), 5)

	notifSvc := notification.NewService(deps.NotificationRepo)
	escrowSvc := escrow.NewService(deps.TransactionRepo, deps.Logger)
	gateway := translation.NewGateway(deps.Translator, deps.Secrets, deps.Logger)

	healthH := handler.NewHealthHandler()
	callableH := handler.NewCallableHandler(gateway)
	notifH := handler.NewNotificationHandler(notifSvc)
	txH := handler.NewTransactionHandler(escrowSvc)
	adminH := handler.NewAdminHandler(deps.Listings, deps.Index, escrowSvc)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)

		// ── Callables: identity is checked by the gateway ────────────────────
		r.Group(func(r chi.Router) {
			r.Use(appmiddleware.Optional(deps.Verifier))
			r.Use(callableRL.Limit)

			r.Post("/callable/detectLanguage", callableH.DetectLanguage)
			r.Post("/callable/translateText", callableH.TranslateText)
		})

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/notifications", notifH.ListUnread)
			r.Put("/notifications/{id}", notifH.MarkAsRead)

			r.Get("/transactions", txH.List)
			r.Post("/transactions", txH.Create)
			r.Get("/transactions/{id}", txH.Get)
			r.Post("/transactions/{id}/hold", txH.Hold)
			r.Post("/transactions/{id}/advance", txH.Advance)
			r.Post("/transactions/{id}/dispute", txH.Dispute)
			r.Post("/transactions/{id}/verify-code", txH.VerifyCode)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Post("/admin/listings/{id}/reindex", adminH.ReindexListing)
				r.Post("/admin/transactions/{id}/settle", adminH.SettleTransaction)
			})
		})
	})

	return r
}
