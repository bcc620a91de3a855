package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	mw "github.com/ruralpay/ledger/internal/middleware"
	"github.com/ruralpay/ledger/internal/services"
)

type RouterConfig struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// NewRouter mounts every ledger endpoint under /api/v1.
func NewRouter(ledger *services.LedgerService, auth *services.AuthService, cfg RouterConfig, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"https://*", "http://*"}
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 60 * time.Second
	}

	authHandler := NewAuthHandler(auth, logger)
	clientHandler := NewClientHandler(ledger, logger)
	adminHandler := NewAdminHandler(ledger, auth, logger)

	r := chi.NewRouter()

	r.Use(mw.SecurityHeaders)
	r.Use(chimw.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(chimw.Timeout(cfg.RequestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints (no auth required)
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)

		// Protected endpoints (auth required)
		r.Group(func(r chi.Router) {
			r.Use(mw.AuthMiddleware(auth))

			r.Get("/auth/me", authHandler.Me)
			r.Delete("/auth/me", authHandler.DeleteMe)

			r.Get("/clients/me", clientHandler.Me)
			r.Get("/clients/me/transactions", clientHandler.MyTransactions)
			r.Get("/clients/{id}/transfers", clientHandler.Transfers)

			r.Post("/transactions", clientHandler.CreateTransaction)
			r.Post("/transfers", clientHandler.CreateTransfer)

			r.Route("/admin", func(r chi.Router) {
				r.Get("/clients", adminHandler.ListClients)
				r.Post("/clients", adminHandler.CreateClient)
				r.Get("/clients/{id}", adminHandler.GetClient)
				r.Delete("/clients/{id}", adminHandler.DeleteClient)
				r.Post("/clients/{id}/transactions", adminHandler.CreateClientTransaction)
				r.Get("/transactions", adminHandler.ListTransactions)
				r.Get("/users", adminHandler.ListUsers)
				r.Delete("/users/{username}", adminHandler.DeleteUser)
			})
		})
	})

	return r
}
