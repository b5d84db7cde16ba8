package api

import (
	"net/http"
	"time"

	"trading-journal-go/internal/auth"
	"trading-journal-go/internal/journal"
	"trading-journal-go/internal/stats"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Deps are the services the router dispatches to.
type Deps struct {
	Auth           *auth.Service
	Trades         *journal.TradeService
	MissedTrades   *journal.MissedTradeService
	BrokerAccounts *journal.BrokerAccountService
	TokenTTL       time.Duration
	CORSOrigins    []string
}

// NewRouter builds the full HTTP surface: the versioned API under /api/v1 and /metrics.
func NewRouter(log *zap.Logger, deps Deps) http.Handler {
	h := NewHandler(log.Named("api"), deps)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log.Named("http")))
	r.Use(middleware.Recoverer)
	r.Use(instrument)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, envelope{Error: "Route not found"})
	})
	r.Handle("/metrics", promhttp.Handler())

	requireAuth := authenticate(deps.Auth.Tokens())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.HealthHandler)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.RegisterHandler)
			r.Post("/login", h.LoginHandler)
			r.Get("/logout", h.LogoutHandler)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/me", h.MeHandler)
				r.Put("/updatedetails", h.UpdateDetailsHandler)
				r.Put("/updatepassword", h.UpdatePasswordHandler)
				r.Put("/updatesettings", h.UpdateSettingsHandler)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Route("/trades", func(r chi.Router) {
				r.Get("/", h.ListTradesHandler)
				r.Post("/", h.CreateTradeHandler)
				r.Get("/stats", h.TradeStatsHandler)
				r.Get("/stats/sessions", h.breakdownHandler(stats.BySession))
				r.Get("/stats/strategies", h.breakdownHandler(stats.ByStrategy))
				r.Get("/{id}", h.GetTradeHandler)
				r.Put("/{id}", h.UpdateTradeHandler)
				r.Delete("/{id}", h.DeleteTradeHandler)
			})

			r.Route("/missed-trades", func(r chi.Router) {
				r.Get("/", h.ListMissedTradesHandler)
				r.Post("/", h.CreateMissedTradeHandler)
				r.Get("/stats", h.MissedTradeStatsHandler)
				r.Get("/{id}", h.GetMissedTradeHandler)
				r.Put("/{id}", h.UpdateMissedTradeHandler)
				r.Delete("/{id}", h.DeleteMissedTradeHandler)
			})

			r.Route("/broker-accounts", func(r chi.Router) {
				r.Get("/", h.ListBrokerAccountsHandler)
				r.Post("/", h.CreateBrokerAccountHandler)
				r.Get("/{id}", h.GetBrokerAccountHandler)
				r.Put("/{id}", h.UpdateBrokerAccountHandler)
				r.Delete("/{id}", h.DeleteBrokerAccountHandler)
				r.Post("/{id}/sync", h.SyncBrokerAccountHandler)
				r.Get("/{id}/sync-history", h.SyncHistoryHandler)
			})
		})
	})

	return r
}
