package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpmiddleware "github.com/wolfman30/spa-ledger/internal/http/middleware"
	"github.com/wolfman30/spa-ledger/internal/reports"
	"github.com/wolfman30/spa-ledger/pkg/logging"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger func(ctx context.Context) error

// Config holds router configuration
type Config struct {
	Logger          *logging.Logger
	TelegramWebhook http.Handler
	Reports         *reports.Handler
	AdminAuthSecret string
	MetricsHandler  http.Handler
	RateLimiter     *httpmiddleware.RateLimiter

	// Readiness checks keyed by dependency name (optional).
	ReadyChecks map[string]Pinger
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))

	r.Group(func(public chi.Router) {
		public.Get("/health", health)
		public.Get("/ready", ready(cfg.ReadyChecks))
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.TelegramWebhook != nil {
			public.Post("/telegram/webhook", cfg.TelegramWebhook.ServeHTTP)
		}
	})

	if cfg.Reports != nil {
		r.Route("/api", func(api chi.Router) {
			if cfg.RateLimiter != nil {
				api.Use(httpmiddleware.RateLimit(cfg.RateLimiter))
			}
			api.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			api.Use(middleware.Compress(5))
			api.Mount("/", cfg.Reports.Routes())
		})
	}

	return r
}

func health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func ready(checks map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, ping := range checks {
			if err := ping(ctx); err != nil {
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}
		writeJSON(w, status, map[string]any{"ready": status == http.StatusOK, "checks": results})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
