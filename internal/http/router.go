package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/MrJamesThe3rd/photobox/internal/http/location"
	"github.com/MrJamesThe3rd/photobox/internal/http/maintenance"
	authmw "github.com/MrJamesThe3rd/photobox/internal/http/middleware"
	"github.com/MrJamesThe3rd/photobox/internal/http/photo"
	"github.com/MrJamesThe3rd/photobox/internal/http/price"
	"github.com/MrJamesThe3rd/photobox/internal/http/respond"
	"github.com/MrJamesThe3rd/photobox/internal/http/transaction"
	"github.com/MrJamesThe3rd/photobox/internal/http/webhook"
	"github.com/MrJamesThe3rd/photobox/internal/metrics"
)

type Config struct {
	CORSOrigins      []string
	CallbackToken    string
	MaintenanceToken string
	JWTSecret        string
	MaxRoleLevel     int
	Gatherer         prometheus.Gatherer
	Tracer           trace.Tracer
	Metrics          *metrics.Metrics
}

type Handlers struct {
	Transactions *transaction.Handler
	Webhooks     *webhook.Handler
	Photos       *photo.Handler
	Maintenance  *maintenance.Handler
	Prices       *price.Handler
	Locations    *location.Handler
}

func New(cfg Config, h Handlers) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Trace-ID"},
		MaxAge:         300,
	}))

	if cfg.Tracer != nil {
		router.Use(authmw.Observe(cfg.Tracer, cfg.Metrics))
	}

	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if cfg.Gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	admin := authmw.RequireAdmin(cfg.JWTSecret, cfg.MaxRoleLevel)

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/transactions", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				h.Transactions.PublicRoutes(r)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.AllowContentType("multipart/form-data"))
				h.Photos.Routes(r)
			})

			r.Group(func(r chi.Router) {
				r.Use(admin)
				h.Transactions.AdminRoutes(r)
			})
		})

		r.Route("/webhooks", func(r chi.Router) {
			r.Use(authmw.RequireToken("x-callback-token", cfg.CallbackToken))
			h.Webhooks.Routes(r)
		})

		r.Route("/maintenance", func(r chi.Router) {
			r.Use(authmw.RequireToken("x-maintenance-token", cfg.MaintenanceToken))
			h.Maintenance.Routes(r)
		})

		r.Route("/prices", func(r chi.Router) {
			r.Use(admin)
			h.Prices.Routes(r)
		})

		r.Route("/locations", func(r chi.Router) {
			r.Use(admin)
			h.Locations.Routes(r)
		})
	})

	return router
}
