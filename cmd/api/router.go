package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"

	"github.com/FACorreiaa/backoffice-ingest/pkg/interceptors"
	"github.com/FACorreiaa/backoffice-ingest/pkg/observability"
)

// SetupRouter configures all routes and returns the HTTP service
func SetupRouter(deps *Dependencies) http.Handler {
	r := chi.NewRouter()

	tracer := otel.GetTracerProvider().Tracer("backoffice/api")

	var limiter *rate.Limiter
	if deps.Config.Server.RateLimitPerSecond > 0 && deps.Config.Server.RateLimitBurst > 0 {
		limiter = rate.NewLimiter(
			rate.Limit(float64(deps.Config.Server.RateLimitPerSecond)),
			deps.Config.Server.RateLimitBurst,
		)
	}

	r.Use(
		middleware.RealIP,
		interceptors.NewRequestIDMiddleware("X-Request-ID"),
		interceptors.NewTracingMiddleware(tracer),
		interceptors.NewRecoveryMiddleware(deps.Logger),
		interceptors.NewLoggingMiddleware(deps.Logger),
		observability.NewMetricsMiddleware(),
	)

	r.Group(func(r chi.Router) {
		r.Use(interceptors.NewRateLimitMiddleware(limiter))
		r.Use(noStore)
		deps.ImportHandler.Routes(r)
		deps.ConversionHandler.Routes(r)
	})
	deps.Logger.Info("registered API routes")

	registerUtilityRoutes(r, deps)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   deps.Config.Server.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           7200,
	})

	return corsHandler.Handler(r)
}

func noStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		next.ServeHTTP(w, r)
	})
}

// registerUtilityRoutes registers health check, metrics, and other utility routes
func registerUtilityRoutes(r chi.Router, deps *Dependencies) {
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		type status struct {
			Status string `json:"status"`
			Detail string `json:"detail,omitempty"`
		}
		result := map[string]status{"db": {Status: "ok"}}
		code := http.StatusOK

		if err := deps.DB.Health(); err != nil {
			result["db"] = status{Status: "fail", Detail: err.Error()}
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		if err := json.NewEncoder(w).Encode(result); err != nil {
			deps.Logger.Error("failed to encode health response", slog.Any("error", err))
		}
	})
	deps.Logger.Info("registered health check", "path", "/healthz")

	r.Get("/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ready")); err != nil {
			deps.Logger.Error("failed to write readiness response", slog.Any("error", err))
		}
	})

	if deps.Config.Observability.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
		deps.Logger.Info("registered metrics endpoint", "path", "/metrics")
	}
}
