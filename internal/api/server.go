// Package api is the HTTP boundary of the evaluation service.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vc-readiness/internal/catalog"
	apperrors "vc-readiness/internal/common/errors"
	"vc-readiness/internal/common/logger"
	"vc-readiness/internal/common/observability"
	"vc-readiness/internal/evaluation"
	"vc-readiness/internal/premium"
)

// ReadinessCheck reports whether a backing dependency is reachable.
type ReadinessCheck func(ctx context.Context) error

// Deps are the services the router serves.
type Deps struct {
	Catalog         *catalog.Catalog
	Evaluations     *evaluation.Service
	Premium         *premium.Service
	Observability   *observability.Observability
	Logger          logger.Logger
	AllowedOrigins  []string
	RequestTimeout  time.Duration
	ReadinessChecks map[string]ReadinessCheck
}

type Handler struct {
	deps   Deps
	errors *apperrors.ErrorHandler
	logger logger.Logger
}

func NewHandler(deps Deps) *Handler {
	log := deps.Logger.WithFields(map[string]interface{}{"component": "http"})
	return &Handler{
		deps:   deps,
		errors: apperrors.NewErrorHandler(log),
		logger: log,
	}
}

// Router builds the chi router with middleware and every route.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if h.deps.Observability != nil {
		r.Use(h.recordRequests)
	}
	if h.deps.RequestTimeout > 0 {
		r.Use(middleware.Timeout(h.deps.RequestTimeout))
	}

	origins := h.deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	h.RegisterRoutes(r)
	return r
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/vc-test", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Get("/catalog", h.GetCatalog)
		r.Post("/completion", h.Completion)
		r.Post("/validate", h.Validate)
		r.Post("/evaluate", h.Evaluate)
		r.Post("/payment-intent", h.CreatePaymentIntent)
		r.Post("/unlock-premium", h.UnlockPremium)
		r.Get("/evaluation/{evaluationID}", h.GetEvaluation)
	})
}

func (h *Handler) recordRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		h.deps.Observability.RecordRequest(r.Context(), route, status, time.Since(start))
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// Ready runs every readiness check and answers 503 when one fails.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string, len(h.deps.ReadinessChecks))
	status := http.StatusOK
	for name, check := range h.deps.ReadinessChecks {
		if err := check(r.Context()); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}
	writeJSON(w, status, map[string]interface{}{
		"status": state,
		"checks": checks,
		"time":   time.Now().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, successResponse{Success: true, Data: data})
}
