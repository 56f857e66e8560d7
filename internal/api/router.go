package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ecolabel/platescore/internal/catalog"
	"github.com/ecolabel/platescore/internal/notify"
)

func NewRouter(scorer Scorer, store catalog.Store, events notify.Client, metrics *Metrics, rateLimit int, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(RateLimitMiddleware(rateLimit))

	recipes := NewRecipesHandler(scorer, events, metrics)
	cat := NewCatalogHandler(store)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/recipes/score", recipes.Score)
		r.Get("/items", cat.Items)
		r.Get("/schemes", cat.Schemes)
	})

	return r
}

func NewMetricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
