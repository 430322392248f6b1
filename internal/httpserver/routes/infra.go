package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/qrcard/internal/httpserver/deps"
	"github.com/MrSnakeDoc/qrcard/internal/httpserver/handlers"
)

func init() { Register(registerInfra) }

func registerInfra(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))

	admin := adminOnly(r, d)
	admin.Get("/readyz", handlers.Readyz(d))
	admin.Get("/infra", handlers.Infra(d))
	admin.Post("/reload", handlers.Reload(d))
	if d.Metrics != nil {
		admin.Handle("/metrics", d.Metrics.Handler())
	}
}
