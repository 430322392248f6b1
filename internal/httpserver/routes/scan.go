package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/qrcard/internal/httpserver/deps"
	"github.com/MrSnakeDoc/qrcard/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/qrcard/internal/httpserver/mw"
)

func init() { Register(registerScan) }

func registerScan(r chi.Router, d deps.Deps) {
	limit := mw.RateLimit(mw.RateLimitConfig{
		Burst:             d.ScanRateBurst,
		RefillPerIPPerMin: d.ScanRatePerMinute,
		MaxEntries:        100_000,
		TrustProxy:        d.TrustProxy,
		OnReject: func(*http.Request) {
			if d.Metrics != nil {
				d.Metrics.RateLimited()
			}
		},
	})

	pub := public(r, d)
	pub.With(limit).Get("/c/{code}", handlers.Scan(d))
	pub.With(mw.RequireOwner).Post("/c/{code}/link", handlers.Link(d))
	pub.Get("/platforms", handlers.Platforms(d))
}
