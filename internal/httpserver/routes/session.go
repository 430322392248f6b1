package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/qrcard/internal/httpserver/deps"
	"github.com/MrSnakeDoc/qrcard/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/qrcard/internal/httpserver/mw"
)

func init() { Register(registerSession) }

func registerSession(r chi.Router, d deps.Deps) {
	pub := public(r, d)
	pub.Post("/pending", handlers.Stash(d))
	pub.With(mw.RequireOwner).Post("/auth/complete", handlers.Complete(d))

	owner := pub.With(mw.RequireOwner)
	owner.Get("/profile", handlers.GetProfile(d, handlers.OwnerFromHeader))
	owner.Put("/profile", handlers.EditProfile(d, handlers.OwnerFromHeader))
	owner.Get("/me/codes", handlers.OwnerCodes(d))
}
