package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/qrcard/internal/httpserver/deps"
	"github.com/MrSnakeDoc/qrcard/internal/httpserver/handlers"
)

func init() { Register(registerAdmin) }

func registerAdmin(r chi.Router, d deps.Deps) {
	admin := adminOnly(r, d)

	admin.Get("/admin/overview", handlers.Overview(d))

	admin.Post("/admin/codes", handlers.CreateCode(d))
	admin.Get("/admin/codes", handlers.ListCodes(d))
	admin.Patch("/admin/codes/{code}/unlink", handlers.UnlinkCode(d))
	admin.Delete("/admin/codes/{code}", handlers.DeleteCode(d))

	admin.Get("/admin/scans", handlers.ListScans(d))

	admin.Get("/admin/users/{owner}/profile", handlers.GetProfile(d, handlers.OwnerFromURL))
	admin.Put("/admin/users/{owner}/profile", handlers.EditProfile(d, handlers.OwnerFromURL))
}
