package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/qrcard/internal/domain"
	"github.com/MrSnakeDoc/qrcard/internal/httpserver/deps"
)

type platformsResponse struct {
	Source     string            `json:"source"`
	Categories []domain.Category `json:"categories"`
	Platforms  []domain.Platform `json:"platforms"`
}

// Platforms serves the active catalog for the editor.
func Platforms(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, platformsResponse{
			Source:     string(d.Registry.Source()),
			Categories: domain.Categories,
			Platforms:  d.Registry.All(),
		})
	}
}
