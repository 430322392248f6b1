package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/qrcard/internal/httpserver/deps"
	"github.com/MrSnakeDoc/qrcard/internal/registry"
)

type componentStatus struct {
	OK         bool   `json:"ok"`
	Platforms  *int   `json:"platforms,omitempty"`
	Source     string `json:"source,omitempty"`
	LastReload string `json:"last_reload,omitempty"`
	Mode       string `json:"mode,omitempty"`
	Impact     string `json:"impact,omitempty"`
	Error      string `json:"error,omitempty"`
}

type infraResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports the catalog and store state for operators.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]componentStatus{
			"catalog": catalogStatus(d),
			"store":   checkStore(r.Context(), d),
		}
		writeJSON(w, http.StatusOK, infraResponse{
			Status:     overallStatus(components),
			Components: components,
		})
	}
}

func catalogStatus(d deps.Deps) componentStatus {
	count := d.Registry.Count()
	source := d.Registry.Source()
	lastReload := "never"
	if t := d.Registry.LastReload(); !t.IsZero() {
		lastReload = t.Format("2006-01-02 15:04:05")
	}

	st := componentStatus{
		OK:         count > 0,
		Platforms:  &count,
		Source:     string(source),
		LastReload: lastReload,
	}
	if source == registry.SourceFallback {
		st.Impact = "built-in catalog only"
	}
	return st
}

func overallStatus(components map[string]componentStatus) string {
	if store, ok := components["store"]; ok && !store.OK {
		return "critical" // codes and directories unreachable
	}
	if catalog, ok := components["catalog"]; ok && catalog.Source == string(registry.SourceFallback) {
		return "degraded"
	}
	return "ok"
}

func checkStore(parent context.Context, d deps.Deps) componentStatus {
	if d.Store == nil {
		return componentStatus{OK: false, Mode: d.StoreKind, Error: "store not initialized"}
	}

	ctx, cancel := context.WithTimeout(parent, 2*time.Second)
	defer cancel()

	if err := d.Store.Ping(ctx); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   d.StoreKind,
			Impact: "scans and edits failing",
			Error:  err.Error(),
		}
	}

	st := componentStatus{OK: true, Mode: d.StoreKind}
	if d.StoreKind == "memory" {
		st.Impact = "data lost on restart"
	}
	return st
}
