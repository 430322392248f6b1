package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/qrcard/internal/domain"
	"github.com/MrSnakeDoc/qrcard/internal/httpserver/deps"
	"github.com/MrSnakeDoc/qrcard/internal/httpserver/mw"
	"github.com/MrSnakeDoc/qrcard/internal/metrics"
)

type codeResponse struct {
	Code      string `json:"code"`
	URL       string `json:"url,omitempty"`
	OwnerID   string `json:"owner_id,omitempty"`
	Bound     bool   `json:"bound"`
	CreatedAt string `json:"created_at"`
	BoundAt   string `json:"bound_at,omitempty"`
}

func toCodeResponse(d deps.Deps, c domain.ScannableCode) codeResponse {
	resp := codeResponse{
		Code:      c.Code,
		URL:       codeURL(d, c.Code),
		OwnerID:   c.OwnerID,
		Bound:     c.Bound(),
		CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339),
	}
	if !c.BoundAt.IsZero() {
		resp.BoundAt = c.BoundAt.UTC().Format(time.RFC3339)
	}
	return resp
}

// Link binds the code in the path to the authenticated owner.
func Link(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, _ := mw.OwnerFrom(r.Context())
		code := chi.URLParam(r, "code")

		sc, err := d.Codes.Bind(r.Context(), code, owner)
		observeBind(d, err)
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusOK, toCodeResponse(d, sc))
	}
}

// OwnerCodes lists the codes bound to the authenticated owner.
func OwnerCodes(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, _ := mw.OwnerFrom(r.Context())
		codes, err := d.Codes.ListByOwner(r.Context(), owner)
		if err != nil {
			writeError(w, d, err)
			return
		}
		out := make([]codeResponse, 0, len(codes))
		for _, c := range codes {
			out = append(out, toCodeResponse(d, c))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func observeBind(d deps.Deps, err error) {
	if d.Metrics == nil {
		return
	}
	switch {
	case err == nil:
		d.Metrics.Bind(metrics.BindOK)
	case errors.Is(err, domain.ErrAlreadyBound):
		d.Metrics.Bind(metrics.BindAlreadyBound)
	default:
		d.Metrics.Bind(metrics.BindError)
	}
}
