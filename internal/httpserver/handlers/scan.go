package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/qrcard/internal/domain"
	"github.com/MrSnakeDoc/qrcard/internal/httpserver/deps"
	"github.com/MrSnakeDoc/qrcard/internal/logger"
	"github.com/MrSnakeDoc/qrcard/internal/metrics"
)

type scanResponse struct {
	Code      string          `json:"code"`
	URL       string          `json:"url,omitempty"`
	Bound     bool            `json:"bound"`
	OwnerID   string          `json:"owner_id,omitempty"`
	Directory domain.Snapshot `json:"directory,omitempty"`
	Register  string          `json:"register,omitempty"`
	Login     string          `json:"login,omitempty"`
}

// Scan resolves a code. Every well-formed scan is recorded, bound or not.
// A bound code returns its owner's committed directory; an unbound one
// returns where to register or log in to claim it.
func Scan(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		code := chi.URLParam(r, "code")

		if err := domain.ValidateCode(code); err != nil {
			writeError(w, d, err)
			return
		}

		// Recording is best effort: a failed append must not hide the card
		if _, err := d.Scans.Append(ctx, code, r.UserAgent()); err != nil {
			d.Logger.Warn("failed to record scan",
				logger.String("code", code),
				logger.Error(err))
		}

		res, err := d.Codes.Resolve(ctx, code)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				observeScan(d, metrics.ScanNotFound)
			}
			writeError(w, d, err)
			return
		}

		resp := scanResponse{Code: code, URL: codeURL(d, code), Bound: res.Bound}
		if !res.Bound {
			observeScan(d, metrics.ScanUnbound)
			q := url.Values{"code": {code}}.Encode()
			resp.Register = "/register?" + q
			resp.Login = "/login?" + q
			writeJSON(w, http.StatusOK, resp)
			return
		}

		observeScan(d, metrics.ScanBound)
		snap, err := d.Profiles.Snapshot(ctx, res.OwnerID)
		if err != nil {
			writeError(w, d, err)
			return
		}
		resp.OwnerID = res.OwnerID
		resp.Directory = snap
		writeJSON(w, http.StatusOK, resp)
	}
}

func observeScan(d deps.Deps, outcome string) {
	if d.Metrics != nil {
		d.Metrics.Scan(outcome)
	}
}

func codeURL(d deps.Deps, code string) string {
	if d.PublicBaseURL == "" {
		return ""
	}
	return d.PublicBaseURL + "/c/" + code
}
