package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/qrcard/internal/domain"
	"github.com/MrSnakeDoc/qrcard/internal/httpserver/deps"
	"github.com/MrSnakeDoc/qrcard/internal/scanlog"
)

type createCodeRequest struct {
	Code  string `json:"code,omitempty"`
	Owner string `json:"owner,omitempty"`
}

// CreateCode registers a code, random when none is given. With an owner the
// code is created already bound to them.
func CreateCode(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createCodeRequest
		if r.ContentLength != 0 {
			if err := decodeJSON(r, &req); err != nil {
				writeError(w, d, err)
				return
			}
		}

		var (
			sc  domain.ScannableCode
			err error
		)
		if req.Owner != "" {
			sc, err = d.Codes.CreateForOwner(r.Context(), req.Code, req.Owner)
		} else {
			sc, err = d.Codes.Create(r.Context(), req.Code)
		}
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusCreated, toCodeResponse(d, sc))
	}
}

// ListCodes lists live codes, newest first, optionally for one owner.
func ListCodes(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			codes []domain.ScannableCode
			err   error
		)
		if owner := r.URL.Query().Get("owner"); owner != "" {
			codes, err = d.Codes.ListByOwner(r.Context(), owner)
		} else {
			codes, err = d.Codes.List(r.Context())
		}
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

// UnlinkCode returns a bound code to the unbound state.
func UnlinkCode(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sc, err := d.Codes.Unlink(r.Context(), chi.URLParam(r, "code"))
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusOK, toCodeResponse(d, sc))
	}
}

// DeleteCode permanently removes a code. There is no confirmation step.
func DeleteCode(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.Codes.Delete(r.Context(), chi.URLParam(r, "code")); err != nil {
			writeError(w, d, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ListScans returns recent scans, newest first, with the scanning client
// classified. ?code= narrows to one code, ?limit= caps the listing.
func ListScans(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := queryInt(r, "limit", scanlog.DefaultLimit)

		var (
			events []domain.ScanEvent
			err    error
		)
		if code := r.URL.Query().Get("code"); code != "" {
			events, err = d.Scans.List(r.Context(), code, limit)
		} else {
			events, err = d.Scans.All(r.Context(), limit)
		}
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusOK, scanlog.DescribeAll(events))
	}
}

// Overview serves the admin dashboard counters.
func Overview(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ov, err := d.Scans.Overview(r.Context(), d.Inventory)
		if err != nil {
			writeError(w, d, err)
			return
		}
		writeJSON(w, http.StatusOK, ov)
	}
}
