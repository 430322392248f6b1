package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/MrSnakeDoc/qrcard/internal/deferred"
	"github.com/MrSnakeDoc/qrcard/internal/domain"
	"github.com/MrSnakeDoc/qrcard/internal/httpserver/deps"
	"github.com/MrSnakeDoc/qrcard/internal/logger"
	"github.com/MrSnakeDoc/qrcard/internal/profile"
)

// maxBody caps JSON request bodies.
const maxBody = 64 << 10

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
	Code   string `json:"code,omitempty"`
	Edit   *int   `json:"edit,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &domain.ValidationError{Reason: "invalid JSON body: " + err.Error()}
	}
	return nil
}

// statusFor maps core errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrAlreadyBound),
		errors.Is(err, domain.ErrNotBound),
		errors.Is(err, domain.ErrAlreadyExists),
		errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidCode),
		errors.Is(err, domain.ErrUnknownPlatform),
		errors.Is(err, domain.ErrUnknownSection):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as JSON. Internal errors are logged and masked.
func writeError(w http.ResponseWriter, d deps.Deps, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		resp.Reason = ve.Reason
		if d.Metrics != nil && ve.PlatformID != "" {
			d.Metrics.Rejection(ve.Reason)
		}
	}
	var ce *deferred.ConflictError
	if errors.As(err, &ce) {
		resp.Code = ce.Code
	}
	var ee *profile.EditError
	if errors.As(err, &ee) {
		idx := ee.Index
		resp.Edit = &idx
	}

	if status == http.StatusInternalServerError {
		d.Logger.Error("request failed", logger.Error(err))
		resp = errorResponse{Error: http.StatusText(status)}
	}
	writeJSON(w, status, resp)
}

// queryInt reads a non-negative integer query parameter.
func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
