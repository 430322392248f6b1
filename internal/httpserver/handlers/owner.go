package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/qrcard/internal/httpserver/mw"
)

// OwnerSource picks the owner a profile request acts on.
type OwnerSource func(r *http.Request) string

// OwnerFromHeader is the authenticated owner editing their own directory.
func OwnerFromHeader(r *http.Request) string {
	owner, _ := mw.OwnerFrom(r.Context())
	return owner
}

// OwnerFromURL is an administrator acting on the owner's behalf.
func OwnerFromURL(r *http.Request) string {
	return chi.URLParam(r, "owner")
}
