package mw

import (
	"context"
	"net/http"
	"strings"
)

// OwnerHeader carries the authenticated owner id, set by the upstream
// authentication proxy.
const OwnerHeader = "X-Owner-ID"

type ownerKey struct{}

// ownerHolder is placed in the context before the handler runs so the access
// log, which wraps the whole chain, can see the owner afterwards.
type ownerHolder struct {
	id string
}

// WithOwner stores owner in ctx.
func WithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerKey{}, &ownerHolder{id: owner})
}

// OwnerFrom returns the owner recorded by RequireOwner.
func OwnerFrom(ctx context.Context) (string, bool) {
	h, ok := ctx.Value(ownerKey{}).(*ownerHolder)
	if !ok || h.id == "" {
		return "", false
	}
	return h.id, true
}

// TrackOwner makes the owner resolved deeper in the chain visible to outer
// middlewares.
func TrackOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), "")))
	})
}

// RequireOwner rejects requests without an owner header with 401.
func RequireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner := strings.TrimSpace(r.Header.Get(OwnerHeader))
		if owner == "" {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		if h, ok := r.Context().Value(ownerKey{}).(*ownerHolder); ok {
			h.id = owner
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), owner)))
	})
}
