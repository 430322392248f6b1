package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/qrcard/internal/deferred"
	"github.com/MrSnakeDoc/qrcard/internal/domain"
	"github.com/MrSnakeDoc/qrcard/internal/httpserver/deps"
	"github.com/MrSnakeDoc/qrcard/internal/httpserver/mw"
	"github.com/MrSnakeDoc/qrcard/internal/logger"
)

func sessionFrom(r *http.Request, d deps.Deps) string {
	c, err := r.Cookie(d.SessionCookie)
	if err != nil || !deferred.ValidSession(c.Value) {
		return ""
	}
	return c.Value
}

func setSessionCookie(w http.ResponseWriter, d deps.Deps, session string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     d.SessionCookie,
		Value:    session,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   d.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// Stash remembers what an anonymous visitor was doing before being sent to
// log in or register. A later stash in the same session replaces it.
func Stash(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var action domain.PendingAction
		if err := decodeJSON(r, &action); err != nil {
			writeError(w, d, err)
			return
		}

		session := sessionFrom(r, d)
		if session == "" {
			session = deferred.NewSession()
		}

		if err := d.Deferred.Stash(r.Context(), session, action); err != nil {
			writeError(w, d, err)
			return
		}

		setSessionCookie(w, d, session, int(d.PendingTTL.Seconds()))
		writeJSON(w, http.StatusAccepted, action)
	}
}

// Complete is called by the authentication collaborator right after a
// successful login or registration. It consumes the stashed intent and says
// where the user goes next.
func Complete(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, _ := mw.OwnerFrom(r.Context())
		session := sessionFrom(r, d)

		outcome, err := d.Deferred.Complete(r.Context(), session, owner)
		if session != "" {
			// The slot is consumed either way
			setSessionCookie(w, d, "", -1)
		}
		if err != nil {
			observeBind(d, err)
			writeError(w, d, err)
			return
		}
		if outcome.Kind == deferred.OutcomeLinked {
			observeBind(d, nil)
		}

		d.Logger.Info("authentication completed",
			logger.String("owner", owner),
			logger.String("outcome", string(outcome.Kind)),
			logger.String("location", outcome.Location))
		writeJSON(w, http.StatusOK, outcome)
	}
}
