// internal/api/gate.go
//
// The auth gate.
//
// Contract
// --------
// Given the request's session cookie, resolve the authenticated admin
// identity {id, name, email, role} or report "not authenticated".  The
// gate never errors out on an absent or invalid session—that is the
// normal anonymous case.  Gated endpoints respond 401 and perform no
// further work on failure: no partial writes, no information
// disclosure.
//
// The resolved identity rides the request context (internal/auth) so
// handlers that need the caller—self-deletion checks, audit logging—
// read it without a second lookup.

package api

import (
	"net/http"

	"github.com/rigazamy/apikit/internal/auth"
	"github.com/rigazamy/apikit/internal/session"
	"github.com/rigazamy/apikit/internal/store"
)

// currentIdentity resolves the session to an admin identity.  ok ==
// false covers every "not authenticated" case: no cookie, bad
// signature, expired row, or a session pointing at a deleted account.
func (h *Handler) currentIdentity(r *http.Request) (auth.Identity, bool) {
	sess, err := h.Sessions.Get(r, h.CookieName)
	if err != nil || sess.IsNew {
		return auth.Identity{}, false
	}

	userID, _ := sess.Values[session.KeyUserID].(string)
	if userID == "" {
		return auth.Identity{}, false
	}

	u, err := store.GetUser(r.Context(), h.DB, userID)
	if err != nil {
		return auth.Identity{}, false
	}

	return auth.Identity{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}, true
}

// RequireAdmin gates mutating and admin-only endpoints.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, ok := h.currentIdentity(r)
		if !ok {
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), ident)))
	})
}
