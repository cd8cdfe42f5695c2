// internal/api/auth.go
//
// /auth endpoints: login, logout, status, one-time initial setup, and
// admin account management.
//
// Context
// -------
// Login answers the same 401 body for an unknown email and for a wrong
// password, so credentials cannot be probed.  Status is public; it tells
// the frontend whether a session is active and, before any account
// exists, that initial setup is still open.  Setup creates the first
// super_admin and logs the caller straight in; it hard-fails once any
// account exists.  The user-management handlers are admin-gated at the
// router and lean on the store for the self-delete and last-super-admin
// rules.

package api

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/rigazamy/apikit/internal/auth"
	"github.com/rigazamy/apikit/internal/session"
	"github.com/rigazamy/apikit/internal/store"
)

type loginPayload struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type setupPayload struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type createUserPayload struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role"     validate:"required"`
}

type updateUserPayload struct {
	Name  string `json:"name"  validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role"  validate:"required"`
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginPayload
	if !decodeBody(w, r, &in) {
		return
	}

	u, err := store.GetUserByEmail(r.Context(), h.DB, in.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		respondInternal(w, err)
		return
	}
	if err := auth.CheckPassword(in.Password, u.PasswordHash); err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	if err := h.issueSession(w, r, u); err != nil {
		respondInternal(w, err)
		return
	}

	if err := store.TouchLastLogin(r.Context(), h.DB, u.ID); err != nil {
		zap.S().Warnw("last_login stamp failed", "user", u.ID, "err", err)
	}

	respondData(w, auth.Identity{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role})
}

// Logout handles POST /auth/logout.  Always succeeds; an anonymous
// caller simply has nothing to tear down.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sess, err := h.Sessions.Get(r, h.CookieName)
	if err == nil && !sess.IsNew {
		sess.Options.MaxAge = -1
		if err := sess.Save(r, w); err != nil {
			respondInternal(w, err)
			return
		}
	}
	respondMessage(w, "Logged out successfully")
}

// Status handles GET /auth/status (public).
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	total, err := store.CountAdmins(r.Context(), h.DB)
	if err != nil {
		respondInternal(w, err)
		return
	}

	out := map[string]any{
		"authenticated":     false,
		"needsInitialSetup": total == 0,
		"user":              nil,
	}
	if ident, ok := h.currentIdentity(r); ok {
		out["authenticated"] = true
		out["user"] = ident
	}
	respondData(w, out)
}

// InitialSetup handles POST /auth/initial-setup.  Only valid while no admin
// account exists; creates the first super_admin and signs them in.
func (h *Handler) InitialSetup(w http.ResponseWriter, r *http.Request) {
	var in setupPayload
	if !decodeBody(w, r, &in) {
		return
	}
	if err := auth.ValidatePassword(in.Password); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		respondInternal(w, err)
		return
	}

	u, err := store.CreateInitialAdmin(r.Context(), h.DB, in.Name, in.Email, hash)
	if err != nil {
		respondStoreErr(w, err)
		return
	}

	if err := h.issueSession(w, r, u); err != nil {
		respondInternal(w, err)
		return
	}
	respondData(w, auth.Identity{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role})
}

// ListUsers handles GET /auth/users (admin).
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	rows, err := store.ListUsers(r.Context(), h.DB)
	if err != nil {
		respondInternal(w, err)
		return
	}
	respondData(w, rows)
}

// CreateUser handles POST /auth/users (admin).
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in createUserPayload
	if !decodeBody(w, r, &in) {
		return
	}
	if !store.ValidRole(in.Role) {
		respondError(w, http.StatusBadRequest, "Invalid role")
		return
	}
	if err := auth.ValidatePassword(in.Password); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		respondInternal(w, err)
		return
	}

	u, err := store.CreateUser(r.Context(), h.DB, in.Name, in.Email, hash, in.Role)
	if err != nil {
		respondStoreErr(w, err)
		return
	}
	respondData(w, u)
}

// UpdateUser handles PUT /auth/users?id= (admin).
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	if id == "" {
		respondError(w, http.StatusBadRequest, "User ID is required")
		return
	}

	var in updateUserPayload
	if !decodeBody(w, r, &in) {
		return
	}
	if !store.ValidRole(in.Role) {
		respondError(w, http.StatusBadRequest, "Invalid role")
		return
	}

	u, err := store.UpdateUser(r.Context(), h.DB, id, in.Name, in.Email, in.Role)
	if err != nil {
		respondStoreErr(w, err)
		return
	}
	respondData(w, u)
}

// DeleteUser handles DELETE /auth/users?id= (admin).  The requester is
// taken from the gate-provided identity so the self-delete rule cannot
// be spoofed.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	if id == "" {
		respondError(w, http.StatusBadRequest, "User ID is required")
		return
	}

	ident, ok := auth.IdentityFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := store.DeleteUser(r.Context(), h.DB, id, ident.ID); err != nil {
		respondStoreErr(w, err)
		return
	}
	respondMessage(w, "User deleted successfully")
}

// issueSession creates a fresh server-side session for u and sets the
// signed cookie.  A browser re-logging-in while it still holds a live
// session gets a new token; the old row is retired here rather than
// left for the reaper.
func (h *Handler) issueSession(w http.ResponseWriter, r *http.Request, u *store.AdminUser) error {
	sess, err := h.Sessions.Get(r, h.CookieName)
	if err != nil {
		return err
	}
	if !sess.IsNew && sess.ID != "" {
		if err := h.Sessions.Destroy(r.Context(), sess.ID); err != nil {
			return err
		}
	}
	sess.ID = ""
	sess.Values[session.KeyUserID] = u.ID
	sess.Values[session.KeyRole] = u.Role
	return sess.Save(r, w)
}
