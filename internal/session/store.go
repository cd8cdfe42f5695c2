// internal/session/store.go
//
// Server-side admin sessions.
//
// Context
// -------
// The browser holds only an opaque token inside a signed cookie; the
// authenticated identity (user id and role) lives in the admin_sessions
// table and is looked up per request.  This implements the
// gorilla/sessions Store interface, so handlers use the ordinary
// `sess, _ := store.Get(r, name)` / `sess.Save(r, w)` flow while the
// backing state stays in MySQL—destroying the row logs the admin out
// everywhere immediately.
//
// Rows carry an absolute expiry.  A reaper goroutine (main.go) calls
// DeleteExpired hourly; lookups also refuse expired rows, so the reaper
// is purely hygiene.
//
// Notes
// -----
// • The cookie value is the token run through securecookie with the
//   configured auth key, so tokens cannot be minted or tampered with
//   client-side.
// • Values carries exactly two keys, "user_id" and "role"; the schema
//   stores them as columns instead of an opaque blob so sessions stay
//   inspectable with plain SQL.
package session

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"github.com/jmoiron/sqlx"
)

// Values keys.
const (
	KeyUserID = "user_id"
	KeyRole   = "role"
)

// Store is a MySQL-backed sessions.Store.  Safe for concurrent use.
type Store struct {
	db      *sqlx.DB
	codecs  []securecookie.Codec
	options sessions.Options
	ttl     time.Duration
}

// row mirrors one admin_sessions record.
type row struct {
	Token     string    `db:"token"`
	UserID    string    `db:"user_id"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`
	ExpiresAt time.Time `db:"expires_at"`
}

// NewStore builds a Store.  authKey signs the cookie (32+ bytes); ttl
// bounds the server-side row; secure controls the cookie Secure flag.
func NewStore(db *sqlx.DB, authKey []byte, ttl time.Duration, secure bool) *Store {
	return &Store{
		db:     db,
		codecs: securecookie.CodecsFromPairs(authKey),
		options: sessions.Options{
			Path:     "/",
			MaxAge:   int(ttl / time.Second),
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		},
		ttl: ttl,
	}
}

// Get returns the cached session for this request, loading it once.
func (s *Store) Get(r *http.Request, name string) (*sessions.Session, error) {
	return sessions.GetRegistry(r).Get(s, name)
}

// New builds a session, populating it from the store when the request
// carries a valid, unexpired token.  Absent or invalid cookies yield a
// fresh empty session and a nil error, per the auth-gate contract.
func (s *Store) New(r *http.Request, name string) (*sessions.Session, error) {
	sess := sessions.NewSession(s, name)
	opts := s.options
	sess.Options = &opts
	sess.IsNew = true

	c, err := r.Cookie(name)
	if err != nil || c.Value == "" {
		return sess, nil
	}

	var token string
	if err := securecookie.DecodeMulti(name, c.Value, &token, s.codecs...); err != nil {
		return sess, nil
	}

	const q = `
        SELECT token, user_id, role, created_at, expires_at
        FROM   admin_sessions
        WHERE  token = ?
          AND  expires_at > NOW()`
	var rec row
	if err := s.db.GetContext(r.Context(), &rec, q, token); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sess, nil
		}
		return sess, err
	}

	sess.ID = rec.Token
	sess.Values[KeyUserID] = rec.UserID
	sess.Values[KeyRole] = rec.Role
	sess.IsNew = false
	return sess, nil
}

// Save persists the session.  MaxAge < 0 destroys the server-side row
// and expires the cookie; anything else upserts the row and (re)issues
// the signed cookie.
func (s *Store) Save(r *http.Request, w http.ResponseWriter, sess *sessions.Session) error {
	if sess.Options.MaxAge < 0 {
		if sess.ID != "" {
			if _, err := s.db.ExecContext(r.Context(),
				`DELETE FROM admin_sessions WHERE token = ?`, sess.ID); err != nil {
				return err
			}
		}
		http.SetCookie(w, sessions.NewCookie(sess.Name(), "", sess.Options))
		return nil
	}

	userID, _ := sess.Values[KeyUserID].(string)
	role, _ := sess.Values[KeyRole].(string)
	if userID == "" {
		return errors.New("session: user_id must be set before Save")
	}

	if sess.ID == "" {
		sess.ID = "tok_" + uuid.NewString()
	}

	const upsert = `
        INSERT INTO admin_sessions (token, user_id, role, created_at, expires_at)
        VALUES (?, ?, ?, NOW(), NOW() + INTERVAL ? SECOND)
        ON DUPLICATE KEY UPDATE
               role       = VALUES(role),
               expires_at = VALUES(expires_at)`
	if _, err := s.db.ExecContext(r.Context(), upsert,
		sess.ID, userID, role, int(s.ttl/time.Second)); err != nil {
		return err
	}

	encoded, err := securecookie.EncodeMulti(sess.Name(), sess.ID, s.codecs...)
	if err != nil {
		return err
	}
	http.SetCookie(w, sessions.NewCookie(sess.Name(), encoded, sess.Options))
	return nil
}

// Destroy removes the server-side row for token without touching the
// cookie.  Used when an account is deleted.
func (s *Store) Destroy(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM admin_sessions WHERE token = ?`, token)
	return err
}

// DeleteExpired reaps rows whose expiry has passed.
func (s *Store) DeleteExpired(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM admin_sessions WHERE expires_at <= NOW()`)
	return err
}
