// internal/api/api.go
//
// HTTP surface of the catalog.
//
// Context
// -------
// One Handler owns the shared dependencies (DB pool, session store,
// upload saver) and every endpoint hangs off it as a method.  The
// per-entity files mirror the store layout: categories.go, resources.go,
// submissions.go, messages.go, auth.go, stats.go, dashboard.go, and
// upload.go.
//
// Request bodies decode into small payload structs validated with
// go-playground/validator (email and URL syntax included), so malformed
// input is rejected before any store call.

package api

import (
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	"github.com/rigazamy/apikit/internal/session"
	"github.com/rigazamy/apikit/internal/upload"
)

// validate is the package-wide payload validator.
var validate = validator.New()

// Handler bundles the dependencies shared by every endpoint.
type Handler struct {
	DB         *sqlx.DB
	Sessions   *session.Store
	Uploads    *upload.Saver
	CookieName string
}

// New constructs the Handler.
func New(db *sqlx.DB, sessions *session.Store, uploads *upload.Saver, cookieName string) *Handler {
	return &Handler{
		DB:         db,
		Sessions:   sessions,
		Uploads:    uploads,
		CookieName: cookieName,
	}
}
