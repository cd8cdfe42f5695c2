// internal/store/store.go
//
// Shared pieces of the catalog repositories.
//
// Context
// -------
// Every entity (categories, resources, submissions, messages, admin
// users, page stats) lives in its own file as a set of package-level
// query helpers that accept a *sqlx.DB (or *sqlx.Tx) plus a context.
// The store is the sole owner of entity state; there is no in-process
// cache, so every helper is a single round trip—or one transaction for
// the compound operations (submission approval, view tracking, initial
// admin setup).
//
// All SQL is a fixed set of parameterised statements.  Table and column
// names are never interpolated from request input; the polymorphic stats
// queries pick between two prepared variants via a tagged type instead
// (see stats.go).
//
// Errors
// ------
// Rule violations surface as the sentinel errors below so handlers can
// map them onto the HTTP taxonomy without inspecting driver errors.
// Raw driver failures pass through untouched for endpoint-boundary
// logging.
package store

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
)

// Sentinel errors returned by the repositories.
var (
	// ErrNotFound marks a referenced id that is absent.
	ErrNotFound = errors.New("store: not found")

	// ErrDuplicate marks a unique-field collision (label, slug, name, email).
	ErrDuplicate = errors.New("store: duplicate value")

	// ErrCategoryInUse blocks category deletion while resources reference it.
	ErrCategoryInUse = errors.New("store: category has resources")

	// ErrSelfDelete blocks an admin deleting their own account.
	ErrSelfDelete = errors.New("store: cannot delete own account")

	// ErrLastSuperAdmin blocks deleting the final super_admin.
	ErrLastSuperAdmin = errors.New("store: cannot delete the last super admin")

	// ErrSetupDone blocks initial setup once any admin exists.
	ErrSetupDone = errors.New("store: initial setup already completed")
)

// newID returns an opaque identifier "prefix_<uuid>".  The prefix keeps
// rows recognisable in logs and support tickets; the UUID keeps them
// unguessable and collision-free under concurrent inserts.
func newID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

// isDupKey reports whether err is a MySQL duplicate-entry violation
// (error 1062).  Unique indexes are the last line of defence behind the
// pre-insert existence checks, which are racy by nature.
func isDupKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}

// isFKViolation reports whether err is a MySQL foreign-key violation
// (error 1452): the write referenced an id that does not exist.  Callers
// map it to ErrNotFound, since a stale client pointing at a just-deleted
// row is routine, not an internal failure.
func isFKViolation(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1452
}

// Pagination echoes the page window back to the client alongside data.
type Pagination struct {
	Total       int `json:"total"`
	TotalPages  int `json:"total_pages"`
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
}

// paginate clamps page to >= 1 and derives the SQL offset plus the
// response Pagination for a page window of perPage rows.  Pages past the
// end are legal; they simply select zero rows.
func paginate(total, page, perPage int) (offset int, p Pagination) {
	if page < 1 {
		page = 1
	}
	totalPages := (total + perPage - 1) / perPage
	return (page - 1) * perPage, Pagination{
		Total:       total,
		TotalPages:  totalPages,
		CurrentPage: page,
		PerPage:     perPage,
	}
}

// MakeSlug converts a category label → lower-kebab ASCII.
//
// Rules
// -----
// 1. Lower-case everything.
// 2. Convert any run of non-[a-z0-9] characters to one “-”.  That strips
//    spaces, punctuation, emoji, and non-ASCII.
// 3. Trim leading / trailing “-”.
// 4. If the result is empty, return "category".
func MakeSlug(label string) string {
	var b strings.Builder
	b.Grow(len(label))

	lastWasDash := false
	for _, r := range strings.ToLower(label) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastWasDash = false
		default:
			if !lastWasDash {
				b.WriteRune('-')
				lastWasDash = true
			}
		}
	}

	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "category"
	}
	if len(slug) > 100 {
		slug = strings.TrimRight(slug[:100], "-")
	}
	return slug
}
