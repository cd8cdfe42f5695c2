// internal/store/resources.go
//
// Resource repository.
//
// Resources are the catalog entries themselves.  They arrive two ways:
// direct admin creation, or as the side effect of approving a visitor
// submission (see submissions.go, which inserts through the same
// insertResource statement inside its transaction).
//
// Partial updates use one fixed statement with COALESCE per column, so
// absent fields (NULL args) keep their stored value and no SQL fragment
// is ever assembled from request input.

package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// ResourcePageSize is the fixed page window for GET /resources.
const ResourcePageSize = 20

// Resource is one published catalog entry.
type Resource struct {
	ID            string    `db:"id"             json:"id"`
	Name          string    `db:"name"           json:"name"`
	CategoryID    *string   `db:"category_id"    json:"category_id"`
	CategoryLabel *string   `db:"category_label" json:"category_label"`
	Logo          *string   `db:"logo"           json:"logo"`
	URL           string    `db:"url"            json:"url"`
	Description   string    `db:"description"    json:"description"`
	IsFeatured    bool      `db:"is_featured"    json:"is_featured"`
	Views         int       `db:"views"          json:"views"`
	CreatedAt     time.Time `db:"created_at"     json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"     json:"updated_at"`
}

// CreateResourceInput carries the admin-supplied fields for a new entry.
type CreateResourceInput struct {
	Name        string
	CategoryID  string
	Logo        *string
	URL         string
	Description string
	IsFeatured  bool
}

// UpdateResourceInput is a partial field set; nil pointers are untouched.
type UpdateResourceInput struct {
	Name        *string
	CategoryID  *string
	Logo        *string
	URL         *string
	Description *string
	IsFeatured  *bool
}

const resourceColumns = `
        r.id, r.name, r.category_id, c.label AS category_label,
        r.logo, r.url, r.description, r.is_featured, r.views,
        r.created_at, r.updated_at`

// ListResources returns one page ordered by creation time descending,
// optionally filtered to a category.  The two shapes are separate fixed
// statements rather than an assembled WHERE clause.
func ListResources(ctx context.Context, db *sqlx.DB, categoryID string, page int) ([]Resource, Pagination, error) {
	var (
		total int
		err   error
	)
	if categoryID == "" {
		err = db.GetContext(ctx, &total, `SELECT COUNT(*) FROM resources`)
	} else {
		err = db.GetContext(ctx, &total,
			`SELECT COUNT(*) FROM resources WHERE category_id = ?`, categoryID)
	}
	if err != nil {
		return nil, Pagination{}, err
	}
	offset, p := paginate(total, page, ResourcePageSize)

	const listAll = `
        SELECT` + resourceColumns + `
        FROM   resources r
        LEFT JOIN categories c ON c.id = r.category_id
        ORDER  BY r.created_at DESC
        LIMIT  ? OFFSET ?`

	const listByCategory = `
        SELECT` + resourceColumns + `
        FROM   resources r
        LEFT JOIN categories c ON c.id = r.category_id
        WHERE  r.category_id = ?
        ORDER  BY r.created_at DESC
        LIMIT  ? OFFSET ?`

	rows := make([]Resource, 0, ResourcePageSize)
	if categoryID == "" {
		err = db.SelectContext(ctx, &rows, listAll, ResourcePageSize, offset)
	} else {
		err = db.SelectContext(ctx, &rows, listByCategory, categoryID, ResourcePageSize, offset)
	}
	if err != nil {
		return nil, Pagination{}, err
	}
	return rows, p, nil
}

// GetResource fetches a single resource or ErrNotFound.
func GetResource(ctx context.Context, db *sqlx.DB, id string) (*Resource, error) {
	const q = `
        SELECT` + resourceColumns + `
        FROM   resources r
        LEFT JOIN categories c ON c.id = r.category_id
        WHERE  r.id = ?`

	var res Resource
	if err := db.GetContext(ctx, &res, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &res, nil
}

// insertResource is shared by CreateResource and the submission-approval
// transaction.  ext is either the pool or an open transaction.
func insertResource(ctx context.Context, ext sqlx.ExtContext, id string, in CreateResourceInput) error {
	const ins = `
        INSERT INTO resources
               (id, name, category_id, logo, url, description, is_featured,
                views, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, 0, NOW(), NOW())`
	_, err := ext.ExecContext(ctx, ins,
		id, in.Name, nullIfEmpty(in.CategoryID), in.Logo, in.URL,
		in.Description, in.IsFeatured)
	return err
}

// CreateResource inserts a new catalog entry and returns the stored row.
// A name collision surfaces as ErrDuplicate.
func CreateResource(ctx context.Context, db *sqlx.DB, in CreateResourceInput) (*Resource, error) {
	var exists int
	if err := db.GetContext(ctx, &exists,
		`SELECT COUNT(*) FROM resources WHERE name = ?`, in.Name); err != nil {
		return nil, err
	}
	if exists > 0 {
		return nil, ErrDuplicate
	}

	id := newID("res")
	if err := insertResource(ctx, db, id, in); err != nil {
		if isDupKey(err) {
			return nil, ErrDuplicate
		}
		if isFKViolation(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return GetResource(ctx, db, id)
}

// UpdateResource applies a partial field set and returns the full updated
// row.  When a new name is supplied it is re-checked against other rows.
func UpdateResource(ctx context.Context, db *sqlx.DB, id string, in UpdateResourceInput) (*Resource, error) {
	if in.Name != nil {
		var exists int
		const dupQ = `SELECT COUNT(*) FROM resources WHERE name = ? AND id != ?`
		if err := db.GetContext(ctx, &exists, dupQ, *in.Name, id); err != nil {
			return nil, err
		}
		if exists > 0 {
			return nil, ErrDuplicate
		}
	}

	const upd = `
        UPDATE resources
        SET    name        = COALESCE(?, name),
               category_id = COALESCE(?, category_id),
               logo        = COALESCE(?, logo),
               url         = COALESCE(?, url),
               description = COALESCE(?, description),
               is_featured = COALESCE(?, is_featured),
               updated_at  = NOW()
        WHERE  id = ?`
	if _, err := db.ExecContext(ctx, upd,
		in.Name, in.CategoryID, in.Logo, in.URL, in.Description, in.IsFeatured,
		id); err != nil {
		if isDupKey(err) {
			return nil, ErrDuplicate
		}
		if isFKViolation(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return GetResource(ctx, db, id)
}

// DeleteResource removes a catalog entry and returns the stored logo path
// (empty when none) so the handler can clean up the uploaded file.
func DeleteResource(ctx context.Context, db *sqlx.DB, id string) (logo string, err error) {
	var stored sql.NullString
	if err := db.GetContext(ctx, &stored,
		`SELECT logo FROM resources WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}

	if _, err := db.ExecContext(ctx, `DELETE FROM resources WHERE id = ?`, id); err != nil {
		return "", err
	}
	return stored.String, nil
}

// nullIfEmpty maps "" to a NULL column value.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
