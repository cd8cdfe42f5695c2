// internal/store/categories.go
//
// Category repository.
//
// Categories carry a human label and a URL slug, both unique.  The
// derived resource_count is computed per row with a correlated subquery
// so list responses never need a second round trip.  Deletion is blocked
// while any resource still references the category.

package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// CategoryPageSize is the fixed page window for GET /categories.
const CategoryPageSize = 50

// Category is one catalog grouping.
type Category struct {
	ID            string    `db:"id"             json:"id"`
	Label         string    `db:"label"          json:"label"`
	Slug          string    `db:"slug"           json:"slug"`
	ResourceCount int       `db:"resource_count" json:"resource_count"`
	CreatedAt     time.Time `db:"created_at"     json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"     json:"updated_at"`
}

const categoryColumns = `
        c.id, c.label, c.slug, c.created_at, c.updated_at,
        (SELECT COUNT(*) FROM resources r WHERE r.category_id = c.id) AS resource_count`

// ListCategories returns one page ordered by label ascending.
func ListCategories(ctx context.Context, db *sqlx.DB, page int) ([]Category, Pagination, error) {
	var total int
	if err := db.GetContext(ctx, &total, `SELECT COUNT(*) FROM categories`); err != nil {
		return nil, Pagination{}, err
	}
	offset, p := paginate(total, page, CategoryPageSize)

	const q = `
        SELECT` + categoryColumns + `
        FROM   categories c
        ORDER  BY c.label ASC
        LIMIT  ? OFFSET ?`

	rows := make([]Category, 0, CategoryPageSize)
	if err := db.SelectContext(ctx, &rows, q, CategoryPageSize, offset); err != nil {
		return nil, Pagination{}, err
	}
	return rows, p, nil
}

// GetCategory fetches a single category or ErrNotFound.
func GetCategory(ctx context.Context, db *sqlx.DB, id string) (*Category, error) {
	const q = `
        SELECT` + categoryColumns + `
        FROM   categories c
        WHERE  c.id = ?`

	var c Category
	if err := db.GetContext(ctx, &c, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// CreateCategory inserts a new category derived from label and returns the
// stored row.  Label and slug collisions surface as ErrDuplicate.
func CreateCategory(ctx context.Context, db *sqlx.DB, label string) (*Category, error) {
	slug := MakeSlug(label)

	var exists int
	const dupQ = `SELECT COUNT(*) FROM categories WHERE label = ? OR slug = ?`
	if err := db.GetContext(ctx, &exists, dupQ, label, slug); err != nil {
		return nil, err
	}
	if exists > 0 {
		return nil, ErrDuplicate
	}

	id := newID("cat")
	const ins = `
        INSERT INTO categories (id, label, slug, created_at, updated_at)
        VALUES (?, ?, ?, NOW(), NOW())`
	if _, err := db.ExecContext(ctx, ins, id, label, slug); err != nil {
		if isDupKey(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}

	return GetCategory(ctx, db, id)
}

// UpdateCategory renames a category.  The label and derived slug are
// re-checked for uniqueness against every other row before the write.
func UpdateCategory(ctx context.Context, db *sqlx.DB, id, label string) (*Category, error) {
	slug := MakeSlug(label)

	var exists int
	const dupQ = `
        SELECT COUNT(*) FROM categories
        WHERE  (label = ? OR slug = ?) AND id != ?`
	if err := db.GetContext(ctx, &exists, dupQ, label, slug, id); err != nil {
		return nil, err
	}
	if exists > 0 {
		return nil, ErrDuplicate
	}

	const upd = `
        UPDATE categories
        SET    label = ?, slug = ?, updated_at = NOW()
        WHERE  id = ?`
	res, err := db.ExecContext(ctx, upd, label, slug, id)
	if err != nil {
		if isDupKey(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Distinguish "absent" from "unchanged label".
		if _, err := GetCategory(ctx, db, id); err != nil {
			return nil, err
		}
	}

	return GetCategory(ctx, db, id)
}

// DeleteCategory removes a category.  ErrCategoryInUse while resources
// still reference it; ErrNotFound when the id is absent.
func DeleteCategory(ctx context.Context, db *sqlx.DB, id string) error {
	var inUse int
	if err := db.GetContext(ctx, &inUse,
		`SELECT COUNT(*) FROM resources WHERE category_id = ?`, id); err != nil {
		return err
	}
	if inUse > 0 {
		return ErrCategoryInUse
	}

	res, err := db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
