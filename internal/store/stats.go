// internal/store/stats.go
//
// Page-view tracking and the admin analytics queries behind GET /stats.
//
// Context
// -------
// Each page_stats row counts views for exactly one resource or one
// category.  The columns resource_id and category_id are both nullable
// and each carries a UNIQUE index, which lets view tracking be a single
// atomic `INSERT … ON DUPLICATE KEY UPDATE view_count = view_count + 1`.
// Concurrent calls therefore never lose an increment—there is no
// read-then-write anywhere on this path.
//
// The polymorphism (resource vs category) is a tagged StatType choosing
// between fixed statements.  Nothing from the request is ever spliced
// into SQL text.

package store

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// StatType tags which kind of page a view belongs to.
type StatType string

// StatType variants.
const (
	StatResource StatType = "resource"
	StatCategory StatType = "category"
)

// ValidStatType reports whether t is a recognised variant.
func ValidStatType(t StatType) bool {
	return t == StatResource || t == StatCategory
}

// TrackView records one view of the given resource or category.  For
// resources the denormalised resources.views column is incremented in
// the same transaction.
func TrackView(ctx context.Context, db *sqlx.DB, t StatType, id string) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const upsertResource = `
        INSERT INTO page_stats
               (id, resource_id, view_count, last_viewed, created_at, updated_at)
        VALUES (?, ?, 1, NOW(), NOW(), NOW())
        ON DUPLICATE KEY UPDATE
               view_count  = view_count + 1,
               last_viewed = NOW(),
               updated_at  = NOW()`

	const upsertCategory = `
        INSERT INTO page_stats
               (id, category_id, view_count, last_viewed, created_at, updated_at)
        VALUES (?, ?, 1, NOW(), NOW(), NOW())
        ON DUPLICATE KEY UPDATE
               view_count  = view_count + 1,
               last_viewed = NOW(),
               updated_at  = NOW()`

	switch t {
	case StatResource:
		if _, err := tx.ExecContext(ctx, upsertResource, newID("stats"), id); err != nil {
			if isFKViolation(err) {
				return ErrNotFound
			}
			return err
		}
		// Mirror into the denormalised per-resource counter.
		if _, err := tx.ExecContext(ctx,
			`UPDATE resources SET views = views + 1 WHERE id = ?`, id); err != nil {
			return err
		}
	case StatCategory:
		if _, err := tx.ExecContext(ctx, upsertCategory, newID("stats"), id); err != nil {
			if isFKViolation(err) {
				return ErrNotFound
			}
			return err
		}
	}

	return tx.Commit()
}

// periodHours maps the query-string period onto a trailing window.  The
// default is seven days, matching the upstream behaviour for unknown
// values.
func periodHours(period string) int {
	switch period {
	case "24hours":
		return 24
	case "30days":
		return 30 * 24
	default: // "7days" and anything unrecognised
		return 7 * 24
	}
}

// TimelinePoint is one hourly bucket of views for a single item.
type TimelinePoint struct {
	Timestamp string `db:"timestamp" json:"timestamp"`
	ItemID    string `db:"item_id"   json:"item_id"`
	Views     int    `db:"views"     json:"views"`
}

// CombinedPoint is one hourly bucket split by page kind.
type CombinedPoint struct {
	Timestamp     string `db:"timestamp"      json:"timestamp"`
	ResourceViews int    `db:"resource_views" json:"resource_views"`
	CategoryViews int    `db:"category_views" json:"category_views"`
}

// TopItem is one row of the most-viewed ranking.
type TopItem struct {
	ID         string `db:"id"          json:"id"`
	Name       string `db:"name"        json:"name"`
	TotalViews int    `db:"total_views" json:"total_views"`
}

// Timeline returns hourly view sums for one page kind over the period.
func Timeline(ctx context.Context, db *sqlx.DB, t StatType, period string) ([]TimelinePoint, error) {
	const byResource = `
        SELECT DATE_FORMAT(last_viewed, '%Y-%m-%d %H:00:00') AS timestamp,
               resource_id                                   AS item_id,
               SUM(view_count)                               AS views
        FROM   page_stats
        WHERE  resource_id IS NOT NULL
          AND  last_viewed >= NOW() - INTERVAL ? HOUR
        GROUP  BY resource_id, DATE_FORMAT(last_viewed, '%Y-%m-%d %H:00:00')
        ORDER  BY timestamp DESC`

	const byCategory = `
        SELECT DATE_FORMAT(last_viewed, '%Y-%m-%d %H:00:00') AS timestamp,
               category_id                                   AS item_id,
               SUM(view_count)                               AS views
        FROM   page_stats
        WHERE  category_id IS NOT NULL
          AND  last_viewed >= NOW() - INTERVAL ? HOUR
        GROUP  BY category_id, DATE_FORMAT(last_viewed, '%Y-%m-%d %H:00:00')
        ORDER  BY timestamp DESC`

	q := byResource
	if t == StatCategory {
		q = byCategory
	}

	rows := make([]TimelinePoint, 0, 32)
	if err := db.SelectContext(ctx, &rows, q, periodHours(period)); err != nil {
		return nil, err
	}
	return rows, nil
}

// CombinedTimeline returns hourly view sums split by page kind.
func CombinedTimeline(ctx context.Context, db *sqlx.DB, period string) ([]CombinedPoint, error) {
	const q = `
        SELECT DATE_FORMAT(last_viewed, '%Y-%m-%d %H:00:00')                     AS timestamp,
               SUM(CASE WHEN resource_id IS NOT NULL THEN view_count ELSE 0 END) AS resource_views,
               SUM(CASE WHEN category_id IS NOT NULL THEN view_count ELSE 0 END) AS category_views
        FROM   page_stats
        WHERE  last_viewed >= NOW() - INTERVAL ? HOUR
        GROUP  BY DATE_FORMAT(last_viewed, '%Y-%m-%d %H:00:00')
        ORDER  BY timestamp DESC`

	rows := make([]CombinedPoint, 0, 32)
	if err := db.SelectContext(ctx, &rows, q, periodHours(period)); err != nil {
		return nil, err
	}
	return rows, nil
}

// TopViewed returns the ten most-viewed items of one page kind.
func TopViewed(ctx context.Context, db *sqlx.DB, t StatType) ([]TopItem, error) {
	const byResource = `
        SELECT ps.resource_id       AS id,
               r.name               AS name,
               SUM(ps.view_count)   AS total_views
        FROM   page_stats ps
        JOIN   resources r ON r.id = ps.resource_id
        WHERE  ps.resource_id IS NOT NULL
        GROUP  BY ps.resource_id, r.name
        ORDER  BY total_views DESC
        LIMIT  10`

	const byCategory = `
        SELECT ps.category_id       AS id,
               c.label              AS name,
               SUM(ps.view_count)   AS total_views
        FROM   page_stats ps
        JOIN   categories c ON c.id = ps.category_id
        WHERE  ps.category_id IS NOT NULL
        GROUP  BY ps.category_id, c.label
        ORDER  BY total_views DESC
        LIMIT  10`

	q := byResource
	if t == StatCategory {
		q = byCategory
	}

	rows := make([]TopItem, 0, 10)
	if err := db.SelectContext(ctx, &rows, q); err != nil {
		return nil, err
	}
	return rows, nil
}
