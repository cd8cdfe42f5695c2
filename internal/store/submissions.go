// internal/store/submissions.go
//
// Submission repository.
//
// Visitors propose tools anonymously; admins move each submission from
// pending to approved or rejected.  Approval is a compound operation:
// the status write and the resulting resource insert run inside one
// transaction, so "a resource exists for every approved submission"
// holds strictly.  The upstream implementation treated the insert as a
// best-effort side effect; DESIGN.md records why we tightened it.

package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// SubmissionPageSize is the fixed page window for GET /submissions.
const SubmissionPageSize = 10

// Submission statuses.
const (
	SubmissionPending  = "pending"
	SubmissionApproved = "approved"
	SubmissionRejected = "rejected"
)

// Submission is one visitor-proposed tool.
type Submission struct {
	ID          string    `db:"id"          json:"id"`
	Name        string    `db:"name"        json:"name"`
	Email       string    `db:"email"       json:"email"`
	ToolName    string    `db:"tool_name"   json:"tool_name"`
	Description string    `db:"description" json:"description"`
	APILink     string    `db:"api_link"    json:"api_link"`
	Status      string    `db:"status"      json:"status"`
	AdminNotes  *string   `db:"admin_notes" json:"admin_notes"`
	IPAddress   string    `db:"ip_address"  json:"ip_address"`
	Country     string    `db:"country"     json:"country"`
	CreatedAt   time.Time `db:"created_at"  json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"  json:"updated_at"`
}

// ValidSubmissionStatus reports whether s is a recognised status value.
func ValidSubmissionStatus(s string) bool {
	return s == SubmissionPending || s == SubmissionApproved || s == SubmissionRejected
}

// CreateSubmissionInput carries the visitor-supplied fields plus the
// request metadata recorded for moderation.
type CreateSubmissionInput struct {
	Name        string
	Email       string
	ToolName    string
	Description string
	APILink     string
	IPAddress   string
	Country     string
}

// UpdateSubmissionInput is the admin-side partial update.  CategoryID is
// only consulted when Status transitions to approved; it becomes the
// category of the created resource.
type UpdateSubmissionInput struct {
	Status     *string
	AdminNotes *string
	CategoryID *string
}

// ListSubmissions returns one page ordered by creation time descending,
// optionally filtered by status.
func ListSubmissions(ctx context.Context, db *sqlx.DB, status string, page int) ([]Submission, Pagination, error) {
	var (
		total int
		err   error
	)
	if status == "" {
		err = db.GetContext(ctx, &total, `SELECT COUNT(*) FROM submissions`)
	} else {
		err = db.GetContext(ctx, &total,
			`SELECT COUNT(*) FROM submissions WHERE status = ?`, status)
	}
	if err != nil {
		return nil, Pagination{}, err
	}
	offset, p := paginate(total, page, SubmissionPageSize)

	const listAll = `
        SELECT *
        FROM   submissions
        ORDER  BY created_at DESC
        LIMIT  ? OFFSET ?`

	const listByStatus = `
        SELECT *
        FROM   submissions
        WHERE  status = ?
        ORDER  BY created_at DESC
        LIMIT  ? OFFSET ?`

	rows := make([]Submission, 0, SubmissionPageSize)
	if status == "" {
		err = db.SelectContext(ctx, &rows, listAll, SubmissionPageSize, offset)
	} else {
		err = db.SelectContext(ctx, &rows, listByStatus, status, SubmissionPageSize, offset)
	}
	if err != nil {
		return nil, Pagination{}, err
	}
	return rows, p, nil
}

// GetSubmission fetches a single submission or ErrNotFound.
func GetSubmission(ctx context.Context, db *sqlx.DB, id string) (*Submission, error) {
	var s Submission
	if err := db.GetContext(ctx, &s,
		`SELECT * FROM submissions WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// CreateSubmission inserts a pending submission and returns the stored row.
// The per-IP rate ceiling is enforced by the handler via ratelimit.go.
func CreateSubmission(ctx context.Context, db *sqlx.DB, in CreateSubmissionInput) (*Submission, error) {
	id := newID("sub")
	const ins = `
        INSERT INTO submissions
               (id, name, email, tool_name, description, api_link,
                status, ip_address, country, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, 'pending', ?, ?, NOW(), NOW())`
	if _, err := db.ExecContext(ctx, ins,
		id, in.Name, in.Email, in.ToolName, in.Description, in.APILink,
		in.IPAddress, in.Country); err != nil {
		return nil, err
	}
	return GetSubmission(ctx, db, id)
}

// UpdateSubmission applies the partial update and, when the status moves
// to approved, creates the catalog resource in the same transaction.
// The updated submission row is returned.
func UpdateSubmission(ctx context.Context, db *sqlx.DB, id string, in UpdateSubmissionInput) (*Submission, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	const upd = `
        UPDATE submissions
        SET    status      = COALESCE(?, status),
               admin_notes = COALESCE(?, admin_notes),
               updated_at  = NOW()
        WHERE  id = ?`
	res, err := tx.ExecContext(ctx, upd, in.Status, in.AdminNotes, id)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports 0 affected rows for no-op updates too; probe.
		var exists int
		if err := tx.GetContext(ctx, &exists,
			`SELECT COUNT(*) FROM submissions WHERE id = ?`, id); err != nil {
			return nil, err
		}
		if exists == 0 {
			return nil, ErrNotFound
		}
	}

	var sub Submission
	if err := tx.GetContext(ctx, &sub,
		`SELECT * FROM submissions WHERE id = ?`, id); err != nil {
		return nil, err
	}

	if in.Status != nil && *in.Status == SubmissionApproved {
		categoryID := ""
		if in.CategoryID != nil {
			categoryID = *in.CategoryID
		}
		if err := insertResource(ctx, tx, newID("res"), CreateResourceInput{
			Name:        sub.ToolName,
			CategoryID:  categoryID,
			URL:         sub.APILink,
			Description: sub.Description,
		}); err != nil {
			if isDupKey(err) {
				return nil, ErrDuplicate
			}
			if isFKViolation(err) {
				// Admin-supplied category_id points at a missing row.
				return nil, ErrNotFound
			}
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &sub, nil
}

// DeleteSubmission removes a submission; ErrNotFound when absent.
func DeleteSubmission(ctx context.Context, db *sqlx.DB, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM submissions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
