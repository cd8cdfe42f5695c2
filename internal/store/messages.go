// internal/store/messages.go
//
// Contact-message repository.
//
// Messages arrive anonymously from the contact form and are worked
// through by admins (unread → read/replied).  The status values are
// advisory rather than a strict state machine; any recognised value may
// be written at any time.

package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// MessagePageSize is the fixed page window for GET /messages.
const MessagePageSize = 10

// Message statuses.
const (
	MessageUnread  = "unread"
	MessageRead    = "read"
	MessageReplied = "replied"
)

// Message is one contact-form entry.
type Message struct {
	ID         string    `db:"id"          json:"id"`
	Name       string    `db:"name"        json:"name"`
	Email      string    `db:"email"       json:"email"`
	Message    string    `db:"message"     json:"message"`
	Status     string    `db:"status"      json:"status"`
	AdminNotes *string   `db:"admin_notes" json:"admin_notes"`
	IPAddress  string    `db:"ip_address"  json:"ip_address"`
	Country    string    `db:"country"     json:"country"`
	CreatedAt  time.Time `db:"created_at"  json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"  json:"updated_at"`
}

// ValidMessageStatus reports whether s is a recognised status value.
func ValidMessageStatus(s string) bool {
	return s == MessageUnread || s == MessageRead || s == MessageReplied
}

// CreateMessageInput carries the visitor-supplied fields plus request
// metadata.
type CreateMessageInput struct {
	Name      string
	Email     string
	Message   string
	IPAddress string
	Country   string
}

// UpdateMessageInput is the admin-side partial update.
type UpdateMessageInput struct {
	Status     *string
	AdminNotes *string
}

// ListMessages returns one page ordered by creation time descending,
// optionally filtered by status.
func ListMessages(ctx context.Context, db *sqlx.DB, status string, page int) ([]Message, Pagination, error) {
	var (
		total int
		err   error
	)
	if status == "" {
		err = db.GetContext(ctx, &total, `SELECT COUNT(*) FROM messages`)
	} else {
		err = db.GetContext(ctx, &total,
			`SELECT COUNT(*) FROM messages WHERE status = ?`, status)
	}
	if err != nil {
		return nil, Pagination{}, err
	}
	offset, p := paginate(total, page, MessagePageSize)

	const listAll = `
        SELECT *
        FROM   messages
        ORDER  BY created_at DESC
        LIMIT  ? OFFSET ?`

	const listByStatus = `
        SELECT *
        FROM   messages
        WHERE  status = ?
        ORDER  BY created_at DESC
        LIMIT  ? OFFSET ?`

	rows := make([]Message, 0, MessagePageSize)
	if status == "" {
		err = db.SelectContext(ctx, &rows, listAll, MessagePageSize, offset)
	} else {
		err = db.SelectContext(ctx, &rows, listByStatus, status, MessagePageSize, offset)
	}
	if err != nil {
		return nil, Pagination{}, err
	}
	return rows, p, nil
}

// GetMessage fetches a single message or ErrNotFound.
func GetMessage(ctx context.Context, db *sqlx.DB, id string) (*Message, error) {
	var m Message
	if err := db.GetContext(ctx, &m,
		`SELECT * FROM messages WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// CreateMessage inserts an unread message and returns the stored row.
func CreateMessage(ctx context.Context, db *sqlx.DB, in CreateMessageInput) (*Message, error) {
	id := newID("msg")
	const ins = `
        INSERT INTO messages
               (id, name, email, message, status, ip_address, country,
                created_at, updated_at)
        VALUES (?, ?, ?, ?, 'unread', ?, ?, NOW(), NOW())`
	if _, err := db.ExecContext(ctx, ins,
		id, in.Name, in.Email, in.Message, in.IPAddress, in.Country); err != nil {
		return nil, err
	}
	return GetMessage(ctx, db, id)
}

// UpdateMessage applies the partial update and returns the full row.
func UpdateMessage(ctx context.Context, db *sqlx.DB, id string, in UpdateMessageInput) (*Message, error) {
	const upd = `
        UPDATE messages
        SET    status      = COALESCE(?, status),
               admin_notes = COALESCE(?, admin_notes),
               updated_at  = NOW()
        WHERE  id = ?`
	if _, err := db.ExecContext(ctx, upd, in.Status, in.AdminNotes, id); err != nil {
		return nil, err
	}
	return GetMessage(ctx, db, id)
}

// DeleteMessage removes a message; ErrNotFound when absent.
func DeleteMessage(ctx context.Context, db *sqlx.DB, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
