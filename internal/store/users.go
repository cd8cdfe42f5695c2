// internal/store/users.go
//
// Admin-user repository.
//
// Two invariants live here rather than in the handlers because they are
// referential rules about stored state: at least one super_admin must
// exist at all times (enforced on delete), and initial setup may run
// only while the table is empty (re-checked inside the setup
// transaction, independent of the handler's earlier probe).

package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// Admin roles.
const (
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// ValidRole reports whether r is a recognised role value.
func ValidRole(r string) bool { return r == RoleAdmin || r == RoleSuperAdmin }

// AdminUser is one back-office account.  PasswordHash never serialises.
type AdminUser struct {
	ID           string     `db:"id"            json:"id"`
	Name         string     `db:"name"          json:"name"`
	Email        string     `db:"email"         json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         string     `db:"role"          json:"role"`
	LastLogin    *time.Time `db:"last_login"    json:"last_login"`
	CreatedAt    time.Time  `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"    json:"updated_at"`
}

// CountAdmins returns the total number of admin accounts.  Zero means
// the system is still in initial-setup mode.
func CountAdmins(ctx context.Context, db *sqlx.DB) (int, error) {
	var n int
	err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM admin_users`)
	return n, err
}

// GetUser fetches one account by id or ErrNotFound.
func GetUser(ctx context.Context, db *sqlx.DB, id string) (*AdminUser, error) {
	var u AdminUser
	if err := db.GetContext(ctx, &u,
		`SELECT * FROM admin_users WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetUserByEmail fetches one account by email, hash included, for the
// login credential check.
func GetUserByEmail(ctx context.Context, db *sqlx.DB, email string) (*AdminUser, error) {
	var u AdminUser
	if err := db.GetContext(ctx, &u,
		`SELECT * FROM admin_users WHERE email = ?`, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// ListUsers returns every account, newest first.  The admin roster is
// small enough that pagination would be noise.
func ListUsers(ctx context.Context, db *sqlx.DB) ([]AdminUser, error) {
	const q = `
        SELECT *
        FROM   admin_users
        ORDER  BY created_at DESC`
	var rows []AdminUser
	if err := db.SelectContext(ctx, &rows, q); err != nil {
		return nil, err
	}
	return rows, nil
}

// CreateUser inserts an explicitly-created admin account.  The caller
// hashes the password; email collisions surface as ErrDuplicate.
func CreateUser(ctx context.Context, db *sqlx.DB, name, email, passwordHash, role string) (*AdminUser, error) {
	var exists int
	if err := db.GetContext(ctx, &exists,
		`SELECT COUNT(*) FROM admin_users WHERE email = ?`, email); err != nil {
		return nil, err
	}
	if exists > 0 {
		return nil, ErrDuplicate
	}

	id := newID("usr")
	const ins = `
        INSERT INTO admin_users
               (id, name, email, password_hash, role, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, NOW(), NOW())`
	if _, err := db.ExecContext(ctx, ins, id, name, email, passwordHash, role); err != nil {
		if isDupKey(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return GetUser(ctx, db, id)
}

// CreateInitialAdmin creates the very first account with role
// super_admin.  The row count is re-checked inside the transaction so a
// racing second setup call loses regardless of what its handler saw.
func CreateInitialAdmin(ctx context.Context, db *sqlx.DB, name, email, passwordHash string) (*AdminUser, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var n int
	if err := tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM admin_users`); err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, ErrSetupDone
	}

	id := newID("usr")
	const ins = `
        INSERT INTO admin_users
               (id, name, email, password_hash, role, created_at, updated_at)
        VALUES (?, ?, ?, ?, 'super_admin', NOW(), NOW())`
	if _, err := tx.ExecContext(ctx, ins, id, name, email, passwordHash); err != nil {
		if isDupKey(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}

	var u AdminUser
	if err := tx.GetContext(ctx, &u,
		`SELECT * FROM admin_users WHERE id = ?`, id); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateUser rewrites name, email, and role.  The email is re-checked
// against every other account before the write.
func UpdateUser(ctx context.Context, db *sqlx.DB, id, name, email, role string) (*AdminUser, error) {
	var exists int
	const dupQ = `SELECT COUNT(*) FROM admin_users WHERE email = ? AND id != ?`
	if err := db.GetContext(ctx, &exists, dupQ, email, id); err != nil {
		return nil, err
	}
	if exists > 0 {
		return nil, ErrDuplicate
	}

	const upd = `
        UPDATE admin_users
        SET    name = ?, email = ?, role = ?, updated_at = NOW()
        WHERE  id = ?`
	if _, err := db.ExecContext(ctx, upd, name, email, role, id); err != nil {
		if isDupKey(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return GetUser(ctx, db, id)
}

// DeleteUser removes an account.  Self-deletion and deleting the last
// remaining super_admin are refused.
func DeleteUser(ctx context.Context, db *sqlx.DB, id, requesterID string) error {
	if id == requesterID {
		return ErrSelfDelete
	}

	target, err := GetUser(ctx, db, id)
	if err != nil {
		return err
	}

	if target.Role == RoleSuperAdmin {
		var others int
		const q = `
            SELECT COUNT(*) FROM admin_users
            WHERE  role = 'super_admin' AND id != ?`
		if err := db.GetContext(ctx, &others, q, id); err != nil {
			return err
		}
		if others == 0 {
			return ErrLastSuperAdmin
		}
	}

	res, err := db.ExecContext(ctx, `DELETE FROM admin_users WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchLastLogin stamps a successful credential check.
func TouchLastLogin(ctx context.Context, db *sqlx.DB, id string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE admin_users SET last_login = NOW() WHERE id = ?`, id)
	return err
}
