// internal/store/ratelimit.go
//
// Per-IP sliding-window counters for the anonymous endpoints.
//
// The window is the trailing hour of the entity's own table—no separate
// bookkeeping, no in-process state.  A visitor may file at most three
// submissions and five contact messages per hour from one address.

package store

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Hourly ceilings per source IP.
const (
	SubmissionHourlyLimit = 3
	MessageHourlyLimit    = 5
)

// CountRecentSubmissions returns how many submissions ip filed within
// the trailing hour.
func CountRecentSubmissions(ctx context.Context, db *sqlx.DB, ip string) (int, error) {
	const q = `
        SELECT COUNT(*)
        FROM   submissions
        WHERE  ip_address = ?
          AND  created_at > NOW() - INTERVAL 1 HOUR`
	var n int
	err := db.GetContext(ctx, &n, q, ip)
	return n, err
}

// CountRecentMessages returns how many messages ip sent within the
// trailing hour.
func CountRecentMessages(ctx context.Context, db *sqlx.DB, ip string) (int, error) {
	const q = `
        SELECT COUNT(*)
        FROM   messages
        WHERE  ip_address = ?
          AND  created_at > NOW() - INTERVAL 1 HOUR`
	var n int
	err := db.GetContext(ctx, &n, q, ip)
	return n, err
}
