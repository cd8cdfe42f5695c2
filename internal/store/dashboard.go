// internal/store/dashboard.go
//
// The admin dashboard aggregate behind GET /dashboard.
//
// One call fans out into a dozen small read-only queries: table totals,
// pending/unread subsets, the five most recent rows of each feed table,
// per-category and per-status distributions, and a per-day resource
// count for the trailing week.  The three "recent" lists are merged into
// one activity feed sorted by timestamp descending and truncated to ten
// entries.
//
// The handler collapses concurrent dashboard loads with singleflight, so
// this function itself stays a plain sequential fan-out.

package store

import (
	"context"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
)

// CategoryCount is one row of the per-category distribution.
type CategoryCount struct {
	Label string `db:"label" json:"label"`
	Count int    `db:"count" json:"count"`
}

// StatusCount is one row of a per-status distribution.
type StatusCount struct {
	Status string `db:"status" json:"status"`
	Count  int    `db:"count"  json:"count"`
}

// DailyCount is one day of resource creations.
type DailyCount struct {
	Date  string `db:"date"  json:"date"`
	Count int    `db:"count" json:"count"`
}

// ActivityEntry is one row of the merged recent-activity feed.
type ActivityEntry struct {
	Type      string    `json:"type"` // submission | message | resource
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Status    string    `json:"status,omitempty"`
	Category  string    `json:"category,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// DashboardStats is the full GET /dashboard payload.
type DashboardStats struct {
	TotalResources     int             `json:"total_resources"`
	TotalCategories    int             `json:"total_categories"`
	TotalSubmissions   int             `json:"total_submissions"`
	PendingSubmissions int             `json:"pending_submissions"`
	TotalMessages      int             `json:"total_messages"`
	UnreadMessages     int             `json:"unread_messages"`
	RecentSubmissions  []Submission    `json:"recent_submissions"`
	RecentMessages     []Message       `json:"recent_messages"`
	RecentResources    []Resource      `json:"recent_resources"`
	CategoryCounts     []CategoryCount `json:"category_distribution"`
	SubmissionStatus   []StatusCount   `json:"submission_status"`
	MessageStatus      []StatusCount   `json:"message_status"`
	RecentActivity     []ActivityEntry `json:"recent_activity"`
	DailyResources     []DailyCount    `json:"daily_resources"`
}

// Dashboard assembles the full aggregate in one store round-trip burst.
func Dashboard(ctx context.Context, db *sqlx.DB) (*DashboardStats, error) {
	var stats DashboardStats

	counts := []struct {
		dst *int
		q   string
	}{
		{&stats.TotalResources, `SELECT COUNT(*) FROM resources`},
		{&stats.TotalCategories, `SELECT COUNT(*) FROM categories`},
		{&stats.TotalSubmissions, `SELECT COUNT(*) FROM submissions`},
		{&stats.PendingSubmissions, `SELECT COUNT(*) FROM submissions WHERE status = 'pending'`},
		{&stats.TotalMessages, `SELECT COUNT(*) FROM messages`},
		{&stats.UnreadMessages, `SELECT COUNT(*) FROM messages WHERE status = 'unread'`},
	}
	for _, c := range counts {
		if err := db.GetContext(ctx, c.dst, c.q); err != nil {
			return nil, err
		}
	}

	const recentSubs = `
        SELECT *
        FROM   submissions
        ORDER  BY created_at DESC
        LIMIT  5`
	if err := db.SelectContext(ctx, &stats.RecentSubmissions, recentSubs); err != nil {
		return nil, err
	}

	const recentMsgs = `
        SELECT *
        FROM   messages
        ORDER  BY created_at DESC
        LIMIT  5`
	if err := db.SelectContext(ctx, &stats.RecentMessages, recentMsgs); err != nil {
		return nil, err
	}

	const recentRes = `
        SELECT` + resourceColumns + `
        FROM   resources r
        LEFT JOIN categories c ON c.id = r.category_id
        ORDER  BY r.created_at DESC
        LIMIT  5`
	if err := db.SelectContext(ctx, &stats.RecentResources, recentRes); err != nil {
		return nil, err
	}

	const catDist = `
        SELECT c.label        AS label,
               COUNT(r.id)    AS count
        FROM   categories c
        LEFT JOIN resources r ON r.category_id = c.id
        GROUP  BY c.id, c.label
        ORDER  BY count DESC`
	if err := db.SelectContext(ctx, &stats.CategoryCounts, catDist); err != nil {
		return nil, err
	}

	const subStatus = `
        SELECT status, COUNT(*) AS count
        FROM   submissions
        GROUP  BY status`
	if err := db.SelectContext(ctx, &stats.SubmissionStatus, subStatus); err != nil {
		return nil, err
	}

	const msgStatus = `
        SELECT status, COUNT(*) AS count
        FROM   messages
        GROUP  BY status`
	if err := db.SelectContext(ctx, &stats.MessageStatus, msgStatus); err != nil {
		return nil, err
	}

	const daily = `
        SELECT DATE_FORMAT(created_at, '%Y-%m-%d') AS date,
               COUNT(*)                            AS count
        FROM   resources
        WHERE  created_at >= CURDATE() - INTERVAL 7 DAY
        GROUP  BY DATE_FORMAT(created_at, '%Y-%m-%d')
        ORDER  BY date DESC`
	if err := db.SelectContext(ctx, &stats.DailyResources, daily); err != nil {
		return nil, err
	}

	stats.RecentActivity = mergeActivity(
		stats.RecentSubmissions, stats.RecentMessages, stats.RecentResources)

	return &stats, nil
}

// mergeActivity folds the three recent lists into one feed, newest
// first, capped at ten entries.
func mergeActivity(subs []Submission, msgs []Message, res []Resource) []ActivityEntry {
	feed := make([]ActivityEntry, 0, len(subs)+len(msgs)+len(res))

	for _, s := range subs {
		feed = append(feed, ActivityEntry{
			Type:      "submission",
			ID:        s.ID,
			Title:     s.ToolName,
			Status:    s.Status,
			Timestamp: s.CreatedAt,
		})
	}
	for _, m := range msgs {
		feed = append(feed, ActivityEntry{
			Type:      "message",
			ID:        m.ID,
			Title:     "Message from " + m.Name,
			Status:    m.Status,
			Timestamp: m.CreatedAt,
		})
	}
	for _, r := range res {
		entry := ActivityEntry{
			Type:      "resource",
			ID:        r.ID,
			Title:     r.Name,
			Timestamp: r.CreatedAt,
		}
		if r.CategoryLabel != nil {
			entry.Category = *r.CategoryLabel
		}
		feed = append(feed, entry)
	}

	sort.SliceStable(feed, func(i, j int) bool {
		return feed[i].Timestamp.After(feed[j].Timestamp)
	})

	if len(feed) > 10 {
		feed = feed[:10]
	}
	return feed
}
