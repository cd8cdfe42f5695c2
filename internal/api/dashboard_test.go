// internal/api/dashboard_test.go
//
// The dashboard flight must keep running after the request that started
// it goes away; a canceled request context must not surface as an error
// to the waiters it serves.

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/rigazamy/apikit/internal/session"
	"github.com/rigazamy/apikit/internal/upload"
)

// newTestHandler builds a Handler over sqlmock without the router, for
// tests that call handler methods directly.
func newTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { raw.Close() })

	db := sqlx.NewDb(raw, "sqlmock")
	sessions := session.NewStore(db,
		[]byte("0123456789abcdef0123456789abcdef"), time.Hour, false)
	return New(db, sessions, upload.New(t.TempDir()), "apikit_admin"), mock
}

func expectDashboardQueries(mock sqlmock.Sqlmock) {
	one := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(1)
	}
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM resources`)).
		WillReturnRows(one())
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM categories`)).
		WillReturnRows(one())
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM submissions`)).
		WillReturnRows(one())
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE status = 'pending'`)).
		WillReturnRows(one())
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM messages`)).
		WillReturnRows(one())
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE status = 'unread'`)).
		WillReturnRows(one())

	mock.ExpectQuery(regexp.QuoteMeta(`FROM   submissions`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tool_name", "status", "created_at"}))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM   messages`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "status", "created_at"}))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM   resources r`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at"}))

	mock.ExpectQuery(regexp.QuoteMeta(`LEFT JOIN resources r ON r.category_id = c.id`)).
		WillReturnRows(sqlmock.NewRows([]string{"label", "count"}))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status, COUNT(*) AS count`)).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT status, COUNT(*) AS count`)).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}))
	mock.ExpectQuery(regexp.QuoteMeta(`CURDATE() - INTERVAL 7 DAY`)).
		WillReturnRows(sqlmock.NewRows([]string{"date", "count"}))
}

func TestDashboardSurvivesCallerDisconnect(t *testing.T) {
	h, mock := newTestHandler(t)
	expectDashboardQueries(mock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	h.Dashboard(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	var env testEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if !env.Success {
		t.Fatalf("success = false: %s", rec.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}
