// internal/api/api_test.go
//
// Endpoint tests driven through the full router (middleware included)
// with sqlmock behind the store.
//
// Run: go test ./internal/api -v

package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/gorilla/securecookie"
	"github.com/jmoiron/sqlx"

	"github.com/rigazamy/apikit/internal/auth"
	"github.com/rigazamy/apikit/internal/session"
	"github.com/rigazamy/apikit/internal/upload"
)

// testEnvelope mirrors the response shape for assertions.
type testEnvelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Pagination *struct {
		Total       int `json:"total"`
		TotalPages  int `json:"total_pages"`
		CurrentPage int `json:"current_page"`
		PerPage     int `json:"per_page"`
	} `json:"pagination"`
}

// newTestRouter builds a full Handler + Router over a sqlmock pool.
func newTestRouter(t *testing.T) (http.Handler, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { raw.Close() })

	db := sqlx.NewDb(raw, "sqlmock")
	sessions := session.NewStore(db,
		[]byte("0123456789abcdef0123456789abcdef"), time.Hour, false)
	h := New(db, sessions, upload.New(t.TempDir()), "apikit_admin")
	return h.Router([]string{"http://localhost:5173"}, t.TempDir()), mock
}

func doJSON(t *testing.T, router http.Handler, method, target, body string) (*httptest.ResponseRecorder, testEnvelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env testEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %q)", err, rec.Body.String())
	}
	return rec, env
}

func TestGatedEndpointWithoutSession(t *testing.T) {
	router, mock := newTestRouter(t)

	rec, env := doJSON(t, router, http.MethodGet, "/submissions", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("code = %d, want 401", rec.Code)
	}
	if env.Success || env.Message != "Unauthorized" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected SQL: %v", err)
	}
}

func TestAuthStatusNeedsInitialSetup(t *testing.T) {
	router, mock := newTestRouter(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM admin_users`)).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(0))

	rec, env := doJSON(t, router, http.MethodGet, "/auth/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200", rec.Code)
	}

	var data struct {
		Authenticated     bool `json:"authenticated"`
		NeedsInitialSetup bool `json:"needsInitialSetup"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.Authenticated || !data.NeedsInitialSetup {
		t.Fatalf("unexpected status payload: %+v", data)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestCreateSubmissionRateLimited(t *testing.T) {
	router, mock := newTestRouter(t)

	// httptest.NewRequest stamps RemoteAddr 192.0.2.1:1234.
	mock.ExpectQuery(regexp.QuoteMeta(`created_at > NOW() - INTERVAL 1 HOUR`)).
		WithArgs("192.0.2.1").
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(3))

	body := `{"name":"Sam","email":"sam@example.com","tool_name":"Webhook Relay",` +
		`"description":"Forwards webhooks anywhere.","api_link":"https://relay.example.com"}`
	rec, env := doJSON(t, router, http.MethodPost, "/submissions", body)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("code = %d, want 429", rec.Code)
	}
	if env.Success {
		t.Fatalf("success = true on rate limit")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestCreateSubmissionValidation(t *testing.T) {
	router, mock := newTestRouter(t)

	body := `{"name":"Sam","email":"not-an-email","tool_name":"X",` +
		`"description":"d","api_link":"https://x.example.com"}`
	rec, env := doJSON(t, router, http.MethodPost, "/submissions", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("code = %d, want 400", rec.Code)
	}
	if env.Success {
		t.Fatal("success = true on validation failure")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected SQL: %v", err)
	}
}

func TestTrackViewSkipsCrawlers(t *testing.T) {
	router, mock := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/stats",
		strings.NewReader(`{"type":"resource","id":"res_1"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent",
		"Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200", rec.Code)
	}
	// The crawler response is indistinguishable from the real one, but no
	// SQL may have run.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected SQL: %v", err)
	}
}

// A view against a just-deleted resource trips the page_stats foreign
// key; the client should see 404, not 500.
func TestTrackViewDeletedResourceAnswers404(t *testing.T) {
	router, mock := newTestRouter(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`ON DUPLICATE KEY UPDATE`)).
		WithArgs(sqlmock.AnyArg(), "res_gone").
		WillReturnError(&mysql.MySQLError{Number: 1452, Message: "foreign key constraint fails"})
	mock.ExpectRollback()

	rec, env := doJSON(t, router, http.MethodPost, "/stats",
		`{"type":"resource","id":"res_gone"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("code = %d, want 404 (body %s)", rec.Code, rec.Body.String())
	}
	if env.Success || env.Message != "Not found" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestTrackViewInvalidType(t *testing.T) {
	router, _ := newTestRouter(t)

	rec, _ := doJSON(t, router, http.MethodPost, "/stats",
		`{"type":"page_stats; DROP TABLE","id":"res_1"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("code = %d, want 400", rec.Code)
	}
}

func TestListCategoriesEnvelope(t *testing.T) {
	router, mock := newTestRouter(t)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM categories`)).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM   categories c`)).
		WithArgs(50, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "label", "slug", "created_at", "updated_at", "resource_count",
		}).
			AddRow("cat_1", "APIs", "apis", now, now, 4).
			AddRow("cat_2", "Tools", "tools", now, now, 0))

	rec, env := doJSON(t, router, http.MethodGet, "/categories", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200", rec.Code)
	}
	if !env.Success || env.Pagination == nil {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if env.Pagination.Total != 2 || env.Pagination.PerPage != 50 || env.Pagination.CurrentPage != 1 {
		t.Fatalf("unexpected pagination: %+v", env.Pagination)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestLoginSuccessIssuesSession(t *testing.T) {
	router, mock := newTestRouter(t)

	hash, err := auth.HashPassword("hunter2hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM admin_users WHERE email = ?`)).
		WithArgs("alex@example.com").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "email", "password_hash", "role",
			"last_login", "created_at", "updated_at",
		}).AddRow("usr_1", "Alex", "alex@example.com", hash, "admin", nil, now, now))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO admin_sessions`)).
		WithArgs(sqlmock.AnyArg(), "usr_1", "admin", 3600).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE admin_users SET last_login = NOW() WHERE id = ?`)).
		WithArgs("usr_1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"alex@example.com","password":"hunter2hunter2"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "apikit_admin" || !cookies[0].HttpOnly {
		t.Fatalf("expected one HttpOnly session cookie, got %v", cookies)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

// Logging in while the browser still holds a live session must retire
// the old admin_sessions row, not leave it valid until the reaper.
func TestLoginReissueRetiresOldSession(t *testing.T) {
	router, mock := newTestRouter(t)

	hash, err := auth.HashPassword("hunter2hunter2")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	now := time.Now()

	codecs := securecookie.CodecsFromPairs([]byte("0123456789abcdef0123456789abcdef"))
	encoded, err := securecookie.EncodeMulti("apikit_admin", "tok_old", codecs...)
	if err != nil {
		t.Fatalf("encode cookie: %v", err)
	}

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM admin_users WHERE email = ?`)).
		WithArgs("alex@example.com").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "email", "password_hash", "role",
			"last_login", "created_at", "updated_at",
		}).AddRow("usr_1", "Alex", "alex@example.com", hash, "admin", nil, now, now))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM   admin_sessions`)).
		WithArgs("tok_old").
		WillReturnRows(sqlmock.NewRows([]string{
			"token", "user_id", "role", "created_at", "expires_at",
		}).AddRow("tok_old", "usr_1", "admin", now, now.Add(time.Hour)))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM admin_sessions WHERE token = ?`)).
		WithArgs("tok_old").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO admin_sessions`)).
		WithArgs(sqlmock.AnyArg(), "usr_1", "admin", 3600).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE admin_users SET last_login = NOW() WHERE id = ?`)).
		WithArgs("usr_1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email":"alex@example.com","password":"hunter2hunter2"}`))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: "apikit_admin", Value: encoded})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "apikit_admin" {
		t.Fatalf("expected one session cookie, got %v", cookies)
	}
	var token string
	if err := securecookie.DecodeMulti("apikit_admin", cookies[0].Value, &token, codecs...); err != nil {
		t.Fatalf("decode cookie: %v", err)
	}
	if token == "tok_old" {
		t.Fatal("old token re-issued instead of rotated")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	router, mock := newTestRouter(t)

	hash, err := auth.HashPassword("the-real-password")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM admin_users WHERE email = ?`)).
		WithArgs("alex@example.com").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "email", "password_hash", "role",
			"last_login", "created_at", "updated_at",
		}).AddRow("usr_1", "Alex", "alex@example.com", hash, "admin", nil, now, now))

	rec, env := doJSON(t, router, http.MethodPost, "/auth/login",
		`{"email":"alex@example.com","password":"a-guess-a-guess"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("code = %d, want 401", rec.Code)
	}
	if env.Message != "Invalid email or password" {
		t.Fatalf("message = %q", env.Message)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestLoginUnknownEmailSameBody(t *testing.T) {
	router, mock := newTestRouter(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM admin_users WHERE email = ?`)).
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "email", "password_hash", "role",
			"last_login", "created_at", "updated_at"}))

	rec, env := doJSON(t, router, http.MethodPost, "/auth/login",
		`{"email":"nobody@example.com","password":"whatever1"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("code = %d, want 401", rec.Code)
	}
	// Unknown email and wrong password are indistinguishable.
	if env.Message != "Invalid email or password" {
		t.Fatalf("message = %q", env.Message)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestCORSHeadersOnListedOrigin(t *testing.T) {
	router, mock := newTestRouter(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM categories`)).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM   categories c`)).
		WithArgs(50, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "label", "slug", "created_at", "updated_at", "resource_count"}))

	req := httptest.NewRequest(http.MethodGet, "/categories", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("ACAO = %q", got)
	}

	// Unlisted origins get no CORS headers at all.
	req2 := httptest.NewRequest(http.MethodOptions, "/categories", nil)
	req2.Header.Set("Origin", "http://evil.example.com")
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	if got := rec2.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("ACAO leaked to unlisted origin: %q", got)
	}
}
