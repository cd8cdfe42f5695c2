// internal/session/store_test.go
//
// Unit-tests for the MySQL-backed session store using sqlmock.

package session

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gorilla/securecookie"
	"github.com/jmoiron/sqlx"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func newTestStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { raw.Close() })
	return NewStore(sqlx.NewDb(raw, "sqlmock"), testKey, time.Hour, false), mock
}

func TestNewWithoutCookie(t *testing.T) {
	s, mock := newTestStore(t)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := s.New(r, "apikit_admin")
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if !sess.IsNew {
		t.Fatal("expected IsNew = true for a cookie-less request")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected SQL: %v", err)
	}
}

func TestNewWithTamperedCookie(t *testing.T) {
	s, mock := newTestStore(t)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "apikit_admin", Value: "forged-value"})

	sess, err := s.New(r, "apikit_admin")
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if !sess.IsNew {
		t.Fatal("tampered cookie must yield a fresh session")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected SQL: %v", err)
	}
}

func TestNewWithValidToken(t *testing.T) {
	s, mock := newTestStore(t)

	encoded, err := securecookie.EncodeMulti("apikit_admin", "tok_abc", s.codecs...)
	if err != nil {
		t.Fatalf("encode cookie: %v", err)
	}

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM   admin_sessions`)).
		WithArgs("tok_abc").
		WillReturnRows(sqlmock.NewRows(
			[]string{"token", "user_id", "role", "created_at", "expires_at"}).
			AddRow("tok_abc", "usr_1", "admin", now, now.Add(time.Hour)))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "apikit_admin", Value: encoded})

	sess, err := s.New(r, "apikit_admin")
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if sess.IsNew {
		t.Fatal("valid token must resolve to an existing session")
	}
	if sess.Values[KeyUserID] != "usr_1" || sess.Values[KeyRole] != "admin" {
		t.Fatalf("unexpected session values: %v", sess.Values)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestNewWithExpiredToken(t *testing.T) {
	s, mock := newTestStore(t)

	encoded, err := securecookie.EncodeMulti("apikit_admin", "tok_old", s.codecs...)
	if err != nil {
		t.Fatalf("encode cookie: %v", err)
	}

	// The lookup filters on expires_at > NOW(), so an expired row comes
	// back as no rows at all.
	mock.ExpectQuery(regexp.QuoteMeta(`FROM   admin_sessions`)).
		WithArgs("tok_old").
		WillReturnRows(sqlmock.NewRows(
			[]string{"token", "user_id", "role", "created_at", "expires_at"}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "apikit_admin", Value: encoded})

	sess, err := s.New(r, "apikit_admin")
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if !sess.IsNew {
		t.Fatal("expired token must yield a fresh session")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestSaveIssuesTokenAndCookie(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO admin_sessions`)).
		WithArgs(sqlmock.AnyArg(), "usr_1", "admin", 3600).
		WillReturnResult(sqlmock.NewResult(0, 1))

	r := httptest.NewRequest(http.MethodPost, "/", nil)
	w := httptest.NewRecorder()

	sess, err := s.New(r, "apikit_admin")
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	sess.Values[KeyUserID] = "usr_1"
	sess.Values[KeyRole] = "admin"
	if err := s.Save(r, w, sess); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	if len(sess.ID) < 5 || sess.ID[:4] != "tok_" {
		t.Fatalf("unexpected token shape: %q", sess.ID)
	}

	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "apikit_admin" {
		t.Fatalf("expected one session cookie, got %v", cookies)
	}
	if !cookies[0].HttpOnly {
		t.Fatal("session cookie must be HttpOnly")
	}

	// The cookie round-trips back to the same token.
	var token string
	if err := securecookie.DecodeMulti("apikit_admin", cookies[0].Value,
		&token, s.codecs...); err != nil {
		t.Fatalf("decode issued cookie: %v", err)
	}
	if token != sess.ID {
		t.Fatalf("cookie token %q != session id %q", token, sess.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestSaveDestroySession(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM admin_sessions WHERE token = ?`)).
		WithArgs("tok_abc").
		WillReturnResult(sqlmock.NewResult(0, 1))

	r := httptest.NewRequest(http.MethodPost, "/", nil)
	w := httptest.NewRecorder()

	sess, _ := s.New(r, "apikit_admin")
	sess.ID = "tok_abc"
	sess.Options.MaxAge = -1
	if err := s.Save(r, w, sess); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Fatalf("expected an expiring cookie, got %v", cookies)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}
