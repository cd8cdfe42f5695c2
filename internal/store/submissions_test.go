// internal/store/submissions_test.go
//
// Unit-tests for the submission repository, focused on the approval
// transaction and the per-IP counters.

package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
)

var submissionColumns = []string{
	"id", "name", "email", "tool_name", "description", "api_link",
	"status", "admin_notes", "ip_address", "country", "created_at", "updated_at",
}

func submissionRow(id, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(submissionColumns).
		AddRow(id, "Sam", "sam@example.com", "Webhook Relay",
			"Forwards webhooks anywhere.", "https://relay.example.com",
			status, nil, "198.51.100.7", "US", now, now)
}

// Approving must update the status and insert the catalog resource in
// one transaction.
func TestUpdateSubmissionApproveCreatesResource(t *testing.T) {
	db, mock := newMockDB(t)

	status := SubmissionApproved
	catID := "cat_1"

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE submissions`)).
		WithArgs(&status, nil, "sub_1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM submissions WHERE id = ?`)).
		WithArgs("sub_1").
		WillReturnRows(submissionRow("sub_1", SubmissionApproved))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO resources`)).
		WithArgs(sqlmock.AnyArg(), "Webhook Relay", catID, nil,
			"https://relay.example.com", "Forwards webhooks anywhere.", false).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	sub, err := UpdateSubmission(context.Background(), db, "sub_1", UpdateSubmissionInput{
		Status:     &status,
		CategoryID: &catID,
	})
	if err != nil {
		t.Fatalf("UpdateSubmission error: %v", err)
	}
	if sub.Status != SubmissionApproved {
		t.Fatalf("status = %q, want approved", sub.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

// Rejecting never touches the resources table.
func TestUpdateSubmissionRejectNoResource(t *testing.T) {
	db, mock := newMockDB(t)

	status := SubmissionRejected
	notes := "Duplicate of an existing entry."

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE submissions`)).
		WithArgs(&status, &notes, "sub_2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM submissions WHERE id = ?`)).
		WithArgs("sub_2").
		WillReturnRows(submissionRow("sub_2", SubmissionRejected))
	mock.ExpectCommit()

	if _, err := UpdateSubmission(context.Background(), db, "sub_2", UpdateSubmissionInput{
		Status:     &status,
		AdminNotes: &notes,
	}); err != nil {
		t.Fatalf("UpdateSubmission error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

// A failed resource insert must abort the whole approval.
func TestUpdateSubmissionApproveInsertFails(t *testing.T) {
	db, mock := newMockDB(t)

	status := SubmissionApproved

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE submissions`)).
		WithArgs(&status, nil, "sub_3").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM submissions WHERE id = ?`)).
		WithArgs("sub_3").
		WillReturnRows(submissionRow("sub_3", SubmissionApproved))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO resources`)).
		WillReturnError(errors.New("insert failed"))
	mock.ExpectRollback()

	if _, err := UpdateSubmission(context.Background(), db, "sub_3", UpdateSubmissionInput{
		Status: &status,
	}); err == nil {
		t.Fatal("expected error, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

// Approving against a category id that no longer exists trips the
// resources foreign key; the caller should see ErrNotFound, not a raw
// driver error.
func TestUpdateSubmissionApproveMissingCategory(t *testing.T) {
	db, mock := newMockDB(t)

	status := SubmissionApproved
	catID := "cat_gone"

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE submissions`)).
		WithArgs(&status, nil, "sub_4").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM submissions WHERE id = ?`)).
		WithArgs("sub_4").
		WillReturnRows(submissionRow("sub_4", SubmissionApproved))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO resources`)).
		WillReturnError(&mysql.MySQLError{Number: 1452, Message: "foreign key constraint fails"})
	mock.ExpectRollback()

	_, err := UpdateSubmission(context.Background(), db, "sub_4", UpdateSubmissionInput{
		Status:     &status,
		CategoryID: &catID,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestUpdateSubmissionNotFound(t *testing.T) {
	db, mock := newMockDB(t)

	notes := "n"

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE submissions`)).
		WithArgs(nil, &notes, "sub_missing").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM submissions WHERE id = ?`)).
		WithArgs("sub_missing").
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(0))
	mock.ExpectRollback()

	_, err := UpdateSubmission(context.Background(), db, "sub_missing", UpdateSubmissionInput{
		AdminNotes: &notes,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestCountRecentSubmissions(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`created_at > NOW() - INTERVAL 1 HOUR`)).
		WithArgs("198.51.100.7").
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(3))

	n, err := CountRecentSubmissions(context.Background(), db, "198.51.100.7")
	if err != nil {
		t.Fatalf("CountRecentSubmissions error: %v", err)
	}
	if n != 3 {
		t.Fatalf("n = %d, want 3", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}
