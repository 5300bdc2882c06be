package pg_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"faithresponders.org/internal/directory"
	"faithresponders.org/internal/fault"
	"faithresponders.org/internal/store/pg"
	"faithresponders.org/internal/workgroup"
)

func newMock(t *testing.T) (*pg.Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return pg.NewWithDB(db), mock
}

func expectationsMet(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestFindUserNotFound(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery("select doc from users").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := store.Users().Find(context.Background(), "ghost")
	if !errors.Is(err, fault.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestFindUserDecodesDocument(t *testing.T) {
	store, mock := newMock(t)

	doc := `{"id":"u1","email":"u1@example.org","roles":["assessor"],"roleApprovalStatus":"approved"}`
	mock.ExpectQuery("select doc from users").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"doc"}).AddRow([]byte(doc)))

	u, err := store.Users().Find(context.Background(), "u1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if u.Email != "u1@example.org" || len(u.Roles) != 1 || u.Roles[0] != directory.RoleAssessor {
		t.Fatalf("unexpected user: %+v", u)
	}
	expectationsMet(t, mock)
}

func TestPutUserUpserts(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectExec("insert into users").
		WithArgs("u1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.Users().Put(context.Background(), &directory.User{ID: "u1"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	expectationsMet(t, mock)
}

func TestListUsersClampsLimit(t *testing.T) {
	store, mock := newMock(t)

	rows := sqlmock.NewRows([]string{"doc"}).
		AddRow([]byte(`{"id":"u2"}`)).
		AddRow([]byte(`{"id":"u1"}`))
	mock.ExpectQuery("select doc from users").
		WithArgs("assessor", "", "", 100).
		WillReturnRows(rows)

	users, err := store.Users().List(context.Background(), directory.Filter{Role: directory.RoleAssessor})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 2 || users[0].ID != "u2" {
		t.Fatalf("unexpected users: %+v", users)
	}
	expectationsMet(t, mock)
}

func TestPatchMissingRowIsNotFound(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectExec("update workgroups").
		WithArgs("ghost", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Workgroups().Patch(context.Background(), "ghost", map[string]any{"name": "x"})
	if !errors.Is(err, fault.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	expectationsMet(t, mock)
}

func TestReassessBindsCounterArgs(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectExec("update assessments").
		WithArgs("a1", sqlmock.AnyArg(), true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Assessments().Reassess(context.Background(), "a1", map[string]any{"severity": "medium"}, true)
	if err != nil {
		t.Fatalf("reassess: %v", err)
	}
	expectationsMet(t, mock)
}

func TestAddWorkerUnion(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectExec("update workgroups").
		WithArgs("wg-1", "worker-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.Workgroups().AddWorker(context.Background(), "wg-1", "worker-1"); err != nil {
		t.Fatalf("add worker: %v", err)
	}
	expectationsMet(t, mock)
}

func TestUpdateStatusSerialisesNote(t *testing.T) {
	store, mock := newMock(t)

	note := &workgroup.ProgressNote{Note: "tarps delivered", UserID: "worker-1"}
	mock.ExpectExec("update workgroups").
		WithArgs("wg-1", "inProgress", []byte(`[{"note":"tarps delivered","userId":"worker-1","timestamp":"0001-01-01T00:00:00Z"}]`), []byte(`[]`), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Workgroups().UpdateStatus(context.Background(), "wg-1", workgroup.StatusInProgress, note, nil)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	expectationsMet(t, mock)
}

func TestMarkNeedsEscalation(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectExec("update workgroups").
		WithArgs("wg-1", "needsEscalation", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.Workgroups().MarkNeedsEscalation(context.Background(), "wg-1"); err != nil {
		t.Fatalf("mark: %v", err)
	}
	expectationsMet(t, mock)
}

func TestQueryErrorPassesThrough(t *testing.T) {
	store, mock := newMock(t)

	mock.ExpectQuery("select doc from escalations").
		WillReturnError(sql.ErrConnDone)

	_, err := store.Escalations().Find(context.Background(), "e1")
	if err == nil || errors.Is(err, fault.ErrNotFound) {
		t.Fatalf("expected driver error, got %v", err)
	}
	expectationsMet(t, mock)
}
