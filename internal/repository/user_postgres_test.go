package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/jaekwang-park/task-api/internal/model"
)

var userCols = []string{"id", "name", "email", "role", "created_at", "updated_at"}

func newUserRepoWithMock(t *testing.T) (*PostgresUserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPostgresUser(db, time.Second), mock
}

func TestUserCreate_Success(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)
	mock.ExpectQuery(`(?s)INSERT INTO users \(name, email, password_hash, role\)\s+VALUES \(\$1, \$2, \$3, \$4\)`).
		WithArgs("Ann", "ann@x.com", "hash", "user").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(testUserID.String(), "Ann", "ann@x.com", "user", testNow, testNow))

	got, err := repo.Create(context.Background(), model.User{Name: "Ann", Email: "ann@x.com", Role: model.RoleUser}, "hash")
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != testUserID || got.Role != model.RoleUser {
		t.Errorf("unexpected user: %+v", got)
	}
}

func TestUserCreate_DuplicateEmail(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)
	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

	_, err := repo.Create(context.Background(), model.User{Name: "Ann", Email: "ann@x.com", Role: model.RoleUser}, "hash")
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestUserGetCredentialsByEmail(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)
	mock.ExpectQuery(`SELECT id, name, email, role, created_at, updated_at, password_hash FROM users WHERE email = \$1`).
		WithArgs("ann@x.com").
		WillReturnRows(sqlmock.NewRows(append(userCols, "password_hash")).
			AddRow(testUserID.String(), "Ann", "ann@x.com", "admin", testNow, testNow, "$2a$hash"))

	u, hash, err := repo.GetCredentialsByEmail(context.Background(), "ann@x.com")
	if err != nil {
		t.Fatalf("GetCredentialsByEmail error: %v", err)
	}
	if u.Role != model.RoleAdmin || hash != "$2a$hash" {
		t.Errorf("unexpected result: %+v %q", u, hash)
	}
}

func TestUserGetCredentialsByEmail_NotFound(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)
	mock.ExpectQuery(`FROM users WHERE email = \$1`).WillReturnError(sql.ErrNoRows)

	_, _, err := repo.GetCredentialsByEmail(context.Background(), "nobody@x.com")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestUserExistsAndCount(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM users WHERE id = \$1\)`).
		WithArgs(testUserID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM users WHERE email = \$1\)`).
		WithArgs("ann@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	ctx := context.Background()
	if ok, err := repo.Exists(ctx, testUserID); err != nil || ok {
		t.Errorf("Exists = %v, %v; want false, nil", ok, err)
	}
	if ok, err := repo.EmailExists(ctx, "ann@x.com"); err != nil || !ok {
		t.Errorf("EmailExists = %v, %v; want true, nil", ok, err)
	}
	if n, err := repo.Count(ctx); err != nil || n != 7 {
		t.Errorf("Count = %d, %v; want 7, nil", n, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestNewDB_RejectsUnknownDriver(t *testing.T) {
	if _, err := NewDB("sqlite", "file::memory:", PoolConfig{}); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
