package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/pennyplan/internal/common"
	"github.com/dmitrijs2005/pennyplan/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

var fixedNow = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	repo := NewPostgresRepository(db)
	repo.now = func() time.Time { return fixedNow }
	return repo, mock, db
}

var userColumns = []string{"id", "username", "email", "password_hash", "google_id", "picture", "created_at", "updated_at"}

const (
	insertQ   = `(?s)^INSERT\s+INTO\s+users\s*\(id,\s*username,\s*email,\s*password_hash,\s*google_id,\s*picture,\s*created_at,\s*updated_at\)\s*VALUES\s*\(\$1,.*\$8\)\s*$`
	byEmailQ  = `(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+email\s*=\s*\$1\s*$`
	byIDQ     = `(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s*$`
	byEitherQ = `(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+email\s*=\s*\$1\s+OR\s+username\s*=\s*\$2\s+LIMIT\s+1\s*$`
	updateQ   = `(?s)^UPDATE\s+users\s+SET\s+username\s*=\s*\$2,.*WHERE\s+id\s*=\s*\$1\s+RETURNING\s+created_at\s*$`
)

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertQ).
		WithArgs("u-1", "alice", "alice@x.com", sql.NullString{String: "hash", Valid: true},
			sql.NullString{}, sql.NullString{}, fixedNow, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	in := &models.User{ID: "u-1", UserName: "alice", Email: "alice@x.com", PasswordHash: "hash"}
	got, err := repo.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != "u-1" || !got.CreatedAt.Equal(fixedNow) || !got.UpdatedAt.Equal(fixedNow) {
		t.Fatalf("unexpected user: %+v", got)
	}
	if !in.CreatedAt.IsZero() {
		t.Fatalf("input must not be mutated: %+v", in)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCreate_AssignsID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertQ).WillReturnResult(sqlmock.NewResult(0, 1))

	got, err := repo.Create(context.Background(), &models.User{UserName: "bob", Email: "bob@x.com", GoogleID: "g-1"})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID == "" {
		t.Fatal("expected generated id")
	}
}

func TestCreate_Duplicate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertQ).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	_, err := repo.Create(context.Background(), &models.User{UserName: "alice", Email: "alice@x.com"})
	if !errors.Is(err, common.ErrorDuplicateKey) {
		t.Fatalf("want ErrorDuplicateKey, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertQ).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{UserName: "alice", Email: "alice@x.com"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
	if errors.Is(err, common.ErrorDuplicateKey) {
		t.Fatal("generic failure must not look like a duplicate")
	}
}

func TestGetUserByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(userColumns).
		AddRow("u-1", "alice", "alice@x.com", nil, "g-1", "https://pic", fixedNow, fixedNow)
	mock.ExpectQuery(byEmailQ).WithArgs("alice@x.com").WillReturnRows(rows)

	got, err := repo.GetUserByEmail(context.Background(), "alice@x.com")
	if err != nil {
		t.Fatalf("GetUserByEmail error: %v", err)
	}
	if got.HasPassword() || got.GoogleID != "g-1" || got.Picture != "https://pic" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestGetUserByEmail_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(byEmailQ).WithArgs("ghost@x.com").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetUserByEmail(context.Background(), "ghost@x.com")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestGetUserByEmailOrUsername(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(userColumns).
		AddRow("u-1", "alice", "alice@x.com", "hash", nil, nil, fixedNow, fixedNow)
	mock.ExpectQuery(byEitherQ).WithArgs("other@x.com", "alice").WillReturnRows(rows)

	got, err := repo.GetUserByEmailOrUsername(context.Background(), "other@x.com", "alice")
	if err != nil {
		t.Fatalf("GetUserByEmailOrUsername error: %v", err)
	}
	if got.UserName != "alice" || got.PasswordHash != "hash" || got.HasExternalIdentity() {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestGetUserByID_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(byIDQ).WithArgs("u-1").WillReturnError(errors.New("db err"))

	_, err := repo.GetUserByID(context.Background(), "u-1")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestUpdate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := fixedNow.Add(-time.Hour)
	mock.ExpectQuery(updateQ).
		WithArgs("u-1", "alice", "alice@x.com", sql.NullString{String: "hash", Valid: true},
			sql.NullString{String: "g-1", Valid: true}, sql.NullString{String: "https://pic", Valid: true}, fixedNow).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	got, err := repo.Update(context.Background(), &models.User{
		ID: "u-1", UserName: "alice", Email: "alice@x.com", PasswordHash: "hash", GoogleID: "g-1", Picture: "https://pic",
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if !got.CreatedAt.Equal(created) || !got.UpdatedAt.Equal(fixedNow) {
		t.Fatalf("unexpected timestamps: %+v", got)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(updateQ).WillReturnError(sql.ErrNoRows)

	_, err := repo.Update(context.Background(), &models.User{ID: "gone"})
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestUpdate_Duplicate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(updateQ).WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Update(context.Background(), &models.User{ID: "u-1"})
	if !errors.Is(err, common.ErrorDuplicateKey) {
		t.Fatalf("want ErrorDuplicateKey, got %v", err)
	}
}
