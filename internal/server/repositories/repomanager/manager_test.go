package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/pennyplan/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func TestNewPostgresRepositoryManager_ReturnsInterface(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	m, err := NewPostgresRepositoryManager(db)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := m.Users().(*users.PostgresRepository); !ok {
		t.Fatalf("Users() = %T, want *users.PostgresRepository", m.Users())
	}
}

func TestPostgres_PingAndClose(t *testing.T) {
	db, mock := newDB(t)

	m, err := NewPostgresRepositoryManager(db)
	require.NoError(t, err)

	mock.ExpectPing()
	mock.ExpectPing().WillReturnError(errors.New("down"))
	mock.ExpectClose()

	assert.NoError(t, m.Ping(context.Background()))
	assert.Error(t, m.Ping(context.Background()))
	assert.NoError(t, m.Close(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations_Success(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, got *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		if got != db {
			return errors.New("unexpected db")
		}
		if dir != "." {
			return errors.New("unexpected dir")
		}
		if len(opts) != 0 {
			return errors.New("unexpected opts")
		}
		return nil
	}
	defer func() { gooseUpContext = orig }()

	m, _ := NewPostgresRepositoryManager(db)
	if err := m.RunMigrations(context.Background()); err != nil {
		t.Fatalf("RunMigrations error: %v", err)
	}
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	m, _ := NewPostgresRepositoryManager(db)
	if err := m.RunMigrations(context.Background()); err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestMemoryRepositoryManager(t *testing.T) {
	ctx := context.Background()

	m, err := New(ctx, Options{Driver: DriverMemory})
	require.NoError(t, err)

	assert.NoError(t, m.RunMigrations(ctx))
	assert.NoError(t, m.Ping(ctx))
	assert.IsType(t, &users.MemoryRepository{}, m.Users())
	// the same repository is vended every time
	assert.Same(t, m.Users(), m.Users())
	assert.NoError(t, m.Close(ctx))
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(context.Background(), Options{Driver: "sqlite"})
	assert.ErrorContains(t, err, "unknown store driver")
}

func TestMongoRepositoryManager(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("migrations create indexes", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		m := NewMongoRepositoryManager(mt.Client, "")
		assert.NoError(mt, m.RunMigrations(context.Background()))
		assert.IsType(mt, &users.MongoRepository{}, m.Users())
	})

	mt.Run("ping", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		m := NewMongoRepositoryManager(mt.Client, "pennyplan_test")
		assert.NoError(mt, m.Ping(context.Background()))
	})
}
