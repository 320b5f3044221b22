//go:build integration

package repomanager

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/pennyplan/internal/common"
	"github.com/dmitrijs2005/pennyplan/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func TestPostgresStore_Integration(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("pennyplan"),
		postgres.WithUsername("pennyplan"),
		postgres.WithPassword("pennyplan"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	m, err := New(ctx, Options{Driver: DriverPostgres, DatabaseDSN: dsn})
	require.NoError(t, err)
	defer m.Close(ctx)

	require.NoError(t, m.RunMigrations(ctx))
	// migrations are idempotent
	require.NoError(t, m.RunMigrations(ctx))
	require.NoError(t, m.Ping(ctx))

	repo := m.Users()

	alice, err := repo.Create(ctx, &models.User{UserName: "alice", Email: "alice@x.com", PasswordHash: "hash"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &models.User{UserName: "alice2", Email: "alice@x.com"})
	assert.ErrorIs(t, err, common.ErrorDuplicateKey)

	_, err = repo.Create(ctx, &models.User{UserName: "alice", Email: "other@x.com"})
	assert.ErrorIs(t, err, common.ErrorDuplicateKey)

	got, err := repo.GetUserByEmail(ctx, "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)
	assert.False(t, got.HasExternalIdentity())

	_, err = repo.GetUserByEmail(ctx, "ALICE@x.com")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	got.GoogleID = "g-1"
	got.Picture = "https://pic"
	linked, err := repo.Update(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, "hash", linked.PasswordHash)

	byID, err := repo.GetUserByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "g-1", byID.GoogleID)
	assert.Equal(t, "https://pic", byID.Picture)

	either, err := repo.GetUserByEmailOrUsername(ctx, "nobody@x.com", "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, either.ID)

	_, err = repo.Update(ctx, &models.User{ID: "missing", UserName: "m", Email: "m@x.com"})
	assert.ErrorIs(t, err, common.ErrorNotFound)
}
