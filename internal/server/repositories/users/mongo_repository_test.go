package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/pennyplan/internal/common"
	"github.com/dmitrijs2005/pennyplan/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func newMongoRepo(mt *mtest.T) *MongoRepository {
	r := NewMongoRepository(mt.Coll)
	r.now = func() time.Time { return fixedNow }
	return r
}

func namespace(mt *mtest.T) string {
	return mt.Coll.Database().Name() + "." + mt.Coll.Name()
}

func userDoc(id, username, email string) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "username", Value: username},
		{Key: "email", Value: email},
		{Key: "password", Value: "hash"},
		{Key: "createdAt", Value: fixedNow},
		{Key: "updatedAt", Value: fixedNow},
	}
}

func TestMongoRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("create", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		got, err := newMongoRepo(mt).Create(ctx, &models.User{UserName: "alice", Email: "alice@x.com", PasswordHash: "hash"})
		require.NoError(mt, err)
		assert.NotEmpty(mt, got.ID)
		assert.Equal(mt, fixedNow, got.CreatedAt)
	})

	mt.Run("create duplicate", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: pennyplan.users index: email_unique",
		}))

		_, err := newMongoRepo(mt).Create(ctx, &models.User{UserName: "alice", Email: "alice@x.com"})
		assert.ErrorIs(mt, err, common.ErrorDuplicateKey)
	})

	mt.Run("create other failure", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad value"}))

		_, err := newMongoRepo(mt).Create(ctx, &models.User{UserName: "alice", Email: "alice@x.com"})
		require.Error(mt, err)
		assert.False(mt, errors.Is(err, common.ErrorDuplicateKey))
	})

	mt.Run("get by email", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, userDoc("u-1", "alice", "alice@x.com")))

		got, err := newMongoRepo(mt).GetUserByEmail(ctx, "alice@x.com")
		require.NoError(mt, err)
		assert.True(mt, got.CreatedAt.Equal(fixedNow))
		got.CreatedAt, got.UpdatedAt = time.Time{}, time.Time{}
		assert.Equal(mt, &models.User{ID: "u-1", UserName: "alice", Email: "alice@x.com", PasswordHash: "hash"}, got)
	})

	mt.Run("get by email or username not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))

		_, err := newMongoRepo(mt).GetUserByEmailOrUsername(ctx, "ghost@x.com", "ghost")
		assert.ErrorIs(mt, err, common.ErrorNotFound)
	})

	mt.Run("get by id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, userDoc("u-2", "bob", "bob@x.com")))

		got, err := newMongoRepo(mt).GetUserByID(ctx, "u-2")
		require.NoError(mt, err)
		assert.Equal(mt, "bob", got.UserName)
	})

	mt.Run("update", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		got, err := newMongoRepo(mt).Update(ctx, &models.User{ID: "u-1", UserName: "alice", Email: "alice@x.com", GoogleID: "g-1"})
		require.NoError(mt, err)
		assert.Equal(mt, "g-1", got.GoogleID)
		assert.Equal(mt, fixedNow, got.UpdatedAt)
	})

	mt.Run("update missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		_, err := newMongoRepo(mt).Update(ctx, &models.User{ID: "gone"})
		assert.ErrorIs(mt, err, common.ErrorNotFound)
	})

	mt.Run("ensure indexes", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		assert.NoError(mt, newMongoRepo(mt).EnsureIndexes(ctx))
	})
}
