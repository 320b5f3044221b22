package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/pennyplan/internal/server/repositories/users"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// DefaultMongoDatabase is used when no database name is configured.
const DefaultMongoDatabase = "pennyplan"

type MongoRepositoryManager struct {
	client *mongo.Client
	users  *users.MongoRepository
}

// ConnectMongo dials uri and checks the primary is reachable.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

func NewMongoRepositoryManager(client *mongo.Client, database string) *MongoRepositoryManager {
	if database == "" {
		database = DefaultMongoDatabase
	}
	coll := client.Database(database).Collection(users.CollectionName)
	return &MongoRepositoryManager{client: client, users: users.NewMongoRepository(coll)}
}

func (m *MongoRepositoryManager) Users() users.Repository {
	return m.users
}

// RunMigrations creates the unique indexes the store relies on.
func (m *MongoRepositoryManager) RunMigrations(ctx context.Context) error {
	return m.users.EnsureIndexes(ctx)
}

func (m *MongoRepositoryManager) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *MongoRepositoryManager) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
