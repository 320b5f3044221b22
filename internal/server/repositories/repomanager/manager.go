// Package repomanager owns the credential store backend: it opens the
// connection, prepares the schema and vends repositories.
package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/pennyplan/internal/server/repositories/users"
)

// Store drivers accepted by New.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

type RepositoryManager interface {
	// RunMigrations brings the schema (tables or indexes) up to date.
	RunMigrations(ctx context.Context) error
	Users() users.Repository
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type Options struct {
	Driver        string
	DatabaseDSN   string
	MongoURI      string
	MongoDatabase string
}

// New connects to the backend selected by opts.Driver.
func New(ctx context.Context, opts Options) (RepositoryManager, error) {
	switch opts.Driver {
	case DriverPostgres:
		db, err := OpenPostgres(ctx, opts.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		return NewPostgresRepositoryManager(db)
	case DriverMongo:
		client, err := ConnectMongo(ctx, opts.MongoURI)
		if err != nil {
			return nil, err
		}
		return NewMongoRepositoryManager(client, opts.MongoDatabase), nil
	case DriverMemory:
		return NewMemoryRepositoryManager(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}
