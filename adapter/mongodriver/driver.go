// Package mongodriver implements [domain.Collection] over the official MongoDB
// driver.
package mongodriver

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	mopt "go.mongodb.org/mongo-driver/mongo/options"
)

// Database is a connected MongoDB database.
type Database struct {
	client  *mongo.Client
	db      *mongo.Database
	options []Option
}

// Connect opens a client for uri, checks the server is reachable and returns
// the named database.
func Connect(ctx context.Context, uri string, database string, options ...ClientOption) (*Database, error) {
	cfg := clientConfig{
		connectTimeout:         DefaultTimeout,
		serverSelectionTimeout: DefaultTimeout,
	}
	for _, opt := range options {
		opt(&cfg)
	}

	opts := mopt.Client().ApplyURI(uri)
	opts.SetConnectTimeout(cfg.connectTimeout).SetServerSelectionTimeout(cfg.serverSelectionTimeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return &Database{client: client, db: client.Database(database), options: cfg.collection}, nil
}

// Collection returns the named collection. Options are applied after the ones
// given to [Connect].
func (d *Database) Collection(name string, options ...Option) *Collection {
	all := append(append([]Option(nil), d.options...), options...)
	return NewCollection(d.db.Collection(name), all...)
}

// Ping checks the server is reachable.
func (d *Database) Ping(ctx context.Context) error {
	return d.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (d *Database) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}
