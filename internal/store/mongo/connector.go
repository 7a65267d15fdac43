// Package mongo is the document-store layer: connection lifecycle, the
// postings repository and the favorites repository. TLS comes from the
// connection string (mongodb+srv URIs negotiate it automatically).
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/claudel/offrebot/internal/logger"
)

const (
	collPostings  = "postings"
	collFavorites = "favorites"

	connectPingTimeout = 10 * time.Second
)

// DB wraps the Mongo client and exposes the repositories.
type DB struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect opens the client and verifies the server is reachable.
// Startup fails fast on an unreachable or misconfigured database.
func Connect(ctx context.Context, uri, dbName string, log logger.Logger) (*DB, error) {
	client, err := mongo.Connect(options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(connectPingTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo unreachable: %w", err)
	}

	log.Info("connected to mongo", logger.String("database", dbName))
	return &DB{client: client, db: client.Database(dbName)}, nil
}

// Ping answers the liveness probe used by /health.
func (d *DB) Ping(ctx context.Context) error {
	return d.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (d *DB) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}

// Postings returns the posting repository.
func (d *DB) Postings() *PostingRepo {
	return NewPostingRepo(d.db)
}

// Favorites returns the favorites repository.
func (d *DB) Favorites() *FavoriteRepo {
	return NewFavoriteRepo(d.db)
}
