package database

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/qbank-backend/internal/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// NewMongoDatabase connects to MongoDB and returns the configured database.
// The client behind it is shared by every repository; disconnect it with
// db.Client().Disconnect on shutdown.
func NewMongoDatabase(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	log.Info().
		Str("database", cfg.MongoDatabase).
		Msg("MongoDB connected")

	return client.Database(cfg.MongoDatabase), nil
}
