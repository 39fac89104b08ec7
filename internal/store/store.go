// Package store encapsulates MongoDB client management and collection helpers.
package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"tg_relay_bot/internal/config"
)

// Collection names used across the relay.
const (
	CollectionAuditLog = "audit_log"
	CollectionArticles = "articles"
	CollectionBotState = "bot_state"
)

// mongoClient captures the subset of mongo.Client behavior we rely on to allow
// lightweight stubbing in tests without a live Mongo deployment.
type mongoClient interface {
	Ping(context.Context, *readpref.ReadPref) error
	Database(string, ...*options.DatabaseOptions) *mongo.Database
	Disconnect(context.Context) error
}

// connectMongo is overridable for tests.
var connectMongo = func(ctx context.Context, opts *options.ClientOptions) (mongoClient, error) {
	return mongo.Connect(ctx, opts)
}

// createIndexes is overridable for tests.
var createIndexes = func(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) ([]string, error) {
	return coll.Indexes().CreateMany(ctx, models)
}

// Manager owns a MongoDB client and the configured database handle.
type Manager struct {
	client mongoClient
	db     *mongo.Database
}

// NewManager initializes the Mongo client using the supplied configuration and
// verifies connectivity with a ping.
func NewManager(ctx context.Context, cfg config.Config) (*Manager, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	client, err := connectMongo(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &Manager{
		client: client,
		db:     client.Database(cfg.MongoDB),
	}, nil
}

// Database returns the configured database handle.
func (m *Manager) Database() *mongo.Database {
	return m.db
}

// Collection returns a collection handle for the given name.
func (m *Manager) Collection(name string) *mongo.Collection {
	return m.db.Collection(name)
}

// AuditLog returns the audit log collection handle.
func (m *Manager) AuditLog() *mongo.Collection {
	return m.Collection(CollectionAuditLog)
}

// Articles returns the articles collection handle.
func (m *Manager) Articles() *mongo.Collection {
	return m.Collection(CollectionArticles)
}

// BotState returns the bot state collection handle.
func (m *Manager) BotState() *mongo.Collection {
	return m.Collection(CollectionBotState)
}

// Ping verifies connectivity against the primary; used by the health
// endpoint.
func (m *Manager) Ping(ctx context.Context) error {
	if m == nil || m.client == nil {
		return errors.New("store manager is not initialized")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	if err := m.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("ping mongo: %w", err)
	}

	return nil
}

// EnsureBaseIndexes creates the foundational indexes for the audit log and
// articles collections. Collections are created implicitly if they do not
// already exist. The audit log index is non-unique: many records share an
// update_id (one inbound leg, one outbound leg).
func (m *Manager) EnsureBaseIndexes(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if m == nil || m.db == nil {
		return errors.New("store manager is not initialized")
	}

	auditIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "update_id", Value: 1}, {Key: "time", Value: 1}},
			Options: options.Index().
				SetName("update_id_time"),
		},
	}

	if _, err := createIndexes(ctx, m.AuditLog(), auditIndexes); err != nil {
		return fmt.Errorf("create audit log indexes: %w", err)
	}

	articleIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "title", Value: 1}},
			Options: options.Index().
				SetName("title_asc"),
		},
	}

	if _, err := createIndexes(ctx, m.Articles(), articleIndexes); err != nil {
		return fmt.Errorf("create articles indexes: %w", err)
	}

	stateIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "key", Value: 1}},
			Options: options.Index().
				SetName("key_unique").
				SetUnique(true),
		},
	}

	if _, err := createIndexes(ctx, m.BotState(), stateIndexes); err != nil {
		return fmt.Errorf("create bot state indexes: %w", err)
	}

	return nil
}

// Close disconnects the Mongo client.
func (m *Manager) Close(ctx context.Context) error {
	if m == nil || m.client == nil {
		return nil
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	return m.client.Disconnect(ctx)
}
