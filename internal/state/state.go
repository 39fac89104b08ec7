// Package state persists small pieces of bot runtime state, keyed by name,
// in the bot_state collection.
package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tg_relay_bot/internal/logging"
)

const keyWebhookRegistered = "webhook_registered"

type stateCollection interface {
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
}

// Store reads and writes named state flags.
type Store struct {
	flags  stateCollection
	logger *logrus.Entry
}

// NewStore constructs a Store for the provided bot_state collection.
func NewStore(flags stateCollection, logger *logrus.Entry) *Store {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Store{
		flags:  flags,
		logger: logger,
	}
}

// SetWebhookRegistered records the outcome of the latest webhook
// registration attempt.
func (s *Store) SetWebhookRegistered(ctx context.Context, registered bool) error {
	if s == nil || s.flags == nil {
		return errors.New("state store is not initialized")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	update := bson.M{
		"$set": bson.M{
			"value":      registered,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"key":        keyWebhookRegistered,
			"created_at": now,
		},
	}

	_, err := s.flags.UpdateOne(ctx,
		bson.M{"key": keyWebhookRegistered},
		update,
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("set webhook flag: %w", err)
	}

	s.logger.WithFields(logging.Fields{
		"event":      "webhook_flag_set",
		"registered": registered,
	}).Info("recorded webhook registration state")

	return nil
}

// WebhookRegistered reports whether the last registration attempt succeeded.
// A missing flag reads as false.
func (s *Store) WebhookRegistered(ctx context.Context) (bool, error) {
	if s == nil || s.flags == nil {
		return false, errors.New("state store is not initialized")
	}

	var doc struct {
		Value bool `bson:"value"`
	}
	err := s.flags.FindOne(ctx, bson.M{"key": keyWebhookRegistered}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read webhook flag: %w", err)
	}

	return doc.Value, nil
}
