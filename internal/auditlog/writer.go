// Package auditlog appends canonical records to the append-only audit log.
package auditlog

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tg_relay_bot/internal/logging"
	"tg_relay_bot/internal/metrics"
	"tg_relay_bot/internal/record"
	"tg_relay_bot/internal/sanitize"
)

type insertCollection interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
}

// Writer sanitizes and persists records. It never returns an error: a failed
// append yields ok=false and a log line, and the pipeline carries on. The log
// is append-only; nothing here updates or deletes.
type Writer struct {
	collection insertCollection
	sanitizer  sanitize.Sanitizer
	logger     *logrus.Entry
}

// NewWriter constructs a Writer. A nil sanitizer falls back to the default
// implementation; a nil logger falls back to the package logger.
func NewWriter(collection insertCollection, sanitizer sanitize.Sanitizer, logger *logrus.Entry) *Writer {
	if sanitizer == nil {
		sanitizer = sanitize.NewDefault()
	}
	if logger == nil {
		logger = logging.Logger()
	}

	return &Writer{
		collection: collection,
		sanitizer:  sanitizer,
		logger:     logger,
	}
}

// Append sanitizes the record per field class and inserts exactly one
// document. On success it returns the assigned identifier and true; on any
// failure it returns ("", false).
func (w *Writer) Append(ctx context.Context, rec record.Record) (string, bool) {
	if w == nil || w.collection == nil {
		logging.Error("audit writer is not initialized", nil)
		return "", false
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if rec.Time.IsZero() {
		rec.Time = time.Now().UTC()
	}

	rec.Action = record.Action(w.sanitizer.Latin(string(rec.Action)))
	rec.Method = w.sanitizer.Latin(rec.Method)
	rec.Username = w.sanitizer.Latin(rec.Username)
	rec.UserFirstName = w.sanitizer.Text(rec.UserFirstName)
	rec.UserLastName = w.sanitizer.Text(rec.UserLastName)
	rec.ChatName = w.sanitizer.Text(rec.ChatName)
	rec.Content = w.sanitizer.RichText(rec.Content)
	rec.Error = w.sanitizer.RichText(rec.Error)
	rec.Attachment = w.sanitizer.RichText(rec.Attachment)

	doc := bson.D{
		{Key: "time", Value: rec.Time},
		{Key: "action", Value: string(rec.Action)},
		{Key: "method", Value: rec.Method},
		{Key: "update_id", Value: rec.UpdateID},
		{Key: "user_id", Value: rec.UserID},
		{Key: "username", Value: rec.Username},
		{Key: "user_fname", Value: rec.UserFirstName},
		{Key: "user_lname", Value: rec.UserLastName},
		{Key: "message_id", Value: rec.MessageID},
		{Key: "chat_id", Value: rec.ChatID},
		{Key: "chatname", Value: rec.ChatName},
		{Key: "content", Value: rec.Content},
		{Key: "attachment", Value: rec.Attachment},
		{Key: "error", Value: rec.Error},
	}

	result, err := w.collection.InsertOne(ctx, doc)
	if err != nil {
		metrics.AuditAppendFailures.Inc()
		w.logger.WithFields(logging.Fields{
			"event":     "audit_append_failed",
			"action":    string(rec.Action),
			"method":    rec.Method,
			"update_id": rec.UpdateID,
		}).WithError(err).Error("failed to append audit record")
		return "", false
	}

	return formatLogID(result.InsertedID), true
}

func formatLogID(id interface{}) string {
	switch v := id.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case string:
		return v
	default:
		return ""
	}
}
