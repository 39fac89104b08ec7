// Package classify maps raw inbound deliveries onto audit records: it picks
// the branch the update belongs to (message, callback query, or a decode
// failure) and persists one record per delivery before anything reacts to it.
package classify

import (
	"context"

	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"tg_relay_bot/internal/logging"
	"tg_relay_bot/internal/metrics"
	"tg_relay_bot/internal/record"
)

// recordAppender is the audit log contract the classifier depends on.
type recordAppender interface {
	Append(ctx context.Context, rec record.Record) (string, bool)
}

// Classifier turns one inbound delivery into one logged audit record.
type Classifier struct {
	audit  recordAppender
	logger *logrus.Entry
}

func New(audit recordAppender, logger *logrus.Entry) *Classifier {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Classifier{audit: audit, logger: logger}
}

// Classify builds the audit record for a delivery and appends it to the log.
// recvErr, when set, marks a delivery whose body could not be decoded; it
// takes precedence over any partially decoded update. Callback queries with
// no payload are recorded with an error instead of content. The returned
// record carries the assigned log id.
func (c *Classifier) Classify(ctx context.Context, upd *models.Update, recvErr error) record.Record {
	rec := record.Record{Action: record.ActionUpdate}
	if upd != nil {
		rec.UpdateID = upd.ID
	}

	switch {
	case recvErr != nil:
		rec.Method = record.MethodError
		rec.Error = recvErr.Error()

	case upd != nil && upd.Message != nil:
		msg := upd.Message
		rec.Method = record.MethodMessage
		rec.MessageID = int64(msg.ID)
		rec.Merge(record.UserFields(msg.From))
		rec.Merge(record.ChatFields(&msg.Chat))
		rec.Content = msg.Text
		rec.Attachment = record.EncodeEntities(msg.Entities)

	case upd != nil && upd.CallbackQuery != nil:
		cq := upd.CallbackQuery
		rec.Method = record.MethodCallbackQuery
		rec.Merge(record.UserFields(&cq.From))
		rec.Merge(callbackOrigin(cq.Message))
		if cq.Data == "" {
			rec.Error = "empty update query"
		} else {
			rec.Content = cq.Data
		}

	default:
		// Unrecognized shapes still get logged, with everything at its
		// default.
	}

	kind := rec.Method
	if kind == "" {
		kind = "unknown"
	}
	metrics.UpdatesTotal.WithLabelValues(kind).Inc()
	c.logger.WithFields(logging.Fields{
		"event":     "update_classified",
		"method":    rec.Method,
		"update_id": rec.UpdateID,
	}).Debug("classified inbound update")

	logID, _ := c.audit.Append(ctx, rec)
	rec.LogID = logID

	return rec
}

// callbackOrigin extracts the message a callback button was attached to.
// Inaccessible messages still identify the chat, so edits can target it.
func callbackOrigin(msg models.MaybeInaccessibleMessage) record.Record {
	switch msg.Type {
	case models.MaybeInaccessibleMessageTypeMessage:
		if msg.Message == nil {
			return record.Record{}
		}
		rec := record.ChatFields(&msg.Message.Chat)
		rec.MessageID = int64(msg.Message.ID)
		return rec
	case models.MaybeInaccessibleMessageTypeInaccessibleMessage:
		if msg.InaccessibleMessage == nil {
			return record.Record{}
		}
		rec := record.ChatFields(&msg.InaccessibleMessage.Chat)
		rec.MessageID = int64(msg.InaccessibleMessage.MessageID)
		return rec
	default:
		return record.Record{}
	}
}
