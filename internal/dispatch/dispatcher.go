// Package dispatch routes classified updates to command handlers and shapes
// the outbound call that answers them.
package dispatch

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"tg_relay_bot/internal/command"
	"tg_relay_bot/internal/logging"
	"tg_relay_bot/internal/record"
	"tg_relay_bot/internal/telegram"
)

// Dispatcher picks the handler for an update and prepares the reply call.
type Dispatcher struct {
	registry *command.Registry
	logger   *logrus.Entry
}

func New(registry *command.Registry, logger *logrus.Entry) *Dispatcher {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Dispatcher{registry: registry, logger: logger}
}

// Dispatch resolves the handler for rec and returns the API method and
// parameters of the reply. ok is false when no call should be made: decode
// failures, callbacks without a pagination payload, and handlers that
// produced nothing all end the pipeline here.
func (d *Dispatcher) Dispatch(ctx context.Context, rec record.Record) (string, command.Params, bool) {
	var (
		method  string
		handler command.Handler
	)

	switch rec.Method {
	case record.MethodMessage:
		method = telegram.MethodSendMessage
		handler = d.messageHandler(rec)

	case record.MethodCallbackQuery:
		// Only pagination callbacks are actionable; everything else
		// (including empty payloads) was already recorded upstream.
		if !strings.Contains(rec.Content, "s=") {
			return d.noop(rec, "callback without pagination payload")
		}
		method = telegram.MethodEditMessageText
		handler = d.registry.Fallback()

	default:
		return d.noop(rec, "no handler for method")
	}

	params, err := handler(ctx, rec)
	if err != nil {
		d.logger.WithFields(logging.Fields{
			"event":     "handler_failed",
			"method":    rec.Method,
			"update_id": rec.UpdateID,
		}).WithError(err).Warn("command handler failed")
		return "", nil, false
	}
	if len(params) == 0 {
		return d.noop(rec, "handler produced no reply")
	}

	if rec.ChatID != 0 {
		params["chat_id"] = rec.ChatID
	}
	if method == telegram.MethodEditMessageText {
		params["message_id"] = rec.MessageID
	}

	return method, params, true
}

func (d *Dispatcher) messageHandler(rec record.Record) command.Handler {
	name, ok := command.Detect(rec)
	if !ok {
		return d.registry.Fallback()
	}

	handler, ok := d.registry.Lookup(name)
	if !ok {
		return d.registry.Fallback()
	}

	return handler
}

func (d *Dispatcher) noop(rec record.Record, reason string) (string, command.Params, bool) {
	d.logger.WithFields(logging.Fields{
		"event":     "relay_noop",
		"method":    rec.Method,
		"update_id": rec.UpdateID,
		"reason":    reason,
	}).Debug("no outbound call for update")

	return "", nil, false
}
