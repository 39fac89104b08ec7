// Package relay wires the pipeline stages together: every inbound delivery
// is classified and logged, dispatched to a handler, and answered with one
// outbound API call when a handler produced a reply.
package relay

import (
	"context"

	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"tg_relay_bot/internal/command"
	"tg_relay_bot/internal/logging"
	"tg_relay_bot/internal/record"
)

type classifier interface {
	Classify(ctx context.Context, upd *models.Update, recvErr error) record.Record
}

type dispatcher interface {
	Dispatch(ctx context.Context, rec record.Record) (string, command.Params, bool)
}

type apiCaller interface {
	CallJSON(ctx context.Context, method string, params map[string]any, updateID int64) record.Record
}

// Processor runs one delivery through the full pipeline.
type Processor struct {
	classifier classifier
	dispatcher dispatcher
	api        apiCaller
	logger     *logrus.Entry
}

func NewProcessor(classifier classifier, dispatcher dispatcher, api apiCaller, logger *logrus.Entry) *Processor {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Processor{
		classifier: classifier,
		dispatcher: dispatcher,
		api:        api,
		logger:     logger,
	}
}

// Process handles one delivery end to end. recvErr marks a body that could
// not be decoded; such deliveries are logged but never answered. Process
// never fails: every outcome, including API rejections, ends up in the audit
// log instead.
func (p *Processor) Process(ctx context.Context, upd *models.Update, recvErr error) {
	rec := p.classifier.Classify(ctx, upd, recvErr)

	method, params, ok := p.dispatcher.Dispatch(ctx, rec)
	if !ok {
		return
	}

	out := p.api.CallJSON(ctx, method, params, rec.UpdateID)
	if out.Error != "" {
		p.logger.WithFields(logging.Fields{
			"event":     "relay_reply_failed",
			"method":    method,
			"update_id": rec.UpdateID,
		}).Warn("reply was rejected by the api")
	}
}
