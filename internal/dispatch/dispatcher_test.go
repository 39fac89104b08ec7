package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"tg_relay_bot/internal/command"
	"tg_relay_bot/internal/record"
	"tg_relay_bot/internal/telegram"
)

func textHandler(text string) command.Handler {
	return func(context.Context, record.Record) (command.Params, error) {
		return command.Params{"text": text}, nil
	}
}

func newTestDispatcher(t *testing.T, fallback command.Handler, opts ...command.Option) *Dispatcher {
	t.Helper()

	registry, err := command.NewRegistry(map[string]command.Handler{
		"help": textHandler("help reply"),
	}, fallback, opts...)
	if err != nil {
		t.Fatalf("NewRegistry returned error: %v", err)
	}

	hookLogger, _ := logtest.NewNullLogger()
	return New(registry, logrus.NewEntry(hookLogger))
}

func commandRecord(text string, length int) record.Record {
	return record.Record{
		Method:  record.MethodMessage,
		ChatID:  10,
		Content: text,
		Attachment: record.EncodeEntities([]models.MessageEntity{
			{Type: models.MessageEntityTypeBotCommand, Offset: 0, Length: length},
		}),
	}
}

func TestDispatchKnownCommand(t *testing.T) {
	d := newTestDispatcher(t, textHandler("fallback reply"))

	method, params, ok := d.Dispatch(context.Background(), commandRecord("/help", 5))
	if !ok {
		t.Fatalf("expected dispatch to produce a call")
	}
	if method != telegram.MethodSendMessage {
		t.Fatalf("expected sendMessage, got %s", method)
	}
	if params["text"] != "help reply" || params["chat_id"] != int64(10) {
		t.Fatalf("unexpected params: %+v", params)
	}
	if _, present := params["message_id"]; present {
		t.Fatalf("message replies must not target a message id")
	}
}

func TestDispatchUnknownCommandFallsBack(t *testing.T) {
	d := newTestDispatcher(t, textHandler("fallback reply"))

	_, params, ok := d.Dispatch(context.Background(), commandRecord("/unknown", 8))
	if !ok || params["text"] != "fallback reply" {
		t.Fatalf("expected fallback handler, got %+v (ok=%v)", params, ok)
	}
}

func TestDispatchPlainMessageFallsBack(t *testing.T) {
	d := newTestDispatcher(t, textHandler("fallback reply"))

	rec := record.Record{Method: record.MethodMessage, ChatID: 10, Content: "mongo indexes"}
	_, params, ok := d.Dispatch(context.Background(), rec)
	if !ok || params["text"] != "fallback reply" {
		t.Fatalf("expected fallback handler, got %+v (ok=%v)", params, ok)
	}
}

func TestDispatchPaginationCallback(t *testing.T) {
	d := newTestDispatcher(t, textHandler("page two"))

	rec := record.Record{
		Method:    record.MethodCallbackQuery,
		ChatID:    10,
		MessageID: 33,
		Content:   "s=2&q=mongo",
	}

	method, params, ok := d.Dispatch(context.Background(), rec)
	if !ok {
		t.Fatalf("expected dispatch to produce a call")
	}
	if method != telegram.MethodEditMessageText {
		t.Fatalf("expected editMessageText, got %s", method)
	}
	if params["chat_id"] != int64(10) || params["message_id"] != int64(33) {
		t.Fatalf("expected edit to target the original message, got %+v", params)
	}
}

func TestDispatchNonPaginationCallbackSkipped(t *testing.T) {
	d := newTestDispatcher(t, textHandler("should not run"))

	rec := record.Record{Method: record.MethodCallbackQuery, ChatID: 10, Content: "choice:yes"}
	if _, _, ok := d.Dispatch(context.Background(), rec); ok {
		t.Fatalf("expected non-pagination callback to be skipped")
	}
}

func TestDispatchErrorRecordSkipped(t *testing.T) {
	d := newTestDispatcher(t, textHandler("should not run"))

	rec := record.Record{Method: record.MethodError, Error: "bad json"}
	if _, _, ok := d.Dispatch(context.Background(), rec); ok {
		t.Fatalf("expected error record to be skipped")
	}
}

func TestDispatchHandlerErrorSkipped(t *testing.T) {
	failing := func(context.Context, record.Record) (command.Params, error) {
		return nil, errors.New("repository down")
	}
	d := newTestDispatcher(t, failing)

	rec := record.Record{Method: record.MethodMessage, ChatID: 10, Content: "anything"}
	if _, _, ok := d.Dispatch(context.Background(), rec); ok {
		t.Fatalf("expected handler failure to skip the call")
	}
}

func TestDispatchEmptyParamsSkipped(t *testing.T) {
	empty := func(context.Context, record.Record) (command.Params, error) {
		return command.Params{}, nil
	}
	d := newTestDispatcher(t, empty)

	rec := record.Record{Method: record.MethodMessage, ChatID: 10, Content: "anything"}
	if _, _, ok := d.Dispatch(context.Background(), rec); ok {
		t.Fatalf("expected empty handler output to skip the call")
	}
}
