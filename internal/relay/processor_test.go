package relay

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"tg_relay_bot/internal/classify"
	"tg_relay_bot/internal/command"
	"tg_relay_bot/internal/commands"
	"tg_relay_bot/internal/dispatch"
	"tg_relay_bot/internal/record"
	"tg_relay_bot/internal/store"
	"tg_relay_bot/internal/telegram"
)

type fakeAudit struct {
	records []record.Record
}

func (f *fakeAudit) Append(_ context.Context, rec record.Record) (string, bool) {
	f.records = append(f.records, rec)
	return "log-id", true
}

type fakeAPI struct {
	calls []apiCall
}

type apiCall struct {
	method   string
	params   map[string]any
	updateID int64
}

func (f *fakeAPI) CallJSON(_ context.Context, method string, params map[string]any, updateID int64) record.Record {
	f.calls = append(f.calls, apiCall{method: method, params: params, updateID: updateID})
	return record.Record{Method: method, Action: record.ActionResponse}
}

type fakeSearcher struct {
	articles []store.Article
	total    int64
}

func (f *fakeSearcher) Search(context.Context, string, int64, int64) ([]store.Article, int64, error) {
	return f.articles, f.total, nil
}

func newTestProcessor(t *testing.T, audit *fakeAudit, api *fakeAPI, searcher *fakeSearcher) *Processor {
	t.Helper()

	search := commands.NewSearch(searcher)
	registry, err := command.NewRegistry(map[string]command.Handler{
		"help":   commands.Help(),
		"start":  commands.Start(),
		"search": search.Handle,
	}, search.Handle)
	if err != nil {
		t.Fatalf("NewRegistry returned error: %v", err)
	}

	hookLogger, _ := logtest.NewNullLogger()
	entry := logrus.NewEntry(hookLogger)

	return NewProcessor(
		classify.New(audit, entry),
		dispatch.New(registry, entry),
		api,
		entry,
	)
}

func TestProcessHelpCommand(t *testing.T) {
	audit := &fakeAudit{}
	api := &fakeAPI{}
	p := newTestProcessor(t, audit, api, &fakeSearcher{})

	upd := &models.Update{
		ID: 51,
		Message: &models.Message{
			ID:   3,
			From: &models.User{ID: 77, Username: "alice"},
			Chat: models.Chat{ID: 77, Type: "private", Username: "alice"},
			Text: "/help",
			Entities: []models.MessageEntity{
				{Type: models.MessageEntityTypeBotCommand, Offset: 0, Length: 5},
			},
		},
	}

	p.Process(context.Background(), upd, nil)

	if len(audit.records) != 1 {
		t.Fatalf("expected one inbound record, got %d", len(audit.records))
	}
	if audit.records[0].Method != record.MethodMessage || audit.records[0].UpdateID != 51 {
		t.Fatalf("unexpected inbound record: %+v", audit.records[0])
	}

	if len(api.calls) != 1 {
		t.Fatalf("expected one outbound call, got %d", len(api.calls))
	}
	call := api.calls[0]
	if call.method != telegram.MethodSendMessage || call.updateID != 51 {
		t.Fatalf("unexpected outbound call: %+v", call)
	}
	if call.params["chat_id"] != int64(77) {
		t.Fatalf("expected chat id in params, got %+v", call.params)
	}
	text, _ := call.params["text"].(string)
	if !strings.Contains(text, "/search") {
		t.Fatalf("expected help text, got %q", text)
	}
}

func TestProcessPaginationCallback(t *testing.T) {
	audit := &fakeAudit{}
	api := &fakeAPI{}
	p := newTestProcessor(t, audit, api, &fakeSearcher{
		articles: []store.Article{{Title: "Second page"}},
		total:    8,
	})

	upd := &models.Update{
		ID: 52,
		CallbackQuery: &models.CallbackQuery{
			From: models.User{ID: 77},
			Data: "s=2&q=mongo",
			Message: models.MaybeInaccessibleMessage{
				Type: models.MaybeInaccessibleMessageTypeMessage,
				Message: &models.Message{
					ID:   9,
					Chat: models.Chat{ID: 77, Type: "private", Username: "alice"},
				},
			},
		},
	}

	p.Process(context.Background(), upd, nil)

	if len(api.calls) != 1 {
		t.Fatalf("expected one outbound call, got %d", len(api.calls))
	}
	call := api.calls[0]
	if call.method != telegram.MethodEditMessageText {
		t.Fatalf("expected editMessageText, got %s", call.method)
	}
	if call.params["message_id"] != int64(9) {
		t.Fatalf("expected original message targeted, got %+v", call.params)
	}
}

func TestProcessDecodeFailureIsLoggedNotAnswered(t *testing.T) {
	audit := &fakeAudit{}
	api := &fakeAPI{}
	p := newTestProcessor(t, audit, api, &fakeSearcher{})

	p.Process(context.Background(), nil, errors.New("unexpected end of JSON input"))

	if len(audit.records) != 1 || audit.records[0].Method != record.MethodError {
		t.Fatalf("expected one error record, got %+v", audit.records)
	}
	if len(api.calls) != 0 {
		t.Fatalf("decode failures must not be answered, got %d calls", len(api.calls))
	}
}

func TestProcessEmptyCallbackIsLoggedNotAnswered(t *testing.T) {
	audit := &fakeAudit{}
	api := &fakeAPI{}
	p := newTestProcessor(t, audit, api, &fakeSearcher{})

	upd := &models.Update{
		ID: 53,
		CallbackQuery: &models.CallbackQuery{
			From: models.User{ID: 77},
			Message: models.MaybeInaccessibleMessage{
				Type: models.MaybeInaccessibleMessageTypeMessage,
				Message: &models.Message{
					ID:   9,
					Chat: models.Chat{ID: 77, Type: "private"},
				},
			},
		},
	}

	p.Process(context.Background(), upd, nil)

	if len(audit.records) != 1 || audit.records[0].Error != "empty update query" {
		t.Fatalf("expected empty query record, got %+v", audit.records)
	}
	if len(api.calls) != 0 {
		t.Fatalf("empty callbacks must not be answered, got %d calls", len(api.calls))
	}
}
