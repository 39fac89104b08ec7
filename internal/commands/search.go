package commands

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-telegram/bot/models"

	"tg_relay_bot/internal/command"
	"tg_relay_bot/internal/record"
	"tg_relay_bot/internal/store"
)

const defaultPageSize = 5

// articleSearcher is the slice of the article repository the handler uses.
type articleSearcher interface {
	Search(ctx context.Context, query string, skip, limit int64) ([]store.Article, int64, error)
}

// Search answers queries against the article archive, one page at a time.
// Pagination buttons carry the page and query back as callback data in the
// form s=<page>&q=<query>.
type Search struct {
	articles articleSearcher
	pageSize int64
}

func NewSearch(articles articleSearcher) *Search {
	return &Search{articles: articles, pageSize: defaultPageSize}
}

// Handle serves both legs of a search: the initial message (query taken from
// the text, command prefix stripped) and the pagination callback (page and
// query decoded from the callback data).
func (s *Search) Handle(ctx context.Context, rec record.Record) (command.Params, error) {
	query, page := s.parse(rec)
	if query == "" {
		return command.Params{"text": "Send me some text to search for, e.g. /search indexes"}, nil
	}

	skip := (page - 1) * s.pageSize
	articles, total, err := s.articles.Search(ctx, query, skip, s.pageSize)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	if total == 0 {
		return command.Params{"text": fmt.Sprintf("Nothing found for %q.", query)}, nil
	}

	pages := (total + s.pageSize - 1) / s.pageSize
	if page > pages {
		return command.Params{"text": fmt.Sprintf("No page %d for %q.", page, query)}, nil
	}

	params := command.Params{"text": renderPage(query, page, pages, skip, articles)}
	if markup := pageButtons(query, page, pages); markup != nil {
		params["reply_markup"] = markup
	}

	return params, nil
}

// parse extracts the query and requested page from the record. Callback
// records carry both in the callback data; message records carry the query
// as text and always start at page one.
func (s *Search) parse(rec record.Record) (string, int64) {
	if rec.Method == record.MethodCallbackQuery && strings.Contains(rec.Content, "s=") {
		values, err := url.ParseQuery(rec.Content)
		if err != nil {
			return "", 1
		}

		page, err := strconv.ParseInt(values.Get("s"), 10, 64)
		if err != nil || page < 1 {
			page = 1
		}

		return strings.TrimSpace(values.Get("q")), page
	}

	text := strings.TrimSpace(rec.Content)
	if name, ok := command.Detect(rec); ok {
		text = strings.TrimSpace(strings.TrimPrefix(text, "/"+name))
	}

	return text, 1
}

func renderPage(query string, page, pages, skip int64, articles []store.Article) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Results for %q (page %d of %d):\n", query, page, pages)
	for i, article := range articles {
		fmt.Fprintf(&b, "\n%d. %s", skip+int64(i)+1, article.Title)
		if article.URL != "" {
			fmt.Fprintf(&b, "\n   %s", article.URL)
		}
	}

	return b.String()
}

func pageButtons(query string, page, pages int64) *models.InlineKeyboardMarkup {
	var row []models.InlineKeyboardButton
	if page > 1 {
		row = append(row, models.InlineKeyboardButton{
			Text:         "« prev",
			CallbackData: pageData(query, page-1),
		})
	}
	if page < pages {
		row = append(row, models.InlineKeyboardButton{
			Text:         "next »",
			CallbackData: pageData(query, page+1),
		})
	}
	if len(row) == 0 {
		return nil
	}

	return &models.InlineKeyboardMarkup{InlineKeyboard: [][]models.InlineKeyboardButton{row}}
}

func pageData(query string, page int64) string {
	return fmt.Sprintf("s=%d&q=%s", page, url.QueryEscape(query))
}
