package command

import (
	"strings"

	"github.com/go-telegram/bot/models"

	"tg_relay_bot/internal/record"
)

// Detect scans a message record's encoded entities for a bot command and
// returns its name without the leading slash. When a message carries several
// commands the last one wins. The second return is false when the record has
// no command.
func Detect(rec record.Record) (string, bool) {
	entities := record.DecodeEntities(rec.Attachment)
	if len(entities) == 0 {
		return "", false
	}

	name := ""
	found := false
	for _, entity := range entities {
		if entity.Type != models.MessageEntityTypeBotCommand {
			continue
		}

		raw := slice(rec.Content, entity.Offset, entity.Length)
		if raw == "" {
			continue
		}

		name = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
		found = name != ""
	}

	return name, found
}

func slice(text string, offset, length int) string {
	if offset < 0 || length <= 0 || offset >= len(text) {
		return ""
	}

	end := offset + length
	if end > len(text) {
		end = len(text)
	}

	return text[offset:end]
}
