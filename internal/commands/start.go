package commands

import (
	"context"

	"tg_relay_bot/internal/command"
	"tg_relay_bot/internal/record"
)

const startText = `Hi! I relay questions to the article archive.

Send me some text to search it, or /help for the full command list.`

// Start replies with the introduction shown on first contact.
func Start() command.Handler {
	return func(context.Context, record.Record) (command.Params, error) {
		return command.Params{"text": startText}, nil
	}
}
