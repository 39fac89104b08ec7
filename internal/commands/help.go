// Package commands provides the built-in command handlers: the static
// help/start replies and the paginated article search.
package commands

import (
	"context"

	"tg_relay_bot/internal/command"
	"tg_relay_bot/internal/record"
)

const helpText = `Available commands:
/start - introduction
/help - this message
/search <text> - search the article archive

Plain messages are treated as search queries.`

// Help replies with the command overview.
func Help() command.Handler {
	return func(context.Context, record.Record) (command.Params, error) {
		return command.Params{"text": helpText}, nil
	}
}
