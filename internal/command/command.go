// Package command defines the handler contract for bot commands and the
// registry that routes detected command names to handlers.
package command

import (
	"context"

	"tg_relay_bot/internal/record"
)

// Params is the outbound call payload a handler produces. An empty (or nil)
// map means the handler chose not to reply.
type Params map[string]any

// Handler reacts to one classified update and returns the parameters for the
// outbound API call, or an error when it cannot.
type Handler func(ctx context.Context, rec record.Record) (Params, error)
