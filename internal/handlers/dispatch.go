package handlers

import (
	"strings"

	"clickat/internal/feedback"
)

// Handler produces result items for one payload.
type Handler func(ctx *Context, payload string) []feedback.Item

// command pairs a name with its handler. Matching is against the name
// plus one trailing space.
type command struct {
	name    string
	handler Handler
}

// Dispatcher routes a raw query to the first command whose prefix
// matches. Declaration order is the tie-breaker, so no registered name
// may be a prefix of a later one.
type Dispatcher struct {
	commands    []command
	defaultView Handler
	fallback    Handler
}

// NewDispatcher creates a dispatcher. defaultView serves the empty
// query; fallback serves queries no command matches and may be nil, in
// which case an unmatched query yields no items.
func NewDispatcher(defaultView, fallback Handler) *Dispatcher {
	return &Dispatcher{defaultView: defaultView, fallback: fallback}
}

// Register appends a command to the table.
func (d *Dispatcher) Register(name string, h Handler) {
	d.commands = append(d.commands, command{name: name, handler: h})
}

// Names returns the registered command names in declaration order.
func (d *Dispatcher) Names() []string {
	names := make([]string, len(d.commands))
	for i, c := range d.commands {
		names[i] = c.name
	}
	return names
}

// Dispatch routes rawQuery. The matched prefix (name + space) is
// stripped before the payload reaches the handler.
func (d *Dispatcher) Dispatch(ctx *Context, rawQuery string) []feedback.Item {
	if strings.TrimSpace(rawQuery) == "" {
		if d.defaultView == nil {
			return nil
		}
		return d.defaultView(ctx, "")
	}

	for _, c := range d.commands {
		prefix := c.name + " "
		if strings.HasPrefix(rawQuery, prefix) {
			return c.handler(ctx, strings.TrimPrefix(rawQuery, prefix))
		}
		// A bare command name with no payload yet.
		if rawQuery == c.name {
			return c.handler(ctx, "")
		}
	}

	if d.fallback == nil {
		return nil
	}
	return d.fallback(ctx, rawQuery)
}
