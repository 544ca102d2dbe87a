package keylog

import (
	"context"
	"fmt"
	"time"
)

// EventType distinguishes key presses from releases.
type EventType string

const (
	KeyDown EventType = "down"
	KeyUp   EventType = "up"
)

// Event describes a single key transition.
type Event struct {
	Time time.Time
	Name string
	Type EventType
}

// Source emits key events until the context is cancelled or the source fails.
// Implementations call emit synchronously; a non-nil return from emit must stop the stream.
type Source interface {
	Stream(ctx context.Context, emit func(Event) error) error
}

// SourceFunc adapts a function literal to the Source interface.
type SourceFunc func(ctx context.Context, emit func(Event) error) error

// Stream calls the underlying function.
func (f SourceFunc) Stream(ctx context.Context, emit func(Event) error) error {
	return f(ctx, emit)
}

// ScriptedSource replays a fixed sequence of events and then returns nil.
func ScriptedSource(events ...Event) Source {
	timeline := append([]Event(nil), events...)
	return SourceFunc(func(ctx context.Context, emit func(Event) error) error {
		for _, event := range timeline {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := emit(event); err != nil {
				return err
			}
		}
		return nil
	})
}

// FormatKeyLine renders the journal message for an event.
func FormatKeyLine(event Event) string {
	name := event.Name
	if name == "" {
		name = "unknown"
	}
	return fmt.Sprintf("Key %s %s", name, event.Type)
}
