// Package observe carries broadcast and commit events out of the flux layer
// to logging, journaling, or test recorders.
package observe

import (
	"context"
	"log/slog"
)

// EventType identifies the kind of event.
type EventType string

const (
	BroadcastStart EventType = "broadcast.start"
	BroadcastEnd   EventType = "broadcast.end"
	BroadcastError EventType = "broadcast.error"
	StoreCreate    EventType = "store.create"
	StoreCommit    EventType = "store.commit"
	StoreNotify    EventType = "store.notify"
	StoreDispose   EventType = "store.dispose"
	StateMutated   EventType = "state.mutated"
)

// Level maps event severity onto slog levels.
func (t EventType) Level() slog.Level {
	switch t {
	case BroadcastError:
		return slog.LevelError
	case StateMutated:
		return slog.LevelWarn
	case BroadcastStart, BroadcastEnd, StoreCreate, StoreDispose:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// Event is emitted synchronously by the flux layer.
//
// Seq is the logical clock value of the broadcast (for broadcast.* events)
// or of the commit (for store.commit). Store is empty for broadcast events.
type Event struct {
	Type        EventType
	BroadcastID string
	Seq         int64
	Store       string
	ActionType  string
	Data        map[string]any
}

// Observer receives events. Implementations must not dispatch.
type Observer interface {
	OnEvent(ctx context.Context, event Event)
}

// NoOpObserver discards all events.
type NoOpObserver struct{}

func (NoOpObserver) OnEvent(ctx context.Context, event Event) {}

// MultiObserver fans out events to multiple observers in order.
type MultiObserver struct {
	observers []Observer
}

// NewMultiObserver creates a MultiObserver that forwards events to all
// non-nil observers.
func NewMultiObserver(observers ...Observer) *MultiObserver {
	filtered := make([]Observer, 0, len(observers))
	for _, obs := range observers {
		if obs != nil {
			filtered = append(filtered, obs)
		}
	}
	return &MultiObserver{observers: filtered}
}

func (m *MultiObserver) OnEvent(ctx context.Context, event Event) {
	for _, obs := range m.observers {
		obs.OnEvent(ctx, event)
	}
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, event Event)

func (f ObserverFunc) OnEvent(ctx context.Context, event Event) {
	f(ctx, event)
}
