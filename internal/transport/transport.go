// Package transport provides the live push channel for newly created
// messages. The channel is process-wide and at-least-once: subscribers must
// deduplicate, and ordering across distinct emitters is not guaranteed.
package transport

import (
	"context"
	"errors"

	"github.com/chatline-im/chatline/internal/chat"
)

// Event names carried on the wire, one per message kind.
const (
	EventDirectMessage = "newMessage"
	EventGroupMessage  = "newGroupMessage"
)

// EventFor maps a conversation kind to its wire event name.
func EventFor(kind chat.Kind) string {
	if kind == chat.KindGroup {
		return EventGroupMessage
	}
	return EventDirectMessage
}

// Handler is invoked for each message delivered on a subscribed event.
type Handler func(msg chat.Message)

// Transport is a bidirectional emit/listen channel. Subscriptions are keyed
// by caller-chosen ids so a view can tear down its own listener without
// touching the registry-wide one.
type Transport interface {
	// Emit broadcasts a message on the named event. Best effort: the caller
	// treats failures as non-fatal.
	Emit(ctx context.Context, event string, msg chat.Message) error

	// Subscribe registers a handler for one event name. The id must be
	// unique among live subscriptions.
	Subscribe(id, event string, handler Handler) error

	// Unsubscribe removes a single subscription by id.
	Unsubscribe(id string) error

	// Close tears the whole channel down, dropping every subscription.
	Close() error
}

// Errors shared by transport implementations.
var (
	ErrInvalidSubscriptionID = errors.New("subscription id is required")
	ErrNilHandler            = errors.New("handler cannot be nil")
	ErrSubscriptionExists    = errors.New("subscription with this id already exists")
	ErrSubscriptionNotFound  = errors.New("subscription not found")
	ErrNotConnected          = errors.New("transport not connected")
)
