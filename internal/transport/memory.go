package transport

import (
	"context"
	"sync"

	"github.com/chatline-im/chatline/internal/chat"
)

// subscription is one live event listener.
type subscription struct {
	id      string
	event   string
	handler Handler
}

// Memory is an in-process Transport. It backs tests and single-process
// setups where several views share one engine, and doubles as the local
// loopback: every Emit is also delivered to local subscribers, matching the
// at-least-once contract of the real channel.
type Memory struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
	closed        bool
}

// NewMemory creates an in-process transport.
func NewMemory() *Memory {
	return &Memory{
		subscriptions: make(map[string]*subscription),
	}
}

// Emit delivers the message to every handler subscribed to the event.
// Handlers run outside the lock so they may re-enter the transport.
func (m *Memory) Emit(_ context.Context, event string, msg chat.Message) error {
	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return ErrNotConnected
	}
	var handlers []Handler
	for _, sub := range m.subscriptions {
		if sub.event == event {
			handlers = append(handlers, sub.handler)
		}
	}
	m.mu.RUnlock()

	for _, handler := range handlers {
		handler(msg)
	}
	return nil
}

// Subscribe registers a handler for one event name.
func (m *Memory) Subscribe(id, event string, handler Handler) error {
	if id == "" {
		return ErrInvalidSubscriptionID
	}
	if handler == nil {
		return ErrNilHandler
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.subscriptions[id]; exists {
		return ErrSubscriptionExists
	}
	m.subscriptions[id] = &subscription{id: id, event: event, handler: handler}
	return nil
}

// Unsubscribe removes a subscription by id.
func (m *Memory) Unsubscribe(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.subscriptions[id]; !exists {
		return ErrSubscriptionNotFound
	}
	delete(m.subscriptions, id)
	return nil
}

// SubscriberCount returns the number of live subscriptions.
func (m *Memory) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions)
}

// Close drops all subscriptions; further Emits fail.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions = make(map[string]*subscription)
	m.closed = true
	return nil
}
