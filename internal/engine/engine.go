// Package engine is the conversation synchronization core: it reconciles
// historical fetches with the live push stream into one consistent,
// deduplicated, ordered timeline per conversation, tracks unread counts and
// serves the ranked sidebar view.
//
// Invariants, per conversation:
//   - a server-confirmed message id appears at most once in the log
//   - the log is non-decreasing in CreatedAt at every observable point
//   - unread only grows for non-active conversations and only resets via an
//     explicit read action
//   - last activity always equals the newest message's CreatedAt
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/chatline-im/chatline/internal/api"
	"github.com/chatline-im/chatline/internal/chat"
	"github.com/chatline-im/chatline/internal/logging"
	"github.com/chatline-im/chatline/internal/transport"
)

// Backend is the request/response surface the engine needs from the chat
// server. *api.Client satisfies it; tests substitute a scripted fake.
type Backend interface {
	DirectHistory(ctx context.Context, peerID int64) ([]chat.Message, error)
	GroupHistory(ctx context.Context, groupID int64) ([]chat.Message, error)
	SendDirect(ctx context.Context, receiverID int64, body string) (api.SendReceipt, error)
	SendGroup(ctx context.Context, groupID, senderID int64, body string) (api.SendReceipt, error)
	MarkRead(ctx context.Context, peerID int64) error
	Users(ctx context.Context) ([]api.User, error)
	Groups(ctx context.Context) ([]api.Group, error)
}

// Engine owns the conversation registry for one session. Construct with
// New, wire the push stream with Start, tear down with Close. Histories and
// sends run on the caller's goroutine; the event router may append
// concurrently from transport goroutines.
type Engine struct {
	self      chat.Identity
	backend   Backend
	transport transport.Transport
	log       zerolog.Logger
	clock     func() time.Time

	mu            sync.Mutex
	conversations map[chat.ConversationKey]*conversation
	order         []chat.ConversationKey
	active        chat.ConversationKey
	activeSet     bool
	loadSeq       map[chat.ConversationKey]uint64
	subIDs        []string

	updates chan struct{}
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the fallback clock used when a send receipt omits its
// timestamp.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.clock = now }
}

// WithLogger overrides the component logger.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// New creates an engine for the given viewer identity. A zero identity is
// allowed: the engine then serves group traffic read-only and drops direct
// events it cannot attribute.
func New(self chat.Identity, backend Backend, tr transport.Transport, opts ...Option) *Engine {
	e := &Engine{
		self:          self,
		backend:       backend,
		transport:     tr,
		log:           logging.Component("engine"),
		clock:         func() time.Time { return time.Now().UTC() },
		conversations: make(map[chat.ConversationKey]*conversation),
		loadSeq:       make(map[chat.ConversationKey]uint64),
		updates:       make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start subscribes the registry-wide event handlers, one per event name.
// These keep the whole registry (and so the sidebar) current regardless of
// which conversation is on screen.
func (e *Engine) Start() error {
	for _, event := range []string{transport.EventDirectMessage, transport.EventGroupMessage} {
		id := "engine-" + event + "-" + uuid.NewString()
		if err := e.transport.Subscribe(id, event, e.HandleEvent); err != nil {
			e.teardownSubscriptions()
			return err
		}
		e.mu.Lock()
		e.subIDs = append(e.subIDs, id)
		e.mu.Unlock()
	}
	return nil
}

// Close removes only the engine's own subscriptions. The transport itself
// is shared and stays open for whoever else holds it.
func (e *Engine) Close() error {
	e.teardownSubscriptions()
	return nil
}

func (e *Engine) teardownSubscriptions() {
	e.mu.Lock()
	ids := e.subIDs
	e.subIDs = nil
	e.mu.Unlock()

	for _, id := range ids {
		if err := e.transport.Unsubscribe(id); err != nil {
			e.log.Debug().Err(err).Str("subscription", id).Msg("unsubscribe failed")
		}
	}
}

// Updates signals after every observable registry mutation. The channel is
// coalescing: consumers re-derive whatever views they need per signal.
func (e *Engine) Updates() <-chan struct{} {
	return e.updates
}

func (e *Engine) notify() {
	select {
	case e.updates <- struct{}{}:
	default:
	}
}

// Self returns the viewer's identity.
func (e *Engine) Self() chat.Identity {
	return e.self
}

// Active returns the currently selected conversation, if any.
func (e *Engine) Active() (chat.ConversationKey, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active, e.activeSet
}

// Messages returns a copy of a conversation's ordered log.
func (e *Engine) Messages(key chat.ConversationKey) []chat.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	conv, ok := e.conversations[key]
	if !ok {
		return nil
	}
	return conv.snapshot()
}

// Summary returns the sidebar summary for one conversation.
func (e *Engine) Summary(key chat.ConversationKey) (chat.ConversationSummary, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	conv, ok := e.conversations[key]
	if !ok {
		return chat.ConversationSummary{}, false
	}
	return conv.summary(), true
}

// conversationLocked returns the registry entry for key, creating it lazily.
// Conversations are never destroyed for the session's lifetime.
func (e *Engine) conversationLocked(key chat.ConversationKey) *conversation {
	if conv, ok := e.conversations[key]; ok {
		return conv
	}
	conv := newConversation(key, len(e.order))
	e.conversations[key] = conv
	e.order = append(e.order, key)
	return conv
}
