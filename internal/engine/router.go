package engine

import (
	"github.com/chatline-im/chatline/internal/chat"
)

// HandleEvent routes one live push event into the registry. Delivery is
// at-least-once, so an id already in the log (a redelivery, or the echo of
// the viewer's own send) is dropped. Events that belong to no conversation
// of the viewer's are dropped rather than guessed at.
//
// The unread counter grows only when the target conversation is not the
// active one.
func (e *Engine) HandleEvent(msg chat.Message) {
	if msg.Kind == "" {
		if err := msg.Normalize(); err != nil {
			e.log.Debug().Err(err).Msg("dropping unroutable event")
			return
		}
	}

	key, ok := chat.ConversationKeyFor(msg, e.self)
	if !ok {
		e.log.Debug().Int64("message_id", msg.ID).Msg("dropping event unrelated to viewer")
		return
	}

	e.mu.Lock()
	conv := e.conversationLocked(key)
	inserted := conv.insert(msg)
	if inserted {
		if !(e.activeSet && e.active == key) {
			conv.unread++
		}
		// First contact from an unknown peer: attribute the conversation
		// before the directory has named it.
		if conv.name == "" && key.Kind == chat.KindDirect && msg.SenderID == key.ID {
			conv.name = msg.SenderName
		}
	}
	e.mu.Unlock()

	if inserted {
		e.notify()
	}
}
