package engine

import (
	"context"
	"fmt"

	"github.com/chatline-im/chatline/internal/chat"
)

// MarkRead resets the local unread counter for key and, for direct
// conversations, tells the server. Local state is authoritative for the
// badge: the reset stands even when the remote call fails. A remote failure
// is logged and returned for surfacing, never retried. Groups carry no
// server-side read state.
func (e *Engine) MarkRead(ctx context.Context, key chat.ConversationKey) error {
	e.mu.Lock()
	conv := e.conversationLocked(key)
	changed := conv.unread != 0
	conv.unread = 0
	e.mu.Unlock()
	if changed {
		e.notify()
	}

	if key.Kind != chat.KindDirect || !e.self.Known() {
		return nil
	}
	if err := e.backend.MarkRead(ctx, key.ID); err != nil {
		e.log.Warn().Err(err).Stringer("conversation", key).Msg("mark-read failed")
		return fmt.Errorf("mark read %s: %w", key, err)
	}
	return nil
}
