package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/chatline-im/chatline/internal/api"
	"github.com/chatline-im/chatline/internal/chat"
)

// Select makes key the active conversation and loads its history. The local
// unread counter resets immediately (selection is a read action) and a read
// receipt goes to the server for direct conversations.
//
// The load is tagged with the key and a per-key sequence number. Its result
// applies only if, on completion, the key is still active and no newer load
// for the same key was issued; otherwise the result is discarded silently.
// Applying merges against anything the event router appended while the
// fetch was in flight, so a live event racing the load is neither lost nor
// duplicated.
//
// A "not found" response is an empty conversation, not an error. Any other
// failure returns chat.ErrHistoryFetch and leaves the log untouched.
func (e *Engine) Select(ctx context.Context, key chat.ConversationKey) error {
	if key.IsZero() {
		return fmt.Errorf("select: no conversation key")
	}

	e.mu.Lock()
	conv := e.conversationLocked(key)
	e.active = key
	e.activeSet = true
	conv.unread = 0
	e.loadSeq[key]++
	seq := e.loadSeq[key]
	e.mu.Unlock()
	e.notify()

	// Read receipt is best effort; the local badge reset above stands
	// whatever the server says.
	if key.Kind == chat.KindDirect && e.self.Known() {
		if err := e.backend.MarkRead(ctx, key.ID); err != nil {
			e.log.Warn().Err(err).Stringer("conversation", key).Msg("mark-read failed")
		}
	}

	var (
		msgs []chat.Message
		err  error
	)
	switch key.Kind {
	case chat.KindGroup:
		msgs, err = e.backend.GroupHistory(ctx, key.ID)
	default:
		msgs, err = e.backend.DirectHistory(ctx, key.ID)
	}
	if errors.Is(err, api.ErrNotFound) {
		msgs, err = nil, nil
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", chat.ErrHistoryFetch, key, err)
	}

	e.mu.Lock()
	applied := e.activeSet && e.active == key && e.loadSeq[key] == seq
	if applied {
		e.conversationLocked(key).mergeHistory(msgs)
	}
	e.mu.Unlock()

	if applied {
		e.notify()
	} else {
		e.log.Debug().Stringer("conversation", key).Msg("discarding stale history load")
	}
	return nil
}
