package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/chatline-im/chatline/internal/api"
	"github.com/chatline-im/chatline/internal/chat"
	"github.com/chatline-im/chatline/internal/transport"
)

// Send persists an outgoing message, appends the server-confirmed copy to
// the conversation log and broadcasts it on the push channel.
//
// Confirmation precedes append: no optimistic entry ever reaches the shared
// log, so a persist failure leaves no artifact behind and the echoed event
// can never race a provisional duplicate. The in-flight send carries a
// provisional client reference for log correlation only; it is never a
// message id.
//
// Broadcast failure is non-fatal and not retried: the message is already
// durable and visible to the sender. Two identical Send calls produce two
// distinct messages; dedup applies to delivery of one id, not user intent.
func (e *Engine) Send(ctx context.Context, key chat.ConversationKey, body string) (chat.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" || key.IsZero() {
		return chat.Message{}, chat.ErrInvalidSend
	}
	if !e.self.Known() {
		return chat.Message{}, fmt.Errorf("%w: anonymous viewer cannot send", chat.ErrInvalidSend)
	}

	ref := uuid.NewString()
	e.log.Debug().Str("send_ref", ref).Stringer("conversation", key).Msg("persisting message")

	var (
		receipt api.SendReceipt
		err     error
	)
	switch key.Kind {
	case chat.KindGroup:
		receipt, err = e.backend.SendGroup(ctx, key.ID, e.self.UserID, body)
	default:
		receipt, err = e.backend.SendDirect(ctx, key.ID, body)
	}
	if err != nil {
		return chat.Message{}, fmt.Errorf("%w: %s: %v", chat.ErrSendPersist, key, err)
	}

	createdAt := receipt.CreatedAt
	if createdAt.IsZero() {
		createdAt = e.clock()
	}
	senderName := receipt.SenderName
	if senderName == "" {
		senderName = e.self.UserName
	}

	msg := chat.Message{
		ID:         receipt.ID,
		Kind:       key.Kind,
		SenderID:   e.self.UserID,
		SenderName: senderName,
		Body:       body,
		CreatedAt:  createdAt,
	}
	if key.Kind == chat.KindGroup {
		msg.GroupID = key.ID
	} else {
		msg.ReceiverID = key.ID
	}

	// Insert dedups against the echoed event in case the transport beat us
	// to our own confirmation.
	e.mu.Lock()
	e.conversationLocked(key).insert(msg)
	e.mu.Unlock()
	e.notify()

	if err := e.transport.Emit(ctx, transport.EventFor(key.Kind), msg); err != nil {
		e.log.Warn().
			Err(fmt.Errorf("%w: %v", chat.ErrBroadcast, err)).
			Str("send_ref", ref).
			Int64("message_id", msg.ID).
			Msg("message persisted but not broadcast")
	}
	return msg, nil
}
