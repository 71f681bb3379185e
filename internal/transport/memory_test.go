package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chatline-im/chatline/internal/chat"
)

func directMsg(id int64) chat.Message {
	return chat.Message{
		ID:         id,
		Kind:       chat.KindDirect,
		SenderID:   42,
		SenderName: "bob",
		ReceiverID: 10,
		Body:       "hey",
		CreatedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestMemoryEmitReachesMatchingSubscribers(t *testing.T) {
	m := NewMemory()

	var direct, group []chat.Message
	require.NoError(t, m.Subscribe("d", EventDirectMessage, func(msg chat.Message) {
		direct = append(direct, msg)
	}))
	require.NoError(t, m.Subscribe("g", EventGroupMessage, func(msg chat.Message) {
		group = append(group, msg)
	}))

	require.NoError(t, m.Emit(context.Background(), EventDirectMessage, directMsg(1)))

	require.Len(t, direct, 1)
	require.Empty(t, group)
	require.Equal(t, int64(1), direct[0].ID)
}

func TestMemorySubscriptionValidation(t *testing.T) {
	m := NewMemory()

	require.ErrorIs(t, m.Subscribe("", EventDirectMessage, func(chat.Message) {}), ErrInvalidSubscriptionID)
	require.ErrorIs(t, m.Subscribe("x", EventDirectMessage, nil), ErrNilHandler)

	require.NoError(t, m.Subscribe("x", EventDirectMessage, func(chat.Message) {}))
	require.ErrorIs(t, m.Subscribe("x", EventDirectMessage, func(chat.Message) {}), ErrSubscriptionExists)

	require.NoError(t, m.Unsubscribe("x"))
	require.ErrorIs(t, m.Unsubscribe("x"), ErrSubscriptionNotFound)
}

func TestMemoryUnsubscribeLeavesOthersIntact(t *testing.T) {
	m := NewMemory()

	var registryWide int
	require.NoError(t, m.Subscribe("registry", EventDirectMessage, func(chat.Message) { registryWide++ }))
	require.NoError(t, m.Subscribe("view", EventDirectMessage, func(chat.Message) {}))

	// Tearing down a view listener must not silence the registry-wide one.
	require.NoError(t, m.Unsubscribe("view"))
	require.NoError(t, m.Emit(context.Background(), EventDirectMessage, directMsg(1)))
	require.Equal(t, 1, registryWide)
	require.Equal(t, 1, m.SubscriberCount())
}

func TestMemoryClosedEmitFails(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Close())
	require.ErrorIs(t, m.Emit(context.Background(), EventDirectMessage, directMsg(1)), ErrNotConnected)
}
