// Package chat defines the domain model shared by the sync engine, the
// API client, the push transport and the TUI.
package chat

import (
	"fmt"
	"time"
)

// Kind discriminates direct (peer-to-peer) from group conversations.
type Kind string

const (
	KindDirect Kind = "direct"
	KindGroup  Kind = "group"
)

// Message is a single chat message. ID is assigned by the server; a message
// that has not been confirmed yet never appears in a conversation log.
// Exactly one of ReceiverID/GroupID is set, mirrored by Kind.
type Message struct {
	ID         int64     `json:"id"`
	Kind       Kind      `json:"-"`
	SenderID   int64     `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	ReceiverID int64     `json:"receiver_id,omitempty"`
	GroupID    int64     `json:"group_id,omitempty"`
	Body       string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

// Normalize derives Kind from the wire fields and rejects payloads that
// cannot be routed exhaustively (both or neither target set).
func (m *Message) Normalize() error {
	switch {
	case m.GroupID != 0 && m.ReceiverID != 0:
		return fmt.Errorf("message %d: both receiver_id and group_id set", m.ID)
	case m.GroupID != 0:
		m.Kind = KindGroup
	case m.ReceiverID != 0:
		m.Kind = KindDirect
	default:
		return fmt.Errorf("message %d: neither receiver_id nor group_id set", m.ID)
	}
	return nil
}

// ConversationKey uniquely identifies a conversation: the peer user id for
// direct conversations, the group id for group conversations.
type ConversationKey struct {
	Kind Kind
	ID   int64
}

// DirectKey returns the key for a direct conversation with the given peer.
func DirectKey(peerID int64) ConversationKey {
	return ConversationKey{Kind: KindDirect, ID: peerID}
}

// GroupKey returns the key for a group conversation.
func GroupKey(groupID int64) ConversationKey {
	return ConversationKey{Kind: KindGroup, ID: groupID}
}

// IsZero reports whether the key identifies no conversation.
func (k ConversationKey) IsZero() bool {
	return k.Kind == "" || k.ID == 0
}

func (k ConversationKey) String() string {
	return fmt.Sprintf("%s/%d", k.Kind, k.ID)
}

// ConversationKeyFor resolves the conversation a message belongs to,
// relative to the viewer's identity. Group messages key by group id. Direct
// messages key by the peer: the sender when the viewer received it, the
// receiver when the viewer sent it. Messages that are neither to nor from
// the viewer resolve to nothing and must be dropped, not guessed at.
func ConversationKeyFor(m Message, self Identity) (ConversationKey, bool) {
	switch m.Kind {
	case KindGroup:
		return GroupKey(m.GroupID), true
	case KindDirect:
		if !self.Known() {
			return ConversationKey{}, false
		}
		switch {
		case m.SenderID == self.UserID:
			return DirectKey(m.ReceiverID), true
		case m.ReceiverID == self.UserID:
			return DirectKey(m.SenderID), true
		}
	}
	return ConversationKey{}, false
}

// ConversationSummary is a ranked sidebar entry derived from the registry.
type ConversationSummary struct {
	Key          ConversationKey
	Name         string
	MessageCount int
	Unread       int
	LastActivity time.Time
}
