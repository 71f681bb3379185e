package engine

import (
	"sort"
	"time"

	"github.com/chatline-im/chatline/internal/chat"
)

// conversation is one registry entry: an ordered, deduplicated message log
// plus the unread counter and display name. All access goes through the
// engine's lock.
type conversation struct {
	key      chat.ConversationKey
	name     string
	messages []chat.Message
	ids      map[int64]struct{}
	unread   int

	// seq is the registry insertion order, the stable tie-break for ranking
	// conversations that have no activity.
	seq int
}

func newConversation(key chat.ConversationKey, seq int) *conversation {
	return &conversation{
		key: key,
		ids: make(map[int64]struct{}),
		seq: seq,
	}
}

// lastActivity is the CreatedAt of the newest message, or zero for an empty
// log. It is derived, never stored, so it cannot drift from the log.
func (c *conversation) lastActivity() time.Time {
	if len(c.messages) == 0 {
		return time.Time{}
	}
	return c.messages[len(c.messages)-1].CreatedAt
}

// insert adds a message in CreatedAt order, ties broken by arrival order.
// Returns false if a message with the same id is already present.
func (c *conversation) insert(m chat.Message) bool {
	if _, dup := c.ids[m.ID]; dup {
		return false
	}

	idx := sort.Search(len(c.messages), func(i int) bool {
		return c.messages[i].CreatedAt.After(m.CreatedAt)
	})

	c.messages = append(c.messages, chat.Message{})
	copy(c.messages[idx+1:], c.messages[idx:])
	c.messages[idx] = m
	c.ids[m.ID] = struct{}{}
	return true
}

// mergeHistory replaces the log with the fetched history, then folds back
// in anything already appended live while the fetch was in flight. The
// merge is idempotent: ids present in both sources end up exactly once.
func (c *conversation) mergeHistory(history []chat.Message) {
	live := c.messages

	c.messages = make([]chat.Message, 0, len(history)+len(live))
	c.ids = make(map[int64]struct{}, len(history)+len(live))

	sorted := make([]chat.Message, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	for _, m := range sorted {
		c.insert(m)
	}
	for _, m := range live {
		c.insert(m)
	}
}

// snapshot copies the log for readers outside the engine lock.
func (c *conversation) snapshot() []chat.Message {
	out := make([]chat.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *conversation) summary() chat.ConversationSummary {
	return chat.ConversationSummary{
		Key:          c.key,
		Name:         c.name,
		MessageCount: len(c.messages),
		Unread:       c.unread,
		LastActivity: c.lastActivity(),
	}
}
