package engine

import (
	"sort"
	"strings"

	"github.com/chatline-im/chatline/internal/chat"
)

// RankedConversations is the derived sidebar view, direct and group
// conversations ranked separately.
type RankedConversations struct {
	Direct []chat.ConversationSummary
	Groups []chat.ConversationSummary
}

// Rank derives the sorted, search-filtered conversation list. The filter is
// a case-insensitive substring match on display name; ordering is by last
// activity, newest first, with never-active conversations last in registry
// order. Pure derivation: the registry is not mutated.
func (e *Engine) Rank(query string) RankedConversations {
	q := strings.ToLower(strings.TrimSpace(query))

	e.mu.Lock()
	var ranked RankedConversations
	for _, key := range e.order {
		conv := e.conversations[key]
		if q != "" && !strings.Contains(strings.ToLower(conv.name), q) {
			continue
		}
		if key.Kind == chat.KindGroup {
			ranked.Groups = append(ranked.Groups, conv.summary())
		} else {
			ranked.Direct = append(ranked.Direct, conv.summary())
		}
	}
	e.mu.Unlock()

	rankByRecency(ranked.Direct)
	rankByRecency(ranked.Groups)
	return ranked
}

func rankByRecency(summaries []chat.ConversationSummary) {
	sort.SliceStable(summaries, func(i, j int) bool {
		a, b := summaries[i].LastActivity, summaries[j].LastActivity
		if a.IsZero() {
			return false
		}
		if b.IsZero() {
			return true
		}
		return a.After(b)
	})
}
