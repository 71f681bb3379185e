package engine

import (
	"context"
	"fmt"

	"github.com/chatline-im/chatline/internal/chat"
)

// RefreshDirectory pulls the user and group lists so every potential
// conversation exists in the registry with a display name before any
// traffic arrives. Existing logs and unread counters are untouched.
func (e *Engine) RefreshDirectory(ctx context.Context) error {
	users, err := e.backend.Users(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	groups, err := e.backend.Groups(ctx)
	if err != nil {
		return fmt.Errorf("list groups: %w", err)
	}

	e.mu.Lock()
	for _, u := range users {
		if u.ID == e.self.UserID {
			continue
		}
		e.conversationLocked(chat.DirectKey(u.ID)).name = u.Username
	}
	for _, g := range groups {
		e.conversationLocked(chat.GroupKey(g.ID)).name = g.Name
	}
	e.mu.Unlock()

	e.notify()
	return nil
}
