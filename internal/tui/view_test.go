package tui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/chatline-im/chatline/internal/chat"
	"github.com/chatline-im/chatline/internal/engine"
	"github.com/chatline-im/chatline/internal/tui/styles"
)

func TestEntryAtSpansBothSections(t *testing.T) {
	m := &Model{
		ranked: engine.RankedConversations{
			Direct: []chat.ConversationSummary{
				{Key: chat.DirectKey(1), Name: "alba"},
				{Key: chat.DirectKey(2), Name: "bob"},
			},
			Groups: []chat.ConversationSummary{
				{Key: chat.GroupKey(9), Name: "crew"},
			},
		},
	}

	key, ok := m.entryAt(0)
	assert.True(t, ok)
	assert.Equal(t, chat.DirectKey(1), key)

	key, ok = m.entryAt(2)
	assert.True(t, ok)
	assert.Equal(t, chat.GroupKey(9), key)

	_, ok = m.entryAt(3)
	assert.False(t, ok)
	_, ok = m.entryAt(-1)
	assert.False(t, ok)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", truncate("hello", 10))
	assert.Equal(t, "hell…", truncate("hello there", 5))
	assert.Equal(t, "", truncate("hello", 0))
	assert.Equal(t, "héll…", truncate("héllo there", 5))
}

func TestDayLabel(t *testing.T) {
	now := time.Now()
	assert.Equal(t, "Today", dayLabel(now))
	assert.Equal(t, "Yesterday", dayLabel(now.AddDate(0, 0, -1)))

	old := time.Date(2024, time.July, 4, 10, 0, 0, 0, time.Local)
	assert.Equal(t, "Jul 4, 2024", dayLabel(old))
}

func TestThemeForFallsBackToDefault(t *testing.T) {
	assert.Equal(t, styles.HighContrastTheme, themeFor("high-contrast"))
	assert.Equal(t, styles.DefaultTheme, themeFor("no-such-theme"))
	assert.Equal(t, styles.DefaultTheme, themeFor(""))
}
