package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/chatline-im/chatline/internal/chat"
)

const sidebarWidth = 30

func (m *Model) View() string {
	if m.width == 0 {
		return "loading..."
	}

	contentHeight := m.height - 2
	sidebar := m.renderSidebar(contentHeight)
	pane := m.renderConversation(m.width-sidebarWidth-1, contentHeight)

	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, pane)
	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), body, m.renderFooter())
}

func (m *Model) renderHeader() string {
	title := "chatline · anonymous"
	if self := m.eng.Self(); self.Known() {
		title = "chatline · " + self.UserName
	}
	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Chrome.Header)).
		Foreground(lipgloss.Color(m.theme.Base.Foreground)).
		Width(m.width).
		Padding(0, 1).
		Render(title)
}

func (m *Model) renderFooter() string {
	hint := "enter: open · /: search · tab: compose · q: quit"
	if m.statusErr != "" {
		hint = m.statusErr
		return lipgloss.NewStyle().
			Background(lipgloss.Color(m.theme.Chrome.Footer)).
			Foreground(lipgloss.Color(m.theme.Chrome.Error)).
			Width(m.width).
			Padding(0, 1).
			Render(hint)
	}
	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Chrome.Footer)).
		Foreground(lipgloss.Color(m.theme.Base.Muted)).
		Width(m.width).
		Padding(0, 1).
		Render(hint)
}

func (m *Model) renderSidebar(height int) string {
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Base.Muted))
	section := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Base.Accent)).Bold(true)

	var b strings.Builder

	searchLine := "/ " + m.search
	if m.focus == focusSearch {
		searchLine += "▎"
	}
	if m.search == "" && m.focus != focusSearch {
		searchLine = muted.Render("/ search")
	}
	b.WriteString(searchLine + "\n\n")

	idx := 0
	writeSection := func(label string, entries []chat.ConversationSummary) {
		if len(entries) == 0 {
			return
		}
		b.WriteString(section.Render(label) + "\n")
		for _, entry := range entries {
			b.WriteString(m.renderSidebarEntry(entry, idx == m.cursor) + "\n")
			idx++
		}
		b.WriteString("\n")
	}
	writeSection("Direct", m.ranked.Direct)
	writeSection("Groups", m.ranked.Groups)

	if m.entryCount() == 0 {
		b.WriteString(muted.Render("no conversations"))
	}

	return lipgloss.NewStyle().
		Width(sidebarWidth).
		Height(height).
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(lipgloss.Color(m.theme.Base.Border)).
		Render(b.String())
}

func (m *Model) renderSidebarEntry(entry chat.ConversationSummary, selected bool) string {
	name := entry.Name
	if name == "" {
		name = entry.Key.String()
	}
	line := truncate(name, sidebarWidth-8)
	if entry.Unread > 0 {
		badge := lipgloss.NewStyle().
			Foreground(lipgloss.Color(m.theme.Chrome.UnreadBadge)).
			Bold(true).
			Render(fmt.Sprintf(" (%d)", entry.Unread))
		line += badge
	}

	style := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Base.Foreground))
	if selected {
		style = style.Background(lipgloss.Color(m.theme.Chrome.SelectedItem)).Bold(true)
	}
	if active, ok := m.eng.Active(); ok && active == entry.Key {
		style = style.Foreground(lipgloss.Color(m.theme.Base.Accent))
	}
	return style.Render("  " + line)
}

func (m *Model) renderConversation(width, height int) string {
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Base.Muted))

	active, ok := m.eng.Active()
	if !ok {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
			muted.Render("Select a conversation"))
	}

	var b strings.Builder
	b.WriteString(m.renderConversationHeader(active, width) + "\n")

	messages := m.eng.Messages(active)
	if len(messages) == 0 {
		placeholder := muted.Render("Start your conversation")
		if m.statusErr != "" {
			placeholder = lipgloss.NewStyle().
				Foreground(lipgloss.Color(m.theme.Chrome.Error)).
				Render("Could not load this conversation")
		}
		b.WriteString(lipgloss.Place(width, height-4, lipgloss.Center, lipgloss.Center,
			placeholder))
	} else {
		b.WriteString(m.renderTimeline(messages, width, height-4))
	}

	b.WriteString("\n" + m.renderCompose(width))
	return lipgloss.NewStyle().Width(width).Height(height).Render(b.String())
}

func (m *Model) renderConversationHeader(key chat.ConversationKey, width int) string {
	name := key.String()
	if summary, ok := m.eng.Summary(key); ok && summary.Name != "" {
		name = summary.Name
	}
	if key.Kind == chat.KindGroup && len(m.members) > 0 {
		names := make([]string, 0, len(m.members))
		for _, member := range m.members {
			names = append(names, member.Username)
		}
		name += " · " + truncate(strings.Join(names, ", "), width-len(name)-6)
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Base.Accent)).
		Bold(true).
		Width(width).
		Padding(0, 1).
		Render(name)
}

// renderTimeline lays out messages bottom-anchored with day separators, own
// messages on the right and everyone else's on the left.
func (m *Model) renderTimeline(messages []chat.Message, width, height int) string {
	self := m.eng.Self()
	dateStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Message.Date))
	ownStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Message.Own))
	otherStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Message.Other))

	var lines []string
	var lastDay string
	for _, msg := range messages {
		if day := dayLabel(msg.CreatedAt); day != lastDay {
			lines = append(lines, lipgloss.PlaceHorizontal(width, lipgloss.Center,
				dateStyle.Render("── "+day+" ──")))
			lastDay = day
		}

		stamp := msg.CreatedAt.Local().Format("15:04")
		if self.Known() && msg.SenderID == self.UserID {
			text := fmt.Sprintf("%s  %s", msg.Body, stamp)
			lines = append(lines, lipgloss.PlaceHorizontal(width-1, lipgloss.Right,
				ownStyle.Render(truncate(text, width-4))))
		} else {
			text := fmt.Sprintf("%s: %s  %s", msg.SenderName, msg.Body, stamp)
			lines = append(lines, " "+otherStyle.Render(truncate(text, width-4)))
		}
	}

	// Keep the newest messages visible.
	if len(lines) > height {
		lines = lines[len(lines)-height:]
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderCompose(width int) string {
	prompt := "> " + m.compose
	if m.focus == focusCompose {
		prompt += "▎"
	}
	if m.sending {
		prompt = "> sending..."
	}
	style := lipgloss.NewStyle().
		Width(width).
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(lipgloss.Color(m.theme.Base.Border))
	if m.focus == focusCompose {
		style = style.BorderForeground(lipgloss.Color(m.theme.Base.Accent))
	}
	return style.Render(truncate(prompt, width-2))
}

func dayLabel(t time.Time) string {
	t = t.Local()
	now := time.Now()
	switch {
	case sameDay(t, now):
		return "Today"
	case sameDay(t, now.AddDate(0, 0, -1)):
		return "Yesterday"
	default:
		return t.Format("Jan 2, 2006")
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 1 {
		return string(runes[:max])
	}
	return string(runes[:max-1]) + "…"
}
