// Package tui is the terminal surface over the sync engine: a ranked
// sidebar of conversations and the active conversation's timeline.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/chatline-im/chatline/internal/api"
	"github.com/chatline-im/chatline/internal/chat"
	"github.com/chatline-im/chatline/internal/config"
	"github.com/chatline-im/chatline/internal/engine"
	"github.com/chatline-im/chatline/internal/identity"
	"github.com/chatline-im/chatline/internal/logging"
	"github.com/chatline-im/chatline/internal/transport"
	"github.com/chatline-im/chatline/internal/tui/styles"
)

const connectTimeout = 5 * time.Second

// Run wires the client stack together and hands the terminal to bubbletea.
func Run(cfg *config.Config) error {
	initLogging(cfg)
	log := logging.Component("tui")

	token, err := cfg.ResolveToken()
	if err != nil {
		return err
	}

	self, err := identity.Resolve(token)
	if err != nil {
		if !errors.Is(err, chat.ErrAbsentIdentity) {
			return err
		}
		log.Warn().Msg("no usable credential, running anonymously (read-only groups)")
	}

	client := api.NewClient(cfg.Server.BaseURL, token, api.WithTimeout(cfg.Server.RequestTimeout))

	ws := transport.NewWS(transport.WSConfig{
		URL:           cfg.PushURL() + "/ws",
		Token:         token,
		AutoReconnect: true,
	})
	defer ws.Close()

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	if err := ws.Connect(ctx); err != nil {
		log.Warn().Err(err).Msg("push stream unavailable, live updates disabled")
	}
	cancel()

	eng := engine.New(self, client, ws)
	if err := eng.Start(); err != nil {
		return fmt.Errorf("start sync engine: %w", err)
	}
	defer eng.Close()

	model := newModel(eng, client, themeFor(cfg.TUI.Theme))
	_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}

func initLogging(cfg *config.Config) {
	logCfg := logging.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		EnableCaller: cfg.Logging.EnableCaller,
	}
	// The TUI owns the terminal; write logs to the configured file or drop
	// them rather than painting over the UI.
	if cfg.Logging.File != "" {
		if f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
			logCfg.Output = f
			logCfg.Format = "json"
		}
	} else {
		logCfg.Output = io.Discard
		logCfg.Format = "json"
	}
	logging.Init(logCfg)
}

func themeFor(name string) styles.Theme {
	if theme, ok := styles.Themes[name]; ok {
		return theme
	}
	return styles.DefaultTheme
}

type focusArea int

const (
	focusSidebar focusArea = iota
	focusSearch
	focusCompose
)

// Model is the bubbletea model for the whole client surface.
type Model struct {
	eng    *engine.Engine
	client *api.Client
	theme  styles.Theme

	width  int
	height int
	focus  focusArea

	search  string
	compose string
	cursor  int
	ranked  engine.RankedConversations

	members   []api.User
	statusErr string
	sending   bool
}

func newModel(eng *engine.Engine, client *api.Client, theme styles.Theme) *Model {
	return &Model{
		eng:    eng,
		client: client,
		theme:  theme,
	}
}

type engineUpdatedMsg struct{}

type directoryDoneMsg struct{ err error }

type selectDoneMsg struct {
	key chat.ConversationKey
	err error
}

type sendDoneMsg struct{ err error }

type membersDoneMsg struct {
	key     chat.ConversationKey
	members []api.User
	err     error
}

func waitForUpdate(eng *engine.Engine) tea.Cmd {
	return func() tea.Msg {
		<-eng.Updates()
		return engineUpdatedMsg{}
	}
}

func refreshDirectoryCmd(eng *engine.Engine) tea.Cmd {
	return func() tea.Msg {
		return directoryDoneMsg{err: eng.RefreshDirectory(context.Background())}
	}
}

func selectCmd(eng *engine.Engine, key chat.ConversationKey) tea.Cmd {
	return func() tea.Msg {
		return selectDoneMsg{key: key, err: eng.Select(context.Background(), key)}
	}
}

func sendCmd(eng *engine.Engine, key chat.ConversationKey, body string) tea.Cmd {
	return func() tea.Msg {
		_, err := eng.Send(context.Background(), key, body)
		return sendDoneMsg{err: err}
	}
}

func membersCmd(client *api.Client, key chat.ConversationKey) tea.Cmd {
	return func() tea.Msg {
		members, err := client.GroupMembers(context.Background(), key.ID)
		return membersDoneMsg{key: key, members: members, err: err}
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(refreshDirectoryCmd(m.eng), waitForUpdate(m.eng))
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case engineUpdatedMsg:
		m.ranked = m.eng.Rank(m.search)
		m.clampCursor()
		return m, waitForUpdate(m.eng)

	case directoryDoneMsg:
		if msg.err != nil {
			m.statusErr = "directory: " + msg.err.Error()
		}
		m.ranked = m.eng.Rank(m.search)
		return m, nil

	case selectDoneMsg:
		if msg.err != nil {
			m.statusErr = msg.err.Error()
			return m, nil
		}
		m.statusErr = ""
		if msg.key.Kind == chat.KindGroup {
			return m, membersCmd(m.client, msg.key)
		}
		m.members = nil
		return m, nil

	case membersDoneMsg:
		if active, ok := m.eng.Active(); ok && active == msg.key && msg.err == nil {
			m.members = msg.members
		}
		return m, nil

	case sendDoneMsg:
		m.sending = false
		if msg.err != nil {
			// The composed text stays in the input for another attempt.
			m.statusErr = msg.err.Error()
			return m, nil
		}
		m.statusErr = ""
		m.compose = ""
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	switch m.focus {
	case focusSearch:
		return m.handleSearchKey(msg)
	case focusCompose:
		return m.handleComposeKey(msg)
	default:
		return m.handleSidebarKey(msg)
	}
}

func (m *Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "/":
		m.focus = focusSearch
		return m, nil
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "j":
		if m.cursor < m.entryCount()-1 {
			m.cursor++
		}
		return m, nil
	case "tab":
		if _, ok := m.eng.Active(); ok {
			m.focus = focusCompose
		}
		return m, nil
	case "enter":
		key, ok := m.entryAt(m.cursor)
		if !ok {
			return m, nil
		}
		m.focus = focusCompose
		return m, selectCmd(m.eng, key)
	}
	return m, nil
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyEnter:
		m.focus = focusSidebar
	case tea.KeyBackspace:
		if len(m.search) > 0 {
			m.search = m.search[:len(m.search)-1]
		}
	case tea.KeyRunes, tea.KeySpace:
		m.search += string(msg.Runes)
	}
	m.ranked = m.eng.Rank(m.search)
	m.clampCursor()
	return m, nil
}

func (m *Model) handleComposeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.focus = focusSidebar
		return m, nil
	case tea.KeyEnter:
		key, ok := m.eng.Active()
		if !ok || m.sending {
			return m, nil
		}
		m.sending = true
		return m, sendCmd(m.eng, key, m.compose)
	case tea.KeyBackspace:
		if len(m.compose) > 0 {
			m.compose = m.compose[:len(m.compose)-1]
		}
		return m, nil
	case tea.KeyRunes, tea.KeySpace:
		m.compose += string(msg.Runes)
		return m, nil
	case tea.KeyTab:
		m.focus = focusSidebar
		return m, nil
	}
	return m, nil
}

func (m *Model) clampCursor() {
	if n := m.entryCount(); m.cursor >= n {
		m.cursor = maxInt(0, n-1)
	}
}

func (m *Model) entryCount() int {
	return len(m.ranked.Direct) + len(m.ranked.Groups)
}

// entryAt maps the flat cursor position onto the two ranked sections.
func (m *Model) entryAt(idx int) (chat.ConversationKey, bool) {
	if idx < 0 {
		return chat.ConversationKey{}, false
	}
	if idx < len(m.ranked.Direct) {
		return m.ranked.Direct[idx].Key, true
	}
	idx -= len(m.ranked.Direct)
	if idx < len(m.ranked.Groups) {
		return m.ranked.Groups[idx].Key, true
	}
	return chat.ConversationKey{}, false
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
