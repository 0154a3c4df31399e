// Package tui is the terminal host of the chat surface: the persona picker,
// the chat feed and the swipeable history drawer.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/comigor/guruchat/internal/chat"
	"github.com/comigor/guruchat/internal/gesture"
	"github.com/comigor/guruchat/internal/history"
	"github.com/comigor/guruchat/internal/logger"
	"github.com/comigor/guruchat/internal/persona"
)

// Options configures the terminal app.
type Options struct {
	// Store backs the history drawer. A store seeded with the demo sessions
	// is created when nil.
	Store         *history.Store
	Replier       chat.Replier
	ReplyDelay    time.Duration
	DefaultAuthor string
	// CellWidth is the number of logical pixels one terminal column stands for.
	CellWidth float64
	Gesture   []gesture.Option
}

type view int

const (
	viewWelcome view = iota
	viewChat
)

// replyDueMsg fires once the reply delay has elapsed.
type replyDueMsg struct {
	session string
	req     chat.Request
}

// replyMsg carries the session it answers; the user may have switched
// sessions while it was on its way.
type replyMsg struct {
	session string
	author  string
	text    string
}

var (
	headlineStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f5f7fb"))
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#7a7a7a"))
	personaStyle  = lipgloss.NewStyle().Padding(0, 1)
	pickedStyle   = personaStyle.Foreground(lipgloss.Color("#101010")).Background(lipgloss.Color("#f5c26b"))
	authorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f5c26b"))
	userStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ecbff"))
	spicyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#d64a1e"))
)

// Model is the bubbletea model of the app.
type Model struct {
	opts Options

	view   view
	width  int
	height int

	roster []persona.Persona
	cursor int
	picks  *persona.Selection

	// session is the history entry id the feed belongs to.
	session  string
	feed     *chat.Feed
	mode     chat.Mode
	composer textinput.Model
	feedView viewport.Model
	pending  map[string]int

	drawer     *drawer
	drawerOpen bool
	status     string
}

// New returns the app on its welcome view.
func New(opts Options) *Model {
	if opts.Store == nil {
		opts.Store = history.New(history.DefaultSeed())
	}
	if opts.Replier == nil {
		opts.Replier = chat.CannedReplier{}
	}
	if opts.CellWidth <= 0 {
		opts.CellWidth = 8
	}
	if opts.DefaultAuthor == "" {
		opts.DefaultAuthor = "Nakamoto"
	}

	composer := textinput.New()
	composer.Placeholder = "Send a message."
	composer.Prompt = "› "

	m := &Model{
		opts:     opts,
		width:    80,
		height:   24,
		roster:   persona.Roster(),
		picks:    persona.NewSelection(),
		feed:     chat.NewFeed(),
		mode:     chat.Normal,
		pending:  make(map[string]int),
		composer: composer,
		feedView: viewport.New(80, 18),
		drawer:   newDrawer(opts.Store, opts.CellWidth, opts.Gesture),
	}
	m.refreshFeed()
	return m
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case tea.BlurMsg:
		m.drawer.cancelPointer()
		return m, nil
	case replyDueMsg:
		return m, m.fetchReply(msg.session, msg.req)
	case replyMsg:
		m.deliver(msg)
		return m, nil
	case tea.MouseMsg:
		if m.drawerOpen {
			cmd := m.drawer.handleMouse(msg)
			m.consumeSelection()
			return m, cmd
		}
		if m.view == viewChat {
			var cmd tea.Cmd
			m.feedView, cmd = m.feedView.Update(msg)
			return m, cmd
		}
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.drawer.close()
			return m, tea.Quit
		}
		if m.drawerOpen {
			return m, m.updateDrawerKey(msg)
		}
		if m.view == viewWelcome {
			return m, m.updateWelcomeKey(msg)
		}
		return m, m.updateChatKey(msg)
	}
	return m, nil
}

func (m *Model) updateWelcomeKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "left", "h":
		m.cursor = (m.cursor + len(m.roster) - 1) % len(m.roster)
	case "right", "l":
		m.cursor = (m.cursor + 1) % len(m.roster)
	case " ":
		m.picks.Toggle(m.roster[m.cursor].Name)
	case "enter":
		m.startSession()
		m.view = viewChat
		return m.composer.Focus()
	case "q":
		return tea.Quit
	}
	return nil
}

func (m *Model) updateChatKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEnter:
		return m.send()
	case tea.KeyCtrlT:
		m.mode = m.mode.Toggle()
		return nil
	case tea.KeyCtrlO:
		m.openDrawer()
		return nil
	case tea.KeyEsc:
		m.composer.Blur()
		m.view = viewWelcome
		return nil
	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.feedView, cmd = m.feedView.Update(msg)
		return cmd
	}
	var cmd tea.Cmd
	m.composer, cmd = m.composer.Update(msg)
	return cmd
}

func (m *Model) updateDrawerKey(msg tea.KeyMsg) tea.Cmd {
	if cmd, ok := m.drawer.handleKey(msg); ok {
		return cmd
	}
	if msg.Type == tea.KeyEsc {
		m.closeDrawer()
	}
	return nil
}

func (m *Model) openDrawer() {
	m.drawer.sync()
	m.drawerOpen = true
	m.composer.Blur()
}

func (m *Model) closeDrawer() {
	m.drawer.close()
	m.drawerOpen = false
	m.composer.Focus()
}

// startSession files a new chat under Today and shows its empty feed.
func (m *Model) startSession() {
	personas := m.picks.Names()
	if len(personas) == 0 {
		personas = []string{m.opts.DefaultAuthor}
	}
	e, err := m.opts.Store.Create(history.Today, "Chat with "+strings.Join(personas, ", "))
	if err != nil {
		logger.L.Error("failed to create history session", "error", err)
		return
	}
	logger.L.Info("history session started", "id", e.ID)
	m.openSession(e.ID, nil)
	m.status = ""
}

func (m *Model) openSession(id string, saved []history.Message) {
	store := m.opts.Store
	m.session = id
	m.feed = chat.OpenFeed(saved, func(msg chat.Message) {
		if !store.AppendMessage(id, msg) {
			logger.L.Debug("session gone; message kept on screen only", "id", id)
		}
	})
	m.refreshFeed()
}

// consumeSelection closes the drawer and opens the session a row tap picked.
func (m *Model) consumeSelection() {
	id := m.drawer.takeSelected()
	if id == "" {
		return
	}
	e, ok := m.opts.Store.Get(id)
	saved, _ := m.opts.Store.Messages(id)
	if ok {
		m.status = "Opened: " + e.Title
		m.openSession(id, saved)
	}
	logger.L.Info("history session opened", "id", id)
	m.closeDrawer()
}

func (m *Model) deliver(msg replyMsg) {
	if m.pending[msg.session] > 0 {
		m.pending[msg.session]--
	}
	if msg.session == m.session {
		m.feed.Deliver(msg.author, msg.text)
		m.refreshFeed()
		return
	}
	if !m.opts.Store.AppendMessage(msg.session, history.OpponentMessage(msg.author, msg.text)) {
		logger.L.Debug("reply for a deleted session dropped", "id", msg.session)
	}
}

func (m *Model) send() tea.Cmd {
	personas := m.picks.Names()
	req, ok := m.feed.Send(m.composer.Value(), m.mode, chat.Author(personas, m.opts.DefaultAuthor), personas)
	if !ok {
		return nil
	}
	m.composer.SetValue("")
	session := m.session
	m.pending[session]++
	m.refreshFeed()
	return tea.Tick(m.opts.ReplyDelay, func(time.Time) tea.Msg { return replyDueMsg{session: session, req: req} })
}

func (m *Model) fetchReply(session string, req chat.Request) tea.Cmd {
	replier := m.opts.Replier
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		return replyMsg{session: session, author: req.Author, text: chat.ReplyText(ctx, replier, req)}
	}
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.drawer.width = width
	m.composer.Width = max(width-20, 10)
	m.feedView.Width = width
	m.feedView.Height = max(height-6, 3)
	m.refreshFeed()
}

func (m *Model) refreshFeed() {
	var b strings.Builder
	for i, msg := range m.feed.Messages() {
		if i > 0 {
			b.WriteString("\n")
		}
		if msg.Role == chat.RoleUser {
			b.WriteString(userStyle.Render("You: " + msg.Text))
			continue
		}
		b.WriteString(authorStyle.Render(msg.Author+": ") + msg.Text)
	}
	if m.pending[m.session] > 0 {
		b.WriteString("\n" + hintStyle.Render("…"))
	}
	m.feedView.SetContent(b.String())
	m.feedView.GotoBottom()
}

func (m *Model) View() string {
	if m.drawerOpen {
		return m.drawer.view()
	}
	if m.view == viewWelcome {
		return m.welcomeView()
	}
	return m.chatView()
}

func (m *Model) welcomeView() string {
	cards := make([]string, len(m.roster))
	for i, p := range m.roster {
		style := personaStyle
		if m.picks.Has(p.Name) {
			style = pickedStyle
		}
		if i == m.cursor {
			style = style.Underline(true)
		}
		cards[i] = style.Render(p.Name)
	}
	return strings.Join([]string{
		headlineStyle.Render("Welcome to GuruChat"),
		"Start chatting with masters now. Stop guessing.",
		"Let the masters debate.",
		"",
		lipgloss.JoinHorizontal(lipgloss.Top, cards...),
		"",
		hintStyle.Render("←/→ move · space pick your guru · enter get started · q quit"),
	}, "\n")
}

func (m *Model) chatView() string {
	mode := m.mode.Label()
	if m.mode == chat.Spicy {
		mode = spicyStyle.Render(mode)
	}
	header := headlineStyle.Render("GuruChat")
	if m.status != "" {
		header += hintStyle.Render("   " + m.status)
	}
	return strings.Join([]string{
		header,
		m.feedView.View(),
		"",
		fmt.Sprintf("%s  [%s]", m.composer.View(), mode),
		hintStyle.Render("enter send · ctrl+t mode · ctrl+o history · esc back · ctrl+c quit"),
	}, "\n")
}
