// Package ui is the terminal front end of the chat widget.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/avvvet/portfolio-chat/internal/models"
	"github.com/avvvet/portfolio-chat/internal/session"
)

const (
	defaultWidth  = 72
	defaultHeight = 20
	maxChips      = 4
)

var chipKeys = map[tea.KeyType]int{
	tea.KeyF1: 0,
	tea.KeyF2: 1,
	tea.KeyF3: 2,
	tea.KeyF4: 3,
}

type Options struct {
	Title       string
	Mode        string
	Keyword     session.KeywordResponder
	Menu        session.MenuResponder
	Narrator    session.Narrator
	TypingDelay time.Duration
	Muted       bool
	Open        bool
	Log         *logrus.Logger
}

// deferredMsg carries a scheduled callback back onto the update loop
type deferredMsg struct {
	run func()
}

// Model renders a session.Controller and feeds it key events. It is also
// the controller's Renderer and Scheduler, so every state change happens
// inside Update.
type Model struct {
	title      string
	controller *session.Controller
	log        *logrus.Logger

	viewport viewport.Model
	input    textinput.Model
	width    int
	height   int

	entries     []session.Entry
	open        bool
	muted       bool
	suggestions []models.Suggestion
	options     []models.MenuOption

	pending []tea.Cmd
}

func New(opts Options) (*Model, error) {
	input := textinput.New()
	input.Placeholder = "Ask about research, education, contact..."
	input.CharLimit = 500
	input.Prompt = "› "

	m := &Model{
		title:    opts.Title,
		log:      opts.Log,
		viewport: viewport.New(defaultWidth, defaultHeight),
		input:    input,
		width:    defaultWidth,
		height:   defaultHeight,
	}
	if m.title == "" {
		m.title = "💬 Portfolio assistant"
	}
	if m.log == nil {
		m.log = logrus.StandardLogger()
	}

	controller, err := session.New(session.Options{
		Mode:        opts.Mode,
		Keyword:     opts.Keyword,
		Menu:        opts.Menu,
		Renderer:    m,
		Narrator:    opts.Narrator,
		Scheduler:   m,
		TypingDelay: opts.TypingDelay,
		Muted:       opts.Muted,
		Open:        opts.Open,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	m.controller = controller
	controller.Start()

	return m, nil
}

// Controller exposes the session, mostly for tests
func (m *Model) Controller() *session.Controller {
	return m.controller
}

// session.Renderer

func (m *Model) Append(entry session.Entry) {
	m.entries = append(m.entries, entry)
	m.refresh()
}

func (m *Model) SetOpen(open bool) {
	m.open = open
	if open {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

func (m *Model) SetMuted(muted bool) {
	m.muted = muted
}

func (m *Model) ShowSuggestions(suggestions []models.Suggestion) {
	m.suggestions = suggestions
}

func (m *Model) ShowOptions(options []models.MenuOption) {
	m.options = options
}

// session.Scheduler

func (m *Model) After(d time.Duration, f func()) {
	m.pending = append(m.pending, tea.Tick(d, func(time.Time) tea.Msg {
		return deferredMsg{run: f}
	}))
}

func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case deferredMsg:
		msg.run()

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			cmds = append(cmds, cmd)
			break
		}
		if m.open {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	cmds = append(cmds, m.pending...)
	m.pending = nil

	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return tea.Quit, true
	case tea.KeyEsc:
		m.controller.Dispatch(session.ToggleOpen{})
		return nil, true
	}

	if !m.open {
		return nil, true
	}

	switch msg.Type {
	case tea.KeyCtrlS:
		m.controller.Dispatch(session.ToggleMute{})
		return nil, true

	case tea.KeyEnter:
		text := m.input.Value()
		m.input.Reset()
		m.log.WithField("chars", len(text)).Debug("Message submitted")
		m.controller.Dispatch(session.Submit{Text: text})
		return nil, true

	case tea.KeyF1, tea.KeyF2, tea.KeyF3, tea.KeyF4:
		if m.controller.Mode() == models.ModeKeyword {
			m.controller.Dispatch(session.PickSuggestion{Index: chipKeys[msg.Type]})
		}
		return nil, true

	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd, true

	case tea.KeyRunes:
		// Number keys pick menu options while nothing is typed.
		if m.controller.Mode() == models.ModeMenu && m.input.Value() == "" && len(msg.Runes) == 1 {
			if idx := int(msg.Runes[0] - '1'); idx >= 0 && idx < len(m.options) && idx < 9 {
				m.controller.Dispatch(session.PickOption{Key: m.options[idx].Key})
				return nil, true
			}
		}
	}

	return nil, false
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	// title, chips, input and the frame border take six rows
	m.viewport.Width = max(width-4, 20)
	m.viewport.Height = max(height-8, 3)
	m.input.Width = max(width-8, 10)
	m.refresh()
}

func (m *Model) refresh() {
	var b strings.Builder
	wrap := lipgloss.NewStyle().Width(m.viewport.Width)

	for i, entry := range m.entries {
		if i > 0 {
			b.WriteString("\n")
		}
		if entry.Role == models.RoleVisitor {
			b.WriteString(wrap.Render(visitorStyle.Render("You: ") + entry.Text))
		} else {
			b.WriteString(wrap.Render(assistantStyle.Render("Assistant: ") + entry.Text))
		}
	}

	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

func (m *Model) View() string {
	if !m.open {
		return launcherStyle.Render("💬 Chat with me") + hintStyle.Render("  (esc to open, ctrl+c to quit)") + "\n"
	}

	sound := "🔊"
	if m.muted {
		sound = "🔇"
	}

	header := titleStyle.Render(m.title) + " " + sound
	help := hintStyle.Render("enter send • ctrl+s mute • esc close • ctrl+c quit")

	body := lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(),
		m.chips(),
		m.input.View(),
		help,
	)
	return frameStyle.Render(body) + "\n"
}

func (m *Model) chips() string {
	var parts []string

	if m.controller.Mode() == models.ModeMenu {
		for i, option := range m.options {
			if i >= 9 {
				break
			}
			parts = append(parts, chipStyle.Render(fmt.Sprintf("%d %s", i+1, option.Label)))
		}
	} else {
		for i, suggestion := range m.suggestions {
			if i >= maxChips {
				break
			}
			parts = append(parts, chipStyle.Render(fmt.Sprintf("F%d %s", i+1, suggestion.Label)))
		}
	}

	return lipgloss.NewStyle().Width(m.viewport.Width).Render(strings.Join(parts, ""))
}
