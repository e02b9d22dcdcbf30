// Package session drives one visitor's chat: it owns the open and mute
// flags and the message log, turns input events into responder calls, and
// pushes results to a Renderer and a Narrator.
//
// A Controller is not safe for concurrent use. Events and scheduled
// callbacks must all run on the same loop; the Scheduler is how deferred
// replies get back onto it.
package session

import (
	"errors"
	"strings"
	"time"

	"github.com/avvvet/portfolio-chat/internal/models"
	"github.com/avvvet/portfolio-chat/internal/responder"
)

// Entry is one line of the message log
type Entry struct {
	Role string // models.RoleVisitor or models.RoleAssistant
	Text string
	At   time.Time
}

// Renderer displays session state
type Renderer interface {
	Append(entry Entry)
	SetOpen(open bool)
	SetMuted(muted bool)
	ShowSuggestions(suggestions []models.Suggestion)
	ShowOptions(options []models.MenuOption)
}

// Narrator reads replies aloud. Narrate cancels whatever is playing.
type Narrator interface {
	Narrate(text string)
	Cancel()
}

// Scheduler runs f after d on the controller's loop
type Scheduler interface {
	After(d time.Duration, f func())
}

// KeywordResponder is the free-text responder the controller needs
type KeywordResponder interface {
	responder.Responder
	Greeting() string
	Suggestions() []models.Suggestion
}

// MenuResponder is the closed-set responder the controller needs
type MenuResponder interface {
	responder.Menu
	Label(key string) string
}

type Options struct {
	Mode        string // models.ModeKeyword or models.ModeMenu
	Keyword     KeywordResponder
	Menu        MenuResponder
	Renderer    Renderer
	Narrator    Narrator  // optional
	Scheduler   Scheduler // optional, Inline when nil
	TypingDelay time.Duration
	Muted       bool
	Open        bool
}

type Controller struct {
	mode      string
	keyword   KeywordResponder
	menu      MenuResponder
	renderer  Renderer
	narrator  Narrator
	scheduler Scheduler
	delay     time.Duration
	now       func() time.Time

	open        bool
	muted       bool
	log         []Entry
	suggestions []models.Suggestion
}

var (
	ErrNoRenderer  = errors.New("session: renderer is required")
	ErrNoResponder = errors.New("session: no responder for mode")
)

func New(opts Options) (*Controller, error) {
	if opts.Renderer == nil {
		return nil, ErrNoRenderer
	}

	mode := opts.Mode
	if mode == "" {
		mode = models.ModeKeyword
	}
	switch {
	case mode == models.ModeKeyword && opts.Keyword == nil,
		mode == models.ModeMenu && opts.Menu == nil,
		mode != models.ModeKeyword && mode != models.ModeMenu:
		return nil, ErrNoResponder
	}

	c := &Controller{
		mode:      mode,
		keyword:   opts.Keyword,
		menu:      opts.Menu,
		renderer:  opts.Renderer,
		narrator:  opts.Narrator,
		scheduler: opts.Scheduler,
		delay:     opts.TypingDelay,
		now:       time.Now,
		open:      opts.Open,
		muted:     opts.Muted,
	}
	if c.narrator == nil {
		c.narrator = silent{}
	}
	if c.scheduler == nil {
		c.scheduler = Inline{}
	}
	if c.delay < 0 {
		c.delay = 0
	}

	return c, nil
}

// Start shows the greeting (not narrated) and the shortcut controls
func (c *Controller) Start() {
	c.renderer.SetOpen(c.open)
	c.renderer.SetMuted(c.muted)

	switch c.mode {
	case models.ModeMenu:
		c.appendEntry(models.RoleAssistant, c.menu.Intro())
		c.renderer.ShowOptions(c.menu.OptionsFor(""))
	default:
		c.appendEntry(models.RoleAssistant, c.keyword.Greeting())
		c.suggestions = c.keyword.Suggestions()
		c.renderer.ShowSuggestions(c.suggestions)
	}
}

// Dispatch handles one input event
func (c *Controller) Dispatch(event Event) {
	switch ev := event.(type) {
	case ToggleOpen:
		c.open = !c.open
		c.renderer.SetOpen(c.open)

	case ToggleMute:
		c.muted = !c.muted
		if c.muted {
			c.narrator.Cancel()
		}
		c.renderer.SetMuted(c.muted)

	case Submit:
		c.submit(ev.Text)

	case PickSuggestion:
		if ev.Index < 0 || ev.Index >= len(c.suggestions) {
			return
		}
		c.submit(c.suggestions[ev.Index].Query)

	case PickOption:
		c.pickOption(ev.Key)
	}
}

func (c *Controller) submit(raw string) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return
	}

	c.appendEntry(models.RoleVisitor, text)

	var reply string
	if c.mode == models.ModeMenu {
		// Free text in menu mode can only ever be an option key.
		reply = c.menu.Respond(text)
	} else {
		reply = c.keyword.Respond(text)
	}

	c.scheduler.After(c.delay, func() { c.deliver(reply) })
}

func (c *Controller) pickOption(key string) {
	if c.menu == nil {
		return
	}

	c.appendEntry(models.RoleVisitor, c.menu.Label(key))
	reply := c.menu.Respond(key)

	c.scheduler.After(c.delay, func() {
		c.deliver(reply)
		c.renderer.ShowOptions(c.menu.OptionsFor(key))
	})
}

func (c *Controller) deliver(reply string) {
	c.appendEntry(models.RoleAssistant, reply)
	if !c.muted {
		c.narrator.Narrate(reply)
	}
}

func (c *Controller) appendEntry(role, text string) {
	entry := Entry{Role: role, Text: text, At: c.now()}
	c.log = append(c.log, entry)
	c.renderer.Append(entry)
}

// Log returns a copy of the message log
func (c *Controller) Log() []Entry {
	return append([]Entry(nil), c.log...)
}

func (c *Controller) Mode() string  { return c.mode }
func (c *Controller) IsOpen() bool  { return c.open }
func (c *Controller) IsMuted() bool { return c.muted }

// Suggestions returns the shortcut chips shown in keyword mode
func (c *Controller) Suggestions() []models.Suggestion {
	return append([]models.Suggestion(nil), c.suggestions...)
}

type silent struct{}

func (silent) Narrate(string) {}
func (silent) Cancel()        {}
