package responder

import (
	"github.com/avvvet/portfolio-chat/internal/knowledge"
	"github.com/avvvet/portfolio-chat/internal/models"
)

// Reserved menu keys
const (
	KeyIntro   = "intro"
	KeyDefault = "default"
)

// MenuResponder maps option keys to fixed responses. No parsing happens here.
type MenuResponder struct {
	options   []models.MenuOption
	responses map[string]string
	intro     string
	fallback  string
}

func NewMenuResponder(table knowledge.MenuTable) *MenuResponder {
	m := &MenuResponder{
		options:   make([]models.MenuOption, 0, len(table.Options)),
		responses: make(map[string]string, len(table.Options)+2),
		intro:     table.Intro,
		fallback:  table.Default,
	}

	for _, entry := range table.Options {
		m.options = append(m.options, models.MenuOption{Label: entry.Label, Key: entry.Key})
		m.responses[entry.Key] = entry.Response
	}
	m.responses[KeyIntro] = table.Intro
	m.responses[KeyDefault] = table.Default

	return m
}

// OptionsFor returns the top-level menu. The menu has one level, so the
// previous selection does not change it.
func (m *MenuResponder) OptionsFor(previousKey string) []models.MenuOption {
	return append([]models.MenuOption(nil), m.options...)
}

func (m *MenuResponder) Respond(key string) string {
	if response, ok := m.responses[key]; ok {
		return response
	}
	return m.fallback
}

// Lookup reports whether key is a configured option.
func (m *MenuResponder) Lookup(key string) (string, bool) {
	response, ok := m.responses[key]
	return response, ok
}

// Label returns the display label for key, or the key itself.
func (m *MenuResponder) Label(key string) string {
	for _, option := range m.options {
		if option.Key == key {
			return option.Label
		}
	}
	return key
}

func (m *MenuResponder) Intro() string {
	return m.intro
}
