package responder

import "github.com/avvvet/portfolio-chat/internal/models"

// Responder turns one visitor input into exactly one reply.
type Responder interface {
	Respond(input string) string
}

// Menu is the closed-set responder: the visitor picks a key from OptionsFor.
type Menu interface {
	Responder
	OptionsFor(previousKey string) []models.MenuOption
	Intro() string
}

// Match reports how a keyword lookup was decided.
type Match struct {
	Reply     string
	Matched   bool
	RuleIndex int    // -1 when the default was used
	Keyword   string // deciding keyword, empty when the default was used
}
