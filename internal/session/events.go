package session

import "time"

// Event is a visitor action handled by Controller.Dispatch
type Event interface {
	event()
}

// ToggleOpen opens or closes the chat window
type ToggleOpen struct{}

// ToggleMute flips narration; muting stops the current narration
type ToggleMute struct{}

// Submit is free text typed by the visitor
type Submit struct {
	Text string
}

// PickSuggestion activates a shortcut chip by position
type PickSuggestion struct {
	Index int
}

// PickOption selects a menu option by key
type PickOption struct {
	Key string
}

func (ToggleOpen) event()     {}
func (ToggleMute) event()     {}
func (Submit) event()         {}
func (PickSuggestion) event() {}
func (PickOption) event()     {}

// Inline runs callbacks immediately, ignoring the delay
type Inline struct{}

func (Inline) After(_ time.Duration, f func()) { f() }
