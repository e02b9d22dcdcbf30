package models

// Chat request from the page (NATS or HTTP)
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	Mode      string `json:"mode,omitempty"` // "keyword" (default) or "menu"
}

// Chat response to the page
type ChatResponse struct {
	SessionID    string  `json:"session_id"`
	Mode         string  `json:"mode"`
	Reply        string  `json:"reply"`
	Matched      bool    `json:"matched"`
	RuleIndex    *int    `json:"rule_index,omitempty"`
	Keyword      *string `json:"keyword,omitempty"`
	ErrorCode    *string `json:"error_code,omitempty"`
	ErrorMessage *string `json:"error_message,omitempty"`
}

type MenuRequest struct {
	SessionID   string `json:"session_id"`
	PreviousKey string `json:"previous_key,omitempty"`
}

type MenuResponse struct {
	SessionID    string       `json:"session_id"`
	Intro        string       `json:"intro"`
	Options      []MenuOption `json:"options"`
	ErrorCode    *string      `json:"error_code,omitempty"`
	ErrorMessage *string      `json:"error_message,omitempty"`
}

// MenuOption is one button of the closed-set menu
type MenuOption struct {
	Label string `json:"label" yaml:"label"`
	Key   string `json:"key" yaml:"key"`
}

// Suggestion is a shortcut chip; clicking it is the same as typing Query
type Suggestion struct {
	Label string `json:"label" yaml:"label" validate:"required"`
	Query string `json:"query" yaml:"query" validate:"required"`
}

type ConversationMessage struct {
	Role    string `json:"role"` // "visitor" or "assistant"
	Message string `json:"message"`
}

// Conversation roles
const (
	RoleVisitor   = "visitor"
	RoleAssistant = "assistant"
)

// Responder modes
const (
	ModeKeyword = "keyword"
	ModeMenu    = "menu"
)

// Error codes
const (
	ErrorParseError     = "PARSE_ERROR"
	ErrorInvalidRequest = "INVALID_REQUEST"
	ErrorUnknownMode    = "UNKNOWN_MODE"
	ErrorRateLimited    = "RATE_LIMITED"
	ErrorNotFound       = "NOT_FOUND"
	ErrorUnavailable    = "UNAVAILABLE"
	ErrorInternal       = "INTERNAL_ERROR"
)
