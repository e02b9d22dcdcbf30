package memory

import (
	"context"
	"time"
)

// Message represents a single entry of a session's message log
type Message struct {
	Role      string    `json:"role"`      // "visitor" or "assistant"
	Content   string    `json:"content"`   // The displayed text
	Timestamp time.Time `json:"timestamp"` // When the message was appended
}

// SessionData represents all data for a visitor session
type SessionData struct {
	SessionID string    `json:"session_id"`
	Messages  []Message `json:"messages"`
	Metadata  Metadata  `json:"metadata"`
}

// Metadata contains session information
type Metadata struct {
	StartedAt    time.Time `json:"started_at"`
	LastActivity time.Time `json:"last_activity"`
	MessageCount int       `json:"message_count"`
}

// Store holds session logs for as long as the session is active.
// Sessions are never written anywhere durable; an idle session expires.
type Store interface {
	// LoadSession loads a session, returning an empty one if it does not exist
	LoadSession(ctx context.Context, sessionID string) (*SessionData, error)

	// SaveMessage appends a message to a session
	SaveMessage(ctx context.Context, sessionID string, msg Message) error

	// GetMessages retrieves all messages for a session
	GetMessages(ctx context.Context, sessionID string) ([]Message, error)

	// ClearSession removes a session
	ClearSession(ctx context.Context, sessionID string) error

	// SessionExists checks if a session exists
	SessionExists(ctx context.Context, sessionID string) (bool, error)

	// UpdateActivity updates the last activity timestamp
	UpdateActivity(ctx context.Context, sessionID string) error

	// Expire drops sessions idle for longer than the store's TTL and
	// returns their IDs
	Expire(ctx context.Context) ([]string, error)
}
