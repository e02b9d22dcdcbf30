package memory

import (
	"context"
	"sync"
	"time"
)

// LocalStore implements Store in process memory with an idle TTL
type LocalStore struct {
	mu       sync.RWMutex
	sessions map[string]*SessionData
	ttl      time.Duration // Idle time after which a session expires
	now      func() time.Time
}

// NewLocalStore creates an in-memory store
func NewLocalStore(ttl time.Duration) *LocalStore {
	return &LocalStore{
		sessions: make(map[string]*SessionData),
		ttl:      ttl,
		now:      time.Now,
	}
}

// LoadSession returns a copy of the session, or an empty session if absent
func (s *LocalStore) LoadSession(ctx context.Context, sessionID string) (*SessionData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		now := s.now()
		return &SessionData{
			SessionID: sessionID,
			Messages:  []Message{},
			Metadata: Metadata{
				StartedAt:    now,
				LastActivity: now,
			},
		}, nil
	}

	copied := *session
	copied.Messages = append([]Message(nil), session.Messages...)
	return &copied, nil
}

// SaveMessage appends a message to a session
func (s *LocalStore) SaveMessage(ctx context.Context, sessionID string, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		session = &SessionData{
			SessionID: sessionID,
			Metadata:  Metadata{StartedAt: msg.Timestamp},
		}
		s.sessions[sessionID] = session
	}

	session.Messages = append(session.Messages, msg)
	session.Metadata.LastActivity = s.now()
	session.Metadata.MessageCount = len(session.Messages)

	return nil
}

// GetMessages retrieves all messages for a session
func (s *LocalStore) GetMessages(ctx context.Context, sessionID string) ([]Message, error) {
	session, err := s.LoadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return session.Messages, nil
}

// ClearSession removes a session
func (s *LocalStore) ClearSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}

// SessionExists checks if a session exists
func (s *LocalStore) SessionExists(ctx context.Context, sessionID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.sessions[sessionID]
	return ok, nil
}

// UpdateActivity refreshes the idle timer of an existing session
func (s *LocalStore) UpdateActivity(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.sessions[sessionID]; ok {
		session.Metadata.LastActivity = s.now()
	}
	return nil
}

// Expire drops idle sessions
func (s *LocalStore) Expire(ctx context.Context) ([]string, error) {
	if s.ttl <= 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	var expired []string
	for id, session := range s.sessions {
		if session.Metadata.LastActivity.Before(cutoff) {
			delete(s.sessions, id)
			expired = append(expired, id)
		}
	}
	return expired, nil
}
