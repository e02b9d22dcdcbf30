package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/memory"

	"github.com/avvvet/portfolio-chat/internal/models"
)

// Manager keeps each session's message log as a LangChainGo conversation
// buffer backed by a Store
type Manager struct {
	store    Store
	log      *logrus.Logger
	mu       sync.Mutex
	sessions map[string]*memory.ConversationBuffer // In-memory cache
}

// NewManager creates a new memory manager
func NewManager(store Store, log *logrus.Logger) *Manager {
	return &Manager{
		store:    store,
		log:      log,
		sessions: make(map[string]*memory.ConversationBuffer),
	}
}

// GetOrCreateSession gets or creates the conversation buffer for a session
func (m *Manager) GetOrCreateSession(ctx context.Context, sessionID string) (*memory.ConversationBuffer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.getOrCreateLocked(ctx, sessionID)
}

func (m *Manager) getOrCreateLocked(ctx context.Context, sessionID string) (*memory.ConversationBuffer, error) {
	if mem, exists := m.sessions[sessionID]; exists {
		return mem, nil
	}

	mem := memory.NewConversationBuffer()

	sessionData, err := m.store.LoadSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	for _, msg := range sessionData.Messages {
		chatMsg, ok := toChatMessage(msg.Role, msg.Content)
		if !ok {
			m.log.WithField("role", msg.Role).Warn("⚠️ Unknown message role, skipping")
			continue
		}
		if err := mem.ChatHistory.AddMessage(ctx, chatMsg); err != nil {
			return nil, fmt.Errorf("failed to add message to memory: %w", err)
		}
	}

	m.sessions[sessionID] = mem

	m.log.WithFields(logrus.Fields{
		"session_id": sessionID,
		"messages":   len(sessionData.Messages),
	}).Debug("📚 Session opened")

	return mem, nil
}

// SaveVisitorMessage appends a visitor message to the session log
func (m *Manager) SaveVisitorMessage(ctx context.Context, sessionID, message string) error {
	return m.save(ctx, sessionID, models.RoleVisitor, message)
}

// SaveAssistantMessage appends an assistant reply to the session log
func (m *Manager) SaveAssistantMessage(ctx context.Context, sessionID, message string) error {
	return m.save(ctx, sessionID, models.RoleAssistant, message)
}

func (m *Manager) save(ctx context.Context, sessionID, role, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	mem, err := m.getOrCreateLocked(ctx, sessionID)
	if err != nil {
		return err
	}

	chatMsg, _ := toChatMessage(role, message)
	if err := mem.ChatHistory.AddMessage(ctx, chatMsg); err != nil {
		return fmt.Errorf("failed to add %s message to memory: %w", role, err)
	}

	msg := Message{
		Role:      role,
		Content:   message,
		Timestamp: time.Now(),
	}
	if err := m.store.SaveMessage(ctx, sessionID, msg); err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}

	return nil
}

// GetFormattedHistory returns the session log as "Visitor: ..." lines
func (m *Manager) GetFormattedHistory(ctx context.Context, sessionID string) (string, error) {
	mem, ok, err := m.existingSession(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "No previous conversation.", nil
	}

	messages, err := mem.ChatHistory.Messages(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get messages: %w", err)
	}

	if len(messages) == 0 {
		return "No previous conversation.", nil
	}

	var builder strings.Builder
	for _, msg := range messages {
		switch msg := msg.(type) {
		case llms.HumanChatMessage:
			fmt.Fprintf(&builder, "Visitor: %s\n", msg.Content)
		case llms.AIChatMessage:
			fmt.Fprintf(&builder, "Assistant: %s\n", msg.Content)
		}
	}

	return builder.String(), nil
}

// GetHistory returns the session log, read back from the conversation
// buffer. Unknown sessions yield an empty log and are not created.
func (m *Manager) GetHistory(ctx context.Context, sessionID string) ([]models.ConversationMessage, error) {
	mem, ok, err := m.existingSession(ctx, sessionID)
	if err != nil || !ok {
		return []models.ConversationMessage{}, err
	}

	messages, err := mem.ChatHistory.Messages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}

	history := make([]models.ConversationMessage, 0, len(messages))
	for _, msg := range messages {
		switch msg := msg.(type) {
		case llms.HumanChatMessage:
			history = append(history, models.ConversationMessage{Role: models.RoleVisitor, Message: msg.Content})
		case llms.AIChatMessage:
			history = append(history, models.ConversationMessage{Role: models.RoleAssistant, Message: msg.Content})
		}
	}

	if err := m.store.UpdateActivity(ctx, sessionID); err != nil {
		m.log.WithError(err).WithField("session_id", sessionID).Warn("⚠️ Failed to refresh session activity")
	}

	return history, nil
}

// existingSession returns the buffer of a cached or stored session without
// creating one for an unknown ID
func (m *Manager) existingSession(ctx context.Context, sessionID string) (*memory.ConversationBuffer, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if mem, ok := m.sessions[sessionID]; ok {
		return mem, true, nil
	}

	exists, err := m.store.SessionExists(ctx, sessionID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to check session: %w", err)
	}
	if !exists {
		return nil, false, nil
	}

	mem, err := m.getOrCreateLocked(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	return mem, true, nil
}

// GetMessages returns raw messages from the store
func (m *Manager) GetMessages(ctx context.Context, sessionID string) ([]Message, error) {
	return m.store.GetMessages(ctx, sessionID)
}

// ClearSession clears a session from both cache and store
func (m *Manager) ClearSession(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()

	if err := m.store.ClearSession(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	m.log.WithField("session_id", sessionID).Debug("🗑️ Cleared session")

	return nil
}

// SessionExists checks if a session exists in the store
func (m *Manager) SessionExists(ctx context.Context, sessionID string) (bool, error) {
	return m.store.SessionExists(ctx, sessionID)
}

// Sweep expires idle sessions and drops their cached buffers
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	expired, err := m.store.Expire(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to expire sessions: %w", err)
	}

	m.mu.Lock()
	for _, id := range expired {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if len(expired) > 0 {
		m.log.WithField("expired", len(expired)).Info("🧹 Expired idle sessions")
	}

	return len(expired), nil
}

// RunSweeper sweeps every interval until ctx is done
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.Sweep(ctx); err != nil {
				m.log.WithError(err).Warn("⚠️ Session sweep failed")
			}
		}
	}
}

// GetActiveSessionCount returns the number of cached sessions
func (m *Manager) GetActiveSessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.sessions)
}

// Close closes the underlying store
func (m *Manager) Close() error {
	if closer, ok := m.store.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

func toChatMessage(role, content string) (llms.ChatMessage, bool) {
	switch role {
	case models.RoleVisitor:
		return llms.HumanChatMessage{Content: content}, true
	case models.RoleAssistant:
		return llms.AIChatMessage{Content: content}, true
	default:
		return nil, false
	}
}
