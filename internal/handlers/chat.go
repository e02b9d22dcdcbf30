package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/avvvet/portfolio-chat/internal/memory"
	"github.com/avvvet/portfolio-chat/internal/models"
	"github.com/avvvet/portfolio-chat/internal/responder"
	"github.com/avvvet/portfolio-chat/internal/stats"
)

// FallbackMessage is the reply carried by error responses
const FallbackMessage = "I'm sorry, I couldn't read that message. Please try again."

// ChatHandler answers visitor messages for every transport. The responders
// are read-only after construction, so one handler serves all goroutines.
type ChatHandler struct {
	keyword *responder.KeywordResponder
	menu    *responder.MenuResponder
	memory  *memory.Manager
	stats   stats.Recorder
	log     *logrus.Logger

	defaultMode string // used when a request names no mode
}

func NewChatHandler(
	keyword *responder.KeywordResponder,
	menu *responder.MenuResponder,
	mem *memory.Manager,
	recorder stats.Recorder,
	log *logrus.Logger,
) *ChatHandler {
	return &ChatHandler{
		keyword: keyword,
		menu:    menu,
		memory:  mem,
		stats:   recorder,
		log:     log,

		defaultMode: models.ModeKeyword,
	}
}

// WithDefaultMode sets the mode for requests that do not name one
func (h *ChatHandler) WithDefaultMode(mode string) *ChatHandler {
	if mode != "" {
		h.defaultMode = mode
	}
	return h
}

// DefaultMode is the mode used for requests without one
func (h *ChatHandler) DefaultMode() string {
	return h.defaultMode
}

func (h *ChatHandler) ProcessMessage(ctx context.Context, request *models.ChatRequest) (*models.ChatResponse, error) {
	if err := h.validateRequest(request); err != nil {
		return h.createErrorResponse(request, models.ErrorInvalidRequest, err.Error()), nil
	}

	mode := request.Mode
	if mode == "" {
		mode = h.defaultMode
	}
	message := strings.TrimSpace(request.Message)

	var (
		response *models.ChatResponse
		lookup   stats.Lookup
	)
	switch mode {
	case models.ModeKeyword:
		match := h.keyword.Match(message)
		response = &models.ChatResponse{
			SessionID: request.SessionID,
			Mode:      mode,
			Reply:     match.Reply,
			Matched:   match.Matched,
		}
		if match.Matched {
			index, keyword := match.RuleIndex, match.Keyword
			response.RuleIndex = &index
			response.Keyword = &keyword
		}
		lookup = stats.Lookup{Mode: mode, RuleIndex: match.RuleIndex, Keyword: match.Keyword, Matched: match.Matched}

	case models.ModeMenu:
		reply, ok := h.menu.Lookup(message)
		if !ok || message == responder.KeyIntro || message == responder.KeyDefault {
			reply, ok = h.menu.Respond(message), false
		}
		response = &models.ChatResponse{
			SessionID: request.SessionID,
			Mode:      mode,
			Reply:     reply,
			Matched:   ok,
		}
		if ok {
			key := message
			response.Keyword = &key
		}
		lookup = stats.Lookup{Mode: mode, RuleIndex: -1, Keyword: message, Matched: ok}

	default:
		return h.createErrorResponse(request, models.ErrorUnknownMode, fmt.Sprintf("unknown mode %q", request.Mode)), nil
	}

	h.remember(ctx, request.SessionID, message, response.Reply)
	if err := h.stats.Record(ctx, lookup); err != nil {
		h.log.WithError(err).WithField("session_id", request.SessionID).Warn("⚠️ Failed to record lookup")
	}

	h.log.WithFields(logrus.Fields{
		"session_id": request.SessionID,
		"mode":       mode,
		"matched":    response.Matched,
		"bucket":     lookup.Bucket(),
	}).Debug("Message answered")

	return response, nil
}

func (h *ChatHandler) remember(ctx context.Context, sessionID, message, reply string) {
	if err := h.memory.SaveVisitorMessage(ctx, sessionID, message); err != nil {
		h.log.WithError(err).WithField("session_id", sessionID).Warn("⚠️ Failed to save visitor message")
		return
	}
	if err := h.memory.SaveAssistantMessage(ctx, sessionID, reply); err != nil {
		h.log.WithError(err).WithField("session_id", sessionID).Warn("⚠️ Failed to save assistant message")
	}
}

// ProcessMenu returns the intro text and the options to show next
func (h *ChatHandler) ProcessMenu(ctx context.Context, request *models.MenuRequest) (*models.MenuResponse, error) {
	if request.SessionID == "" {
		code, msg := models.ErrorInvalidRequest, "session_id is required"
		return &models.MenuResponse{
			Options:      []models.MenuOption{},
			ErrorCode:    &code,
			ErrorMessage: &msg,
		}, nil
	}

	return &models.MenuResponse{
		SessionID: request.SessionID,
		Intro:     h.menu.Intro(),
		Options:   h.menu.OptionsFor(request.PreviousKey),
	}, nil
}

// History returns the session log in order, empty for unknown sessions
func (h *ChatHandler) History(ctx context.Context, sessionID string) ([]models.ConversationMessage, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session_id is required")
	}
	return h.memory.GetHistory(ctx, sessionID)
}

// Transcript returns the session log as plain "Visitor:/Assistant:" lines
func (h *ChatHandler) Transcript(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", fmt.Errorf("session_id is required")
	}
	return h.memory.GetFormattedHistory(ctx, sessionID)
}

// EndSession forgets a session's log. It reports whether the session existed.
func (h *ChatHandler) EndSession(ctx context.Context, sessionID string) (bool, error) {
	if sessionID == "" {
		return false, fmt.Errorf("session_id is required")
	}

	exists, err := h.memory.SessionExists(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}

	if err := h.memory.ClearSession(ctx, sessionID); err != nil {
		return false, err
	}
	h.log.WithField("session_id", sessionID).Info("👋 Session ended")
	return true, nil
}

func (h *ChatHandler) Suggestions() []models.Suggestion {
	return h.keyword.Suggestions()
}

// Stats returns lookup counts, most frequent first
func (h *ChatHandler) Stats(ctx context.Context) ([]stats.Count, error) {
	return h.stats.Snapshot(ctx)
}

// StatsHealthy pings the stats store when it is remote
func (h *ChatHandler) StatsHealthy(ctx context.Context) bool {
	pinger, ok := h.stats.(interface{ Ping(context.Context) error })
	if !ok {
		return true
	}
	if err := pinger.Ping(ctx); err != nil {
		h.log.WithError(err).Warn("⚠️ Stats store ping failed")
		return false
	}
	return true
}

func (h *ChatHandler) validateRequest(request *models.ChatRequest) error {
	if request.SessionID == "" {
		return fmt.Errorf("session_id is required")
	}
	if strings.TrimSpace(request.Message) == "" {
		return fmt.Errorf("message is required")
	}
	return nil
}

func (h *ChatHandler) createErrorResponse(request *models.ChatRequest, errorCode, errorMessage string) *models.ChatResponse {
	return &models.ChatResponse{
		SessionID:    request.SessionID,
		Mode:         request.Mode,
		Reply:        FallbackMessage,
		ErrorCode:    &errorCode,
		ErrorMessage: &errorMessage,
	}
}
