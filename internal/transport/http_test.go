package transport

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avvvet/portfolio-chat/internal/config"
	"github.com/avvvet/portfolio-chat/internal/handlers"
	"github.com/avvvet/portfolio-chat/internal/knowledge"
	"github.com/avvvet/portfolio-chat/internal/logging"
	"github.com/avvvet/portfolio-chat/internal/memory"
	"github.com/avvvet/portfolio-chat/internal/models"
	"github.com/avvvet/portfolio-chat/internal/responder"
	"github.com/avvvet/portfolio-chat/internal/stats"
)

func newTestHandler(t *testing.T) *handlers.ChatHandler {
	t.Helper()

	tables, err := knowledge.Default()
	require.NoError(t, err)

	return handlers.NewChatHandler(
		responder.NewKeywordResponder(tables.Keyword),
		responder.NewMenuResponder(tables.Menu),
		memory.NewManager(memory.NewLocalStore(time.Hour), logging.Discard()),
		stats.NewLocalRecorder(),
		logging.Discard(),
	)
}

func newTestTransport(t *testing.T, rateLimit float64, burst int) *HTTPTransport {
	t.Helper()

	cfg := &config.Config{
		ServiceName:   "portfolio-chat-test",
		HTTPRateLimit: rateLimit,
		HTTPRateBurst: burst,
	}
	return NewHTTPTransport(cfg, newTestHandler(t), logging.Discard())
}

func do(t *testing.T, ht *HTTPTransport, req *http.Request) (*http.Response, []byte) {
	t.Helper()

	resp, err := ht.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func postChat(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHTTP_Chat(t *testing.T) {
	ht := newTestTransport(t, 100, 100)

	resp, body := do(t, ht, postChat(`{"session_id":"s1","message":"EMAIL please"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(RequestIDKey))

	var chat models.ChatResponse
	require.NoError(t, json.Unmarshal(body, &chat))
	assert.Equal(t, "Email: deepthibv1997@gmail.com", chat.Reply)
	assert.True(t, chat.Matched)

	resp, body = do(t, ht, httptest.NewRequest(http.MethodGet, "/api/sessions/s1/history", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var history struct {
		SessionID string                       `json:"session_id"`
		Messages  []models.ConversationMessage `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(body, &history))
	assert.Equal(t, "s1", history.SessionID)
	assert.Len(t, history.Messages, 2)
}

func TestHTTP_ChatErrors(t *testing.T) {
	ht := newTestTransport(t, 100, 100)

	tests := []struct {
		name string
		body string
		code string
	}{
		{"malformed json", `{"session_id":`, models.ErrorParseError},
		{"blank message", `{"session_id":"s1","message":"   "}`, models.ErrorInvalidRequest},
		{"unknown mode", `{"session_id":"s1","message":"hi","mode":"llm"}`, models.ErrorUnknownMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, ht, postChat(tt.body))
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var chat models.ChatResponse
			require.NoError(t, json.Unmarshal(body, &chat))
			require.NotNil(t, chat.ErrorCode)
			assert.Equal(t, tt.code, *chat.ErrorCode)
		})
	}
}

func TestHTTP_MenuAndSuggestions(t *testing.T) {
	ht := newTestTransport(t, 100, 100)

	resp, body := do(t, ht, httptest.NewRequest(http.MethodGet, "/api/menu?session_id=s1", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var menu models.MenuResponse
	require.NoError(t, json.Unmarshal(body, &menu))
	assert.NotEmpty(t, menu.Intro)
	assert.Len(t, menu.Options, 6)

	resp, body = do(t, ht, httptest.NewRequest(http.MethodGet, "/api/suggestions", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var suggestions struct {
		Suggestions []models.Suggestion `json:"suggestions"`
	}
	require.NoError(t, json.Unmarshal(body, &suggestions))
	assert.Len(t, suggestions.Suggestions, 4)
}

func TestHTTP_Stats(t *testing.T) {
	ht := newTestTransport(t, 100, 100)

	do(t, ht, postChat(`{"session_id":"s1","message":"research"}`))
	do(t, ht, postChat(`{"session_id":"s1","message":"quantum gravity"}`))

	resp, body := do(t, ht, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Counts []stats.Count `json:"counts"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Len(t, payload.Counts, 2)
}

func TestHTTP_RateLimit(t *testing.T) {
	ht := newTestTransport(t, 0.001, 1)

	resp, _ := do(t, ht, httptest.NewRequest(http.MethodGet, "/api/suggestions", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := do(t, ht, httptest.NewRequest(http.MethodGet, "/api/suggestions", nil))
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Contains(t, string(body), models.ErrorRateLimited)

	// Health checks are not rate limited.
	resp, _ = do(t, ht, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHTTP_RequestIDIsEchoed(t *testing.T) {
	ht := newTestTransport(t, 100, 100)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDKey, "abc123")
	resp, _ := do(t, ht, req)

	assert.Equal(t, "abc123", resp.Header.Get(RequestIDKey))
}

func TestHTTP_NotFound(t *testing.T) {
	ht := newTestTransport(t, 100, 100)

	resp, body := do(t, ht, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), models.ErrorNotFound)
}

func TestHTTP_TranscriptAndEndSession(t *testing.T) {
	ht := newTestTransport(t, 100, 100)

	do(t, ht, postChat(`{"session_id":"s1","message":"phone"}`))

	resp, body := do(t, ht, httptest.NewRequest(http.MethodGet, "/api/sessions/s1/transcript", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")
	assert.Equal(t, "Visitor: phone\nAssistant: Phone: +91 8270929419\n", string(body))

	resp, _ = do(t, ht, httptest.NewRequest(http.MethodDelete, "/api/sessions/s1", nil))
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body = do(t, ht, httptest.NewRequest(http.MethodGet, "/api/sessions/s1/history", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"messages":[]`)

	resp, body = do(t, ht, httptest.NewRequest(http.MethodDelete, "/api/sessions/s1", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), models.ErrorNotFound)
}
