package transport

import (
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avvvet/portfolio-chat/internal/config"
	"github.com/avvvet/portfolio-chat/internal/logging"
	"github.com/avvvet/portfolio-chat/internal/models"
)

const natsTestTimeout = 2 * time.Second

// startNATS runs an in-process server and the chat transport against it,
// returning a client connection for sending requests
func startNATS(t *testing.T) (*nats.Conn, *config.Config) {
	t.Helper()

	opts := natsserver.DefaultTestOptions
	opts.Port = -1
	server := natsserver.RunServer(&opts)
	t.Cleanup(server.Shutdown)

	cfg := &config.Config{
		ServiceName:        "portfolio-chat-test",
		NatsURL:            server.ClientURL(),
		NatsRespondSubject: "chat.respond",
		NatsMenuSubject:    "chat.menu",
		NatsTimeout:        natsTestTimeout,
	}

	nt, err := NewNATSTransport(cfg, newTestHandler(t), logging.Discard())
	require.NoError(t, err)
	require.NoError(t, nt.Start())
	t.Cleanup(func() { _ = nt.Close() })

	client, err := nats.Connect(server.ClientURL())
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return client, cfg
}

func requestChat(t *testing.T, client *nats.Conn, subject string, payload []byte) models.ChatResponse {
	t.Helper()

	msg, err := client.Request(subject, payload, natsTestTimeout)
	require.NoError(t, err)

	var response models.ChatResponse
	require.NoError(t, json.Unmarshal(msg.Data, &response))
	return response
}

func TestNATS_ChatTurn(t *testing.T) {
	client, cfg := startNATS(t)

	resp := requestChat(t, client, cfg.NatsRespondSubject, []byte(`{"session_id":"s1","message":"EMAIL please"}`))

	assert.Nil(t, resp.ErrorCode)
	assert.Equal(t, "s1", resp.SessionID)
	assert.Equal(t, models.ModeKeyword, resp.Mode)
	assert.Equal(t, "Email: deepthibv1997@gmail.com", resp.Reply)
	assert.True(t, resp.Matched)
}

func TestNATS_ChatErrors(t *testing.T) {
	client, cfg := startNATS(t)

	tests := []struct {
		name    string
		payload string
		code    string
	}{
		{"malformed json", `{"session_id":`, models.ErrorParseError},
		{"blank message", `{"session_id":"s1","message":"  "}`, models.ErrorInvalidRequest},
		{"unknown mode", `{"session_id":"s1","message":"hi","mode":"llm"}`, models.ErrorUnknownMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := requestChat(t, client, cfg.NatsRespondSubject, []byte(tt.payload))
			require.NotNil(t, resp.ErrorCode)
			assert.Equal(t, tt.code, *resp.ErrorCode)
			assert.NotEmpty(t, resp.Reply)
		})
	}
}

func TestNATS_Menu(t *testing.T) {
	client, cfg := startNATS(t)

	msg, err := client.Request(cfg.NatsMenuSubject, []byte(`{"session_id":"s1","previous_key":"research"}`), natsTestTimeout)
	require.NoError(t, err)

	var menu models.MenuResponse
	require.NoError(t, json.Unmarshal(msg.Data, &menu))
	assert.Nil(t, menu.ErrorCode)
	assert.Equal(t, "s1", menu.SessionID)
	assert.NotEmpty(t, menu.Intro)
	require.Len(t, menu.Options, 6)
	assert.Equal(t, "about", menu.Options[0].Key)

	msg, err = client.Request(cfg.NatsMenuSubject, []byte(`not json`), natsTestTimeout)
	require.NoError(t, err)

	var bad models.MenuResponse
	require.NoError(t, json.Unmarshal(msg.Data, &bad))
	require.NotNil(t, bad.ErrorCode)
	assert.Equal(t, models.ErrorParseError, *bad.ErrorCode)
}
