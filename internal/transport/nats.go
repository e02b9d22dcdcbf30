package transport

import (
	"context"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"github.com/avvvet/portfolio-chat/internal/config"
	"github.com/avvvet/portfolio-chat/internal/handlers"
	"github.com/avvvet/portfolio-chat/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type NATSTransport struct {
	conn    *nats.Conn
	config  *config.Config
	handler *handlers.ChatHandler
	log     *logrus.Logger
	subs    []*nats.Subscription
}

func NewNATSTransport(cfg *config.Config, handler *handlers.ChatHandler, log *logrus.Logger) (*NATSTransport, error) {
	conn, err := nats.Connect(cfg.NatsURL,
		nats.Name(cfg.ServiceName),
		nats.Timeout(cfg.NatsTimeout),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1), // Infinite reconnects
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.WithError(err).Warn("⚠️ NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.WithField("url", nc.ConnectedUrl()).Info("🔁 NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	log.WithField("url", cfg.NatsURL).Info("📡 Connected to NATS server")

	return &NATSTransport{
		conn:    conn,
		config:  cfg,
		handler: handler,
		log:     log,
	}, nil
}

func (nt *NATSTransport) Start() error {
	routes := map[string]nats.MsgHandler{
		nt.config.NatsRespondSubject: nt.handleChatRequest,
		nt.config.NatsMenuSubject:    nt.handleMenuRequest,
	}

	for subject, handler := range routes {
		sub, err := nt.conn.Subscribe(subject, handler)
		if err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
		}
		nt.subs = append(nt.subs, sub)
		nt.log.WithField("subject", subject).Info("👂 Subscribed")
	}

	if err := nt.conn.Flush(); err != nil {
		return fmt.Errorf("failed to flush subscriptions: %w", err)
	}
	return nil
}

func (nt *NATSTransport) handleChatRequest(msg *nats.Msg) {
	var request models.ChatRequest
	if err := json.Unmarshal(msg.Data, &request); err != nil {
		nt.log.WithError(err).Warn("Error parsing chat request")
		code, text := models.ErrorParseError, "Invalid request format"
		nt.respond(msg, &models.ChatResponse{
			SessionID:    request.SessionID,
			Reply:        handlers.FallbackMessage,
			ErrorCode:    &code,
			ErrorMessage: &text,
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), nt.config.NatsTimeout)
	defer cancel()

	response, err := nt.handler.ProcessMessage(ctx, &request)
	if err != nil {
		nt.log.WithError(err).WithField("session_id", request.SessionID).Error("Error processing message")
		return
	}
	nt.respond(msg, response)
}

func (nt *NATSTransport) handleMenuRequest(msg *nats.Msg) {
	var request models.MenuRequest
	if err := json.Unmarshal(msg.Data, &request); err != nil {
		nt.log.WithError(err).Warn("Error parsing menu request")
		code, text := models.ErrorParseError, "Invalid request format"
		nt.respond(msg, &models.MenuResponse{
			Options:      []models.MenuOption{},
			ErrorCode:    &code,
			ErrorMessage: &text,
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), nt.config.NatsTimeout)
	defer cancel()

	response, err := nt.handler.ProcessMenu(ctx, &request)
	if err != nil {
		nt.log.WithError(err).WithField("session_id", request.SessionID).Error("Error processing menu request")
		return
	}
	nt.respond(msg, response)
}

func (nt *NATSTransport) respond(msg *nats.Msg, response any) {
	data, err := json.Marshal(response)
	if err != nil {
		nt.log.WithError(err).Error("Failed to marshal response")
		return
	}
	if err := msg.Respond(data); err != nil {
		nt.log.WithError(err).WithField("subject", msg.Subject).Warn("Failed to send response")
	}
}

func (nt *NATSTransport) Close() error {
	if nt.conn == nil {
		return nil
	}
	for _, sub := range nt.subs {
		_ = sub.Unsubscribe()
	}
	if err := nt.conn.Drain(); err != nil {
		nt.conn.Close()
		return fmt.Errorf("failed to drain NATS connection: %w", err)
	}
	nt.log.Info("NATS connection closed")
	return nil
}
