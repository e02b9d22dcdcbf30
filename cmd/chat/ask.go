package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/avvvet/portfolio-chat/internal/handlers"
	"github.com/avvvet/portfolio-chat/internal/knowledge"
	"github.com/avvvet/portfolio-chat/internal/logging"
	"github.com/avvvet/portfolio-chat/internal/memory"
	"github.com/avvvet/portfolio-chat/internal/models"
	"github.com/avvvet/portfolio-chat/internal/responder"
	"github.com/avvvet/portfolio-chat/internal/stats"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	request := &models.ChatRequest{
		SessionID: uuid.NewString(),
		Message:   strings.Join(args, " "),
		Mode:      cfg.ChatMode,
	}

	var response *models.ChatResponse
	if natsFlag != "" {
		response, err = askRemote(natsFlag, cfg.NatsRespondSubject, cfg.NatsTimeout, request)
	} else {
		response, err = askLocal(cmd.Context(), cfg.ChatTablePath, request)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	}

	if response.ErrorCode != nil {
		return fmt.Errorf("%s: %s", *response.ErrorCode, *response.ErrorMessage)
	}
	fmt.Fprintln(out, response.Reply)
	return nil
}

func askLocal(ctx context.Context, tablePath string, request *models.ChatRequest) (*models.ChatResponse, error) {
	tables, err := knowledge.Load(tablePath)
	if err != nil {
		return nil, err
	}

	log := logging.Discard()
	handler := handlers.NewChatHandler(
		responder.NewKeywordResponder(tables.Keyword),
		responder.NewMenuResponder(tables.Menu),
		memory.NewManager(memory.NewLocalStore(0), log),
		stats.NewLocalRecorder(),
		log,
	)
	if ctx == nil {
		ctx = context.Background()
	}
	return handler.ProcessMessage(ctx, request)
}

func askRemote(url, subject string, timeout time.Duration, request *models.ChatRequest) (*models.ChatResponse, error) {
	nc, err := nats.Connect(url, nats.Name("portfolio-chat-cli"), nats.Timeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer nc.Close()

	data, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}

	msg, err := nc.Request(subject, data, timeout)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", subject, err)
	}

	var response models.ChatResponse
	if err := json.Unmarshal(msg.Data, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &response, nil
}
