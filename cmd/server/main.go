package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/avvvet/portfolio-chat/internal/config"
	"github.com/avvvet/portfolio-chat/internal/handlers"
	"github.com/avvvet/portfolio-chat/internal/knowledge"
	"github.com/avvvet/portfolio-chat/internal/logging"
	"github.com/avvvet/portfolio-chat/internal/memory"
	"github.com/avvvet/portfolio-chat/internal/responder"
	"github.com/avvvet/portfolio-chat/internal/stats"
	"github.com/avvvet/portfolio-chat/internal/transport"
)

func main() {
	// Load .env file if it exists (for development)
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("❌ Failed to load config: %v", err)
	}

	log := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if envErr != nil {
		log.Debug("No .env file found, using environment variables")
	}

	log.Info("🚀 Starting portfolio chat service...")
	log.WithFields(logrus.Fields{
		"service":      cfg.ServiceName,
		"default_mode": cfg.ChatMode,
	}).Info("📋 Configuration loaded")

	if cfg.NatsURL == "" && cfg.HTTPAddr == "" {
		log.Fatal("❌ Nothing to serve: set NATS_URL or HTTP_ADDR")
	}

	tables, err := knowledge.Load(cfg.ChatTablePath)
	if err != nil {
		log.Fatalf("❌ Failed to load knowledge tables: %v", err)
	}
	keyword := responder.NewKeywordResponder(tables.Keyword)
	menu := responder.NewMenuResponder(tables.Menu)
	log.WithFields(logrus.Fields{
		"version": tables.Version,
		"rules":   keyword.RuleCount(),
		"options": len(menu.OptionsFor("")),
	}).Info("📚 Knowledge tables loaded")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	memoryManager := memory.NewManager(memory.NewLocalStore(cfg.SessionIdleTTL), log)
	go memoryManager.RunSweeper(ctx, time.Minute)
	log.Info("🧠 Memory manager initialized")

	recorder := newRecorder(cfg, tables.Version, log)

	handler := handlers.NewChatHandler(keyword, menu, memoryManager, recorder, log).
		WithDefaultMode(cfg.ChatMode)

	var natsTransport *transport.NATSTransport
	if cfg.NatsURL != "" {
		natsTransport, err = transport.NewNATSTransport(cfg, handler, log)
		if err != nil {
			log.Fatalf("❌ Failed to initialize NATS transport: %v", err)
		}
		if err := natsTransport.Start(); err != nil {
			log.Fatalf("❌ Failed to start NATS transport: %v", err)
		}
	}

	var httpTransport *transport.HTTPTransport
	if cfg.HTTPAddr != "" {
		httpTransport = transport.NewHTTPTransport(cfg, handler, log)
		go func() {
			if err := httpTransport.Start(); err != nil {
				log.WithError(err).Error("❌ HTTP server stopped")
				stop()
			}
		}()
	}

	log.Info("✅ Portfolio chat service is running!")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.WithField("signal", sig.String()).Info("🛑 Received signal")
	case <-ctx.Done():
	}
	log.Info("🔄 Shutting down gracefully...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if httpTransport != nil {
		if err := httpTransport.Close(shutdownCtx); err != nil {
			log.WithError(err).Warn("⚠️ Error closing HTTP server")
		}
	}
	if natsTransport != nil {
		if err := natsTransport.Close(); err != nil {
			log.WithError(err).Warn("⚠️ Error closing NATS transport")
		}
	}

	log.WithField("sessions", memoryManager.GetActiveSessionCount()).Info("📊 Final session count")
	if err := memoryManager.Close(); err != nil {
		log.WithError(err).Warn("⚠️ Error closing memory manager")
	}
	if closer, ok := recorder.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			log.WithError(err).Warn("⚠️ Error closing stats store")
		}
	}

	log.Info("👋 Portfolio chat service stopped")
}

// newRecorder uses Redis when configured and reachable, in-process counters otherwise
func newRecorder(cfg *config.Config, version string, log *logrus.Logger) stats.Recorder {
	if cfg.RedisURL == "" {
		log.Info("📊 Lookup stats kept in process")
		return stats.NewLocalRecorder()
	}

	log.Info("🔌 Connecting to Redis...")
	recorder, err := stats.NewRedisRecorder(cfg.RedisURL, version, cfg.StatsTTL)
	if err != nil {
		log.WithError(err).Warn("⚠️ Redis unavailable, keeping lookup stats in process")
		return stats.NewLocalRecorder()
	}
	log.Info("✅ Redis connected")
	return recorder
}
