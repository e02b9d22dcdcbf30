package transport

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/avvvet/portfolio-chat/internal/config"
	"github.com/avvvet/portfolio-chat/internal/handlers"
	"github.com/avvvet/portfolio-chat/internal/models"
)

// HTTPTransport serves the chat API for the portfolio page
type HTTPTransport struct {
	app     *fiber.App
	config  *config.Config
	handler *handlers.ChatHandler
	log     *logrus.Logger
}

func NewHTTPTransport(cfg *config.Config, handler *handlers.ChatHandler, log *logrus.Logger) *HTTPTransport {
	app := fiber.New(fiber.Config{
		AppName:               cfg.ServiceName,
		BodyLimit:             64 * 1024,
		StrictRouting:         true,
		CaseSensitive:         true,
		DisableStartupMessage: true,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		ErrorHandler:          errorHandler,
	})

	ht := &HTTPTransport{
		app:     app,
		config:  cfg,
		handler: handler,
		log:     log,
	}

	limiter := newRateLimiter(rate.Limit(cfg.HTTPRateLimit), cfg.HTTPRateBurst)

	app.Use(requestIDMiddleware())
	app.Use(loggingMiddleware(log))

	app.Get("/healthz", ht.health)

	api := app.Group("/api", limiter.middleware(log))
	api.Post("/chat", ht.chat)
	api.Get("/menu", ht.menu)
	api.Get("/suggestions", ht.suggestions)
	api.Get("/sessions/:id/history", ht.history)
	api.Get("/sessions/:id/transcript", ht.transcript)
	api.Delete("/sessions/:id", ht.endSession)
	api.Get("/stats", ht.stats)

	return ht
}

// App exposes the fiber app, mostly for tests
func (ht *HTTPTransport) App() *fiber.App {
	return ht.app
}

// Start blocks serving on the configured address
func (ht *HTTPTransport) Start() error {
	ht.log.WithField("addr", ht.config.HTTPAddr).Info("🌐 HTTP API listening")
	return ht.app.Listen(ht.config.HTTPAddr)
}

func (ht *HTTPTransport) Close(ctx context.Context) error {
	return ht.app.ShutdownWithContext(ctx)
}

func (ht *HTTPTransport) chat(c *fiber.Ctx) error {
	var request models.ChatRequest
	if err := c.BodyParser(&request); err != nil {
		code, text := models.ErrorParseError, "Invalid request format"
		return c.Status(fiber.StatusBadRequest).JSON(&models.ChatResponse{
			Reply:        handlers.FallbackMessage,
			ErrorCode:    &code,
			ErrorMessage: &text,
		})
	}

	response, err := ht.handler.ProcessMessage(c.UserContext(), &request)
	if err != nil {
		return err
	}
	if response.ErrorCode != nil {
		c.Status(fiber.StatusBadRequest)
	}
	return c.JSON(response)
}

func (ht *HTTPTransport) menu(c *fiber.Ctx) error {
	response, err := ht.handler.ProcessMenu(c.UserContext(), &models.MenuRequest{
		SessionID:   c.Query("session_id"),
		PreviousKey: c.Query("previous_key"),
	})
	if err != nil {
		return err
	}
	if response.ErrorCode != nil {
		c.Status(fiber.StatusBadRequest)
	}
	return c.JSON(response)
}

func (ht *HTTPTransport) suggestions(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"suggestions": ht.handler.Suggestions()})
}

func (ht *HTTPTransport) history(c *fiber.Ctx) error {
	sessionID := c.Params("id")
	history, err := ht.handler.History(c.UserContext(), sessionID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"session_id": sessionID, "messages": history})
}

func (ht *HTTPTransport) transcript(c *fiber.Ctx) error {
	transcript, err := ht.handler.Transcript(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(transcript)
}

func (ht *HTTPTransport) endSession(c *fiber.Ctx) error {
	ended, err := ht.handler.EndSession(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	if !ended {
		return c.Status(fiber.StatusNotFound).JSON(errorBody(models.ErrorNotFound, "session not found"))
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (ht *HTTPTransport) stats(c *fiber.Ctx) error {
	counts, err := ht.handler.Stats(c.UserContext())
	if err != nil {
		ht.log.WithError(err).WithField("request_id", requestID(c)).Warn("⚠️ Stats unavailable")
		return c.Status(fiber.StatusServiceUnavailable).JSON(errorBody(models.ErrorUnavailable, "lookup stats are unavailable"))
	}
	return c.JSON(fiber.Map{"counts": counts})
}

func (ht *HTTPTransport) health(c *fiber.Ctx) error {
	statsStatus := "ok"
	if !ht.handler.StatsHealthy(c.UserContext()) {
		statsStatus = "unavailable"
	}
	return c.JSON(fiber.Map{"status": "ok", "service": ht.config.ServiceName, "stats": statsStatus})
}

func errorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	code := models.ErrorInternal

	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
		if status == fiber.StatusNotFound {
			code = models.ErrorNotFound
		}
	}
	return c.Status(status).JSON(errorBody(code, err.Error()))
}
