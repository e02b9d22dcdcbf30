package transport

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/avvvet/portfolio-chat/internal/models"
)

const RequestIDKey = "X-Request-ID"

func requestIDMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID := c.Get(RequestIDKey)
		if requestID == "" {
			requestID = ulid.Make().String()
		}

		c.Locals(RequestIDKey, requestID)
		c.Set(RequestIDKey, requestID)

		return c.Next()
	}
}

func requestID(c *fiber.Ctx) string {
	id, ok := c.Locals(RequestIDKey).(string)
	if !ok || id == "" {
		return "unknown"
	}
	return id
}

func loggingMiddleware(log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()
		if err != nil {
			// Let the app's error handler set the final status before logging.
			if handlerErr := c.App().ErrorHandler(c, err); handlerErr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
			err = nil
		}

		status := c.Response().StatusCode()
		entry := log.WithFields(logrus.Fields{
			"request_id":    requestID(c),
			"method":        c.Method(),
			"path":          c.Path(),
			"status":        status,
			"latency_ms":    time.Since(start).Milliseconds(),
			"ip":            c.IP(),
			"response_size": len(c.Response().Body()),
		})

		switch {
		case status >= 500:
			entry.Error("Server error")
		case status >= 400:
			entry.Warn("Client error")
		default:
			entry.Debug("Success")
		}

		return err
	}
}

// limiterIdleTTL is how long an IP's bucket survives without requests
const limiterIdleTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter keeps one token bucket per client IP and drops buckets that
// have been idle for longer than idleTTL
type rateLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*clientLimiter
	rate      rate.Limit
	burstSize int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func newRateLimiter(reqRate rate.Limit, burstSize int) *rateLimiter {
	return &rateLimiter{
		buckets:   make(map[string]*clientLimiter),
		rate:      reqRate,
		burstSize: burstSize,
		idleTTL:   limiterIdleTTL,
		lastSweep: time.Now(),
		now:       time.Now,
	}
}

func (r *rateLimiter) limiterFor(ip string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if now.Sub(r.lastSweep) >= r.idleTTL {
		r.sweepLocked(now)
	}

	client, ok := r.buckets[ip]
	if !ok {
		client = &clientLimiter{limiter: rate.NewLimiter(r.rate, r.burstSize)}
		r.buckets[ip] = client
	}
	client.lastSeen = now
	return client.limiter
}

func (r *rateLimiter) sweepLocked(now time.Time) {
	cutoff := now.Add(-r.idleTTL)
	for ip, client := range r.buckets {
		if client.lastSeen.Before(cutoff) {
			delete(r.buckets, ip)
		}
	}
	r.lastSweep = now
}

func (r *rateLimiter) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buckets)
}

func (r *rateLimiter) middleware(log *logrus.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		clientIP := c.IP()
		if !r.limiterFor(clientIP).Allow() {
			log.WithField("ip", clientIP).Warn("too many requests")
			return c.Status(fiber.StatusTooManyRequests).JSON(errorBody(models.ErrorRateLimited, "too many requests"))
		}
		return c.Next()
	}
}

type errorResponse struct {
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

func errorBody(code, message string) errorResponse {
	return errorResponse{ErrorCode: code, ErrorMessage: message}
}
