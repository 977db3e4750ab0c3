package api

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/comoestou/internal/i18n"
	"github.com/terraincognita07/comoestou/internal/identity"
	"github.com/terraincognita07/comoestou/internal/services"
)

const defaultStreamHeartbeat = 15 * time.Second

type HandlerConfig struct {
	Provider     *identity.Provider
	Moods        *services.MoodService
	I18n         *i18n.Manager
	CookieSecure bool
	// StreamHeartbeat is how often open streams ping the client and
	// re-check the session. Zero uses the default.
	StreamHeartbeat time.Duration
}

type Handler struct {
	provider        *identity.Provider
	moods           *services.MoodService
	i18n            *i18n.Manager
	cookieSecure    bool
	loginLimiter    *attemptLimiter
	streamHeartbeat time.Duration
	streams         context.Context
	stopStreams     context.CancelFunc
	now             func() time.Time
}

func NewHandler(cfg HandlerConfig) (*Handler, error) {
	if cfg.Provider == nil || cfg.Moods == nil || cfg.I18n == nil {
		return nil, errors.New("api handler requires provider, moods and i18n")
	}
	heartbeat := cfg.StreamHeartbeat
	if heartbeat <= 0 {
		heartbeat = defaultStreamHeartbeat
	}
	streams, stopStreams := context.WithCancel(context.Background())
	return &Handler{
		provider:        cfg.Provider,
		moods:           cfg.Moods,
		i18n:            cfg.I18n,
		cookieSecure:    cfg.CookieSecure,
		loginLimiter:    newAttemptLimiter(),
		streamHeartbeat: heartbeat,
		streams:         streams,
		stopStreams:     stopStreams,
		now:             time.Now,
	}, nil
}

// CloseStreams ends every open event stream. Call it before shutting the
// server down, since streams otherwise hold their connections open.
func (handler *Handler) CloseStreams() {
	handler.stopStreams()
}

func (handler *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (handler *Handler) NotFound(c *fiber.Ctx) error {
	return apiError(c, fiber.StatusNotFound, codeNotFound)
}
