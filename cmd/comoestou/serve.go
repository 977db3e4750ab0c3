package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/terraincognita07/comoestou/internal/api"
	"github.com/terraincognita07/comoestou/internal/cli"
	"github.com/terraincognita07/comoestou/internal/config"
	"github.com/terraincognita07/comoestou/internal/logger"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

type serveCmd struct{}

func (cmd *serveCmd) Run(ctx *cli.Context) error {
	if err := config.Validate(ctx.Config); err != nil {
		return err
	}
	location := ctx.Config.Location()
	time.Local = location

	runtime, err := cli.OpenRuntime(ctx.Config, cli.RuntimeOptions{})
	if err != nil {
		return err
	}
	defer runtime.Close()

	handler, err := api.NewHandler(api.HandlerConfig{
		Provider:     runtime.Provider,
		Moods:        runtime.Moods,
		I18n:         runtime.I18n,
		CookieSecure: ctx.Config.CookieSecure,
	})
	if err != nil {
		return fmt.Errorf("handler init failed: %w", err)
	}
	app := newApp(handler)

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()
	group, groupCtx := errgroup.WithContext(sigCtx)

	group.Go(func() error {
		if err := app.Listen(":" + ctx.Config.Port); err != nil {
			return fmt.Errorf("server exited: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		handler.CloseStreams()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	logger.Info("comoestou listening",
		"addr", "http://0.0.0.0:"+ctx.Config.Port,
		"db", ctx.Config.DB.Driver,
		"tz", location.String(),
		"redis", ctx.Config.Redis.Addr != "",
		"google", ctx.Config.Google.ClientID != "",
	)
	return group.Wait()
}

func newApp(handler *api.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Como Estou",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(compress.New(compress.Config{Next: isEventStream}))
	app.Use(handler.LanguageMiddleware)

	api.RegisterRoutes(app, handler)
	app.Use(handler.NotFound)
	return app
}

// isEventStream skips compression, which would buffer the stream.
func isEventStream(c *fiber.Ctx) bool {
	return strings.HasSuffix(c.Path(), "/stream")
}
