package api

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(app *fiber.App, handler *Handler) {
	app.Get("/healthz", handler.Health)
	app.Get("/favicon.ico", sendNoContent)
	registerAPIRoutes(app, handler)
}

func registerAPIRoutes(app *fiber.App, handler *Handler) {
	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", handler.Register)
	auth.Post("/login", handler.Login)
	auth.Post("/google", handler.GoogleLogin)
	auth.Post("/logout", handler.AuthRequired, handler.Logout)
	auth.Get("/me", handler.AuthRequired, handler.Me)

	moods := api.Group("/moods", handler.AuthRequired)
	moods.Get("", handler.ListMoods)
	moods.Post("", handler.CreateMood)
	moods.Get("/stream", handler.StreamMoods)
	moods.Get("/:id", handler.GetMood)
	moods.Patch("/:id", handler.UpdateMood)
	moods.Delete("/:id", handler.DeleteMood)

	charts := api.Group("/charts", handler.AuthRequired)
	charts.Get("/mood", handler.MoodChart)
	charts.Get("/heart-rate", handler.HeartRateChart)

	calendar := api.Group("/calendar", handler.AuthRequired)
	calendar.Get("/availability", handler.Availability)
}

func sendNoContent(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}
