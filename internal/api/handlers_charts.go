package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/comoestou/internal/models"
	"github.com/terraincognita07/comoestou/internal/services"
)

type moodOptionResponse struct {
	Level int    `json:"level"`
	Emoji string `json:"emoji"`
	Label string `json:"label"`
}

func (handler *Handler) dayLabeler(c *fiber.Ctx) services.DayLabeler {
	language := currentLanguage(c)
	return func(day time.Time) string {
		return handler.i18n.WeekdayLabel(language, day.Weekday())
	}
}

func moodOptions(messages map[string]string) []moodOptionResponse {
	options := models.DefaultMoodOptions()
	result := make([]moodOptionResponse, 0, len(options))
	for _, option := range options {
		result = append(result, moodOptionResponse{
			Level: option.Level,
			Emoji: option.Emoji,
			Label: translateMessage(messages, option.Key),
		})
	}
	return result
}

func (handler *Handler) MoodChart(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, codeUnauthorized)
	}

	points, err := handler.moods.MoodChart(c.UserContext(), user.UID, handler.dayLabeler(c))
	if err != nil {
		return handler.respondMoodError(c, err)
	}
	return c.JSON(fiber.Map{
		"window_days": services.ChartWindowDays,
		"points":      points,
		"options":     moodOptions(currentMessages(c)),
	})
}

// HeartRateChart reports has_data so clients can show the empty message
// instead of a flat line when nothing was recorded in the window.
func (handler *Handler) HeartRateChart(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, codeUnauthorized)
	}

	points, err := handler.moods.HeartRateChart(c.UserContext(), user.UID, handler.dayLabeler(c))
	if err != nil {
		return handler.respondMoodError(c, err)
	}

	hasData := services.HasAnyRecorded(points)
	payload := fiber.Map{
		"window_days": services.ChartWindowDays,
		"points":      points,
		"has_data":    hasData,
	}
	if !hasData {
		payload["empty_message"] = translateMessage(currentMessages(c), "chart.heart_rate.empty")
	}
	return c.JSON(payload)
}

func (handler *Handler) Availability(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, codeUnauthorized)
	}

	today := services.DayKey(handler.moods.Today())
	selected := today
	if raw := c.Query("selected"); raw != "" {
		day, valid := services.CanonicalDay(raw)
		if !valid {
			return apiError(c, fiber.StatusBadRequest, codeInvalidDate)
		}
		selected = day
	}

	days, err := handler.moods.Availability(c.UserContext(), user.UID, selected, handler.dayLabeler(c))
	if err != nil {
		return handler.respondMoodError(c, err)
	}
	return c.JSON(fiber.Map{
		"today":    today,
		"selected": selected,
		"days":     days,
	})
}
