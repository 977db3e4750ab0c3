package api

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/comoestou/internal/models"
	"github.com/terraincognita07/comoestou/internal/services"
)

// heartRateField takes a JSON number, a JSON string or null. Forms send
// it as text.
type heartRateField string

func (field *heartRateField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*field = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*field = heartRateField(text)
		return nil
	default:
		var number json.Number
		if err := json.Unmarshal(data, &number); err != nil {
			return err
		}
		*field = heartRateField(number.String())
		return nil
	}
}

type moodEntryRequest struct {
	Mood      int            `json:"mood" form:"mood"`
	Notes     string         `json:"notes" form:"notes"`
	HeartRate heartRateField `json:"heart_rate" form:"heart_rate"`
	Date      string         `json:"date" form:"date"`
}

func (request moodEntryRequest) input() services.MoodEntryInput {
	return services.MoodEntryInput{
		Mood:      request.Mood,
		Notes:     request.Notes,
		HeartRate: string(request.HeartRate),
		Date:      request.Date,
	}
}

type moodEntryResponse struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	Day       string    `json:"day"`
	Mood      int       `json:"mood"`
	MoodLabel string    `json:"mood_label"`
	Emoji     string    `json:"emoji"`
	Notes     *string   `json:"notes"`
	HeartRate *int      `json:"heart_rate"`
	CreatedAt time.Time `json:"created_at"`
}

func newMoodEntryResponse(entry models.MoodEntry, messages map[string]string) moodEntryResponse {
	day, _ := services.CanonicalDay(entry.Date)
	return moodEntryResponse{
		ID:        entry.ID,
		Date:      entry.Date,
		Day:       day,
		Mood:      entry.Mood,
		MoodLabel: moodLabel(messages, entry.Mood),
		Emoji:     models.MoodEmoji(entry.Mood),
		Notes:     entry.Notes,
		HeartRate: entry.HeartRate,
		CreatedAt: entry.CreatedAt,
	}
}

func newMoodEntryResponses(entries []models.MoodEntry, messages map[string]string) []moodEntryResponse {
	result := make([]moodEntryResponse, 0, len(entries))
	for _, entry := range entries {
		result = append(result, newMoodEntryResponse(entry, messages))
	}
	return result
}

func moodLabel(messages map[string]string, level int) string {
	for _, option := range models.DefaultMoodOptions() {
		if option.Level == level {
			return translateMessage(messages, option.Key)
		}
	}
	return strconv.Itoa(level)
}

func (handler *Handler) ListMoods(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, codeUnauthorized)
	}

	limit := services.ClampTimelineLimit(c.QueryInt("limit", services.DefaultTimelineLimit))
	entries, err := handler.moods.Timeline(c.UserContext(), user.UID, limit)
	if err != nil {
		return handler.respondMoodError(c, err)
	}
	return c.JSON(fiber.Map{
		"entries": newMoodEntryResponses(entries, currentMessages(c)),
		"limit":   limit,
	})
}

func (handler *Handler) CreateMood(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, codeUnauthorized)
	}

	request := moodEntryRequest{}
	if err := c.BodyParser(&request); err != nil {
		return apiError(c, fiber.StatusBadRequest, codeInvalidInput)
	}

	entry, err := handler.moods.Create(c.UserContext(), user.UID, request.input())
	if err != nil {
		return handler.respondMoodError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(newMoodEntryResponse(entry, currentMessages(c)))
}

func (handler *Handler) GetMood(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, codeUnauthorized)
	}

	entry, err := handler.moods.Get(c.UserContext(), user.UID, c.Params("id"))
	if err != nil {
		return handler.respondMoodError(c, err)
	}
	return c.JSON(newMoodEntryResponse(entry, currentMessages(c)))
}

// UpdateMood edits mood, notes and heart rate. A date in the body is
// ignored.
func (handler *Handler) UpdateMood(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, codeUnauthorized)
	}

	request := moodEntryRequest{}
	if err := c.BodyParser(&request); err != nil {
		return apiError(c, fiber.StatusBadRequest, codeInvalidInput)
	}

	entry, err := handler.moods.Update(c.UserContext(), user.UID, c.Params("id"), request.input())
	if err != nil {
		return handler.respondMoodError(c, err)
	}
	return c.JSON(newMoodEntryResponse(entry, currentMessages(c)))
}

func (handler *Handler) DeleteMood(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, codeUnauthorized)
	}

	if err := handler.moods.Delete(c.UserContext(), user.UID, c.Params("id")); err != nil {
		return handler.respondMoodError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}
