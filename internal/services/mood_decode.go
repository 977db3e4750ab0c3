package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/terraincognita07/comoestou/internal/docstore"
	"github.com/terraincognita07/comoestou/internal/logger"
	"github.com/terraincognita07/comoestou/internal/models"
)

var ErrMalformedMoodEntry = errors.New("malformed mood entry")

// DecodeMoodEntry converts a stored document into a MoodEntry, rejecting
// anything the aggregator could not bucket or plot.
func DecodeMoodEntry(doc docstore.Document) (models.MoodEntry, error) {
	entry := models.MoodEntry{ID: doc.ID, CreatedAt: doc.CreateTime}

	date, _ := doc.Fields[models.FieldDate].(string)
	if _, ok := CanonicalDay(date); !ok {
		return models.MoodEntry{}, fmt.Errorf("%w: date %q", ErrMalformedMoodEntry, date)
	}
	entry.Date = date

	mood, ok := integerField(doc.Fields[models.FieldMood])
	if !ok || mood < models.MoodAwful || mood > models.MoodGreat {
		return models.MoodEntry{}, fmt.Errorf("%w: mood %v", ErrMalformedMoodEntry, doc.Fields[models.FieldMood])
	}
	entry.Mood = mood

	if raw, present := doc.Fields[models.FieldHeartRate]; present && raw != nil {
		heartRate, ok := integerField(raw)
		if !ok || heartRate < 0 {
			return models.MoodEntry{}, fmt.Errorf("%w: heart rate %v", ErrMalformedMoodEntry, raw)
		}
		entry.HeartRate = &heartRate
	}

	if notes, ok := doc.Fields[models.FieldNotes].(string); ok && strings.TrimSpace(notes) != "" {
		entry.Notes = &notes
	}
	if userID, ok := doc.Fields[models.FieldUserID].(string); ok {
		entry.UserID = userID
	}
	if raw, ok := doc.Fields[models.FieldCreatedAt].(string); ok {
		if createdAt, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			entry.CreatedAt = createdAt
		}
	}
	return entry, nil
}

// DecodeMoodEntries keeps the order of docs and drops the ones that fail to
// decode.
func DecodeMoodEntries(docs []docstore.Document) []models.MoodEntry {
	entries := make([]models.MoodEntry, 0, len(docs))
	for _, doc := range docs {
		entry, err := DecodeMoodEntry(doc)
		if err != nil {
			logger.Warn("skip malformed mood entry", "path", doc.Path(), "error", err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

func integerField(value any) (int, bool) {
	switch typed := value.(type) {
	case int:
		return typed, true
	case int64:
		return int(typed), true
	case float64:
		if math.IsNaN(typed) || math.IsInf(typed, 0) || typed != math.Trunc(typed) {
			return 0, false
		}
		return int(typed), true
	case json.Number:
		parsed, err := typed.Int64()
		if err != nil {
			return 0, false
		}
		return int(parsed), true
	default:
		return 0, false
	}
}
