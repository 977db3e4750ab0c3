package services

import (
	"time"

	"github.com/terraincognita07/comoestou/internal/models"
)

const CalendarLookbackDays = 30

type SelectableDay struct {
	Date      string `json:"date"`
	Label     string `json:"label"`
	Available bool   `json:"available"`
	Selected  bool   `json:"selected"`
	// Selectable is Available, or the day is the current selection.
	Selectable bool `json:"selectable"`
}

func ComputeFilledDays(records []models.MoodEntry) map[string]struct{} {
	filled := make(map[string]struct{}, len(records))
	for _, record := range records {
		if key, ok := CanonicalDay(record.Date); ok {
			filled[key] = struct{}{}
		}
	}
	return filled
}

// IsAvailable reports whether day has no entry yet. The check is advisory;
// nothing stops a second entry for the same day.
func IsAvailable(day time.Time, filled map[string]struct{}) bool {
	_, taken := filled[DayKey(day)]
	return !taken
}

// SelectableDays lists the lookbackDays days ending today, newest first.
// The selected day stays selectable even when it already has an entry.
func SelectableDays(filled map[string]struct{}, today time.Time, lookbackDays int, selected string, labeler DayLabeler) []SelectableDay {
	if lookbackDays <= 0 {
		return []SelectableDay{}
	}
	start := DateAtLocation(today, today.Location())
	if selected == "" {
		selected = DayKey(start)
	}

	days := make([]SelectableDay, 0, lookbackDays)
	for offset := 0; offset < lookbackDays; offset++ {
		day := start.AddDate(0, 0, -offset)
		key := DayKey(day)
		entry := SelectableDay{
			Date:      key,
			Available: IsAvailable(day, filled),
			Selected:  key == selected,
		}
		entry.Selectable = entry.Available || entry.Selected
		if labeler != nil {
			entry.Label = labeler(day)
		}
		days = append(days, entry)
	}
	return days
}
