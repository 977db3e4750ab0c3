package services

import (
	"sort"
	"time"

	"github.com/terraincognita07/comoestou/internal/models"
)

const ChartWindowDays = 7

type SeriesPoint struct {
	Label string  `json:"label"`
	Date  string  `json:"date"`
	Value float64 `json:"value"`
	// Recorded tells an absent value apart from a recorded zero.
	Recorded bool `json:"recorded"`
}

// DayLabeler names a day on the chart axis.
type DayLabeler func(day time.Time) string

// BuildSeries buckets records into windowDays calendar days ending at
// endDate, oldest first. Each day takes the value of the first record in
// the given order whose date falls on it. Callers pass records sorted by
// date descending, so on a duplicated day the entry listed first wins.
func BuildSeries(
	records []models.MoodEntry,
	windowDays int,
	endDate time.Time,
	valueOf func(models.MoodEntry) (float64, bool),
	labeler DayLabeler,
) []SeriesPoint {
	if windowDays <= 0 {
		return []SeriesPoint{}
	}

	firstByDay := make(map[string]models.MoodEntry, len(records))
	for _, record := range records {
		key, ok := CanonicalDay(record.Date)
		if !ok {
			continue
		}
		if _, exists := firstByDay[key]; !exists {
			firstByDay[key] = record
		}
	}

	end := DateAtLocation(endDate, endDate.Location())
	points := make([]SeriesPoint, 0, windowDays)
	for offset := windowDays - 1; offset >= 0; offset-- {
		day := end.AddDate(0, 0, -offset)
		key := DayKey(day)
		point := SeriesPoint{Date: key}
		if labeler != nil {
			point.Label = labeler(day)
		}
		if record, found := firstByDay[key]; found {
			point.Value, point.Recorded = valueOf(record)
		}
		if !point.Recorded {
			point.Value = 0
		}
		points = append(points, point)
	}
	return points
}

// OrderSameDayByInstant puts the entries of each calendar day newest
// instant first. Dates sort as text in the store, so on a DST fall-back day
// the repeated hour is ordered by wall clock. Entries must already be
// grouped by day, as a date-descending query returns them. Bare dates sort
// after timestamps of the same day, matching their text order.
func OrderSameDayByInstant(entries []models.MoodEntry) {
	for start := 0; start < len(entries); {
		day, _ := CanonicalDay(entries[start].Date)
		end := start + 1
		for end < len(entries) {
			if next, _ := CanonicalDay(entries[end].Date); next != day {
				break
			}
			end++
		}
		run := entries[start:end]
		sort.SliceStable(run, func(i, j int) bool {
			return entryInstant(run[i]).After(entryInstant(run[j]))
		})
		start = end
	}
}

func entryInstant(entry models.MoodEntry) time.Time {
	parsed, err := time.Parse(time.RFC3339, entry.Date)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

func MoodValue(entry models.MoodEntry) (float64, bool) {
	return float64(entry.Mood), true
}

func HeartRateValue(entry models.MoodEntry) (float64, bool) {
	if entry.HeartRate == nil {
		return 0, false
	}
	return float64(*entry.HeartRate), true
}

func MoodSeries(records []models.MoodEntry, endDate time.Time, labeler DayLabeler) []SeriesPoint {
	return BuildSeries(records, ChartWindowDays, endDate, MoodValue, labeler)
}

func HeartRateSeries(records []models.MoodEntry, endDate time.Time, labeler DayLabeler) []SeriesPoint {
	return BuildSeries(records, ChartWindowDays, endDate, HeartRateValue, labeler)
}

func HasAnyRecorded(points []SeriesPoint) bool {
	for _, point := range points {
		if point.Recorded {
			return true
		}
	}
	return false
}
