package services

import (
	"time"
)

const dayLayout = "2006-01-02"

func DateAtLocation(value time.Time, location *time.Location) time.Time {
	if location == nil {
		location = time.UTC
	}
	localized := value.In(location)
	year, month, day := localized.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, location)
}

func DayRange(value time.Time, location *time.Location) (time.Time, time.Time) {
	start := DateAtLocation(value, location)
	return start, start.AddDate(0, 0, 1)
}

// DayKey formats the calendar date of value as it reads on its own clock.
func DayKey(value time.Time) string {
	return value.Format(dayLayout)
}

// CanonicalDay returns the YYYY-MM-DD prefix of a stored ISO 8601 date.
// A timestamp keeps the calendar day written in it; no zone conversion
// happens.
func CanonicalDay(raw string) (string, bool) {
	if len(raw) < len(dayLayout) {
		return "", false
	}
	prefix := raw[:len(dayLayout)]
	if _, err := time.Parse(dayLayout, prefix); err != nil {
		return "", false
	}
	if len(raw) == len(dayLayout) {
		return prefix, true
	}
	if raw[len(dayLayout)] != 'T' && raw[len(dayLayout)] != ' ' {
		return "", false
	}
	return prefix, true
}
