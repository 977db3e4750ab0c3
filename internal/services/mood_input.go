package services

import (
	"errors"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/terraincognita07/comoestou/internal/models"
)

const (
	// MaxMoodNotesLength counts runes. Longer notes are rejected, never cut.
	MaxMoodNotesLength = 2000
	MaxHeartRateDigits = 3
)

var (
	ErrInvalidMood      = errors.New("invalid mood")
	ErrInvalidHeartRate = errors.New("invalid heart rate")
	ErrInvalidMoodDate  = errors.New("invalid mood date")
	ErrInvalidNotes     = errors.New("invalid notes")
)

// MoodEntryInput is what a client submits for a create or an edit.
// HeartRate is the raw text of the field so "" can mean "not recorded".
type MoodEntryInput struct {
	Mood      int
	Notes     string
	HeartRate string
	Date      string
}

type NormalizedMoodInput struct {
	Mood      int
	Notes     *string
	HeartRate *int
}

func NormalizeMoodEntryInput(input MoodEntryInput) (NormalizedMoodInput, error) {
	if !IsValidMood(input.Mood) {
		return NormalizedMoodInput{}, ErrInvalidMood
	}
	notes := NormalizeMoodNotes(input.Notes)
	if notes != nil && utf8.RuneCountInString(*notes) > MaxMoodNotesLength {
		return NormalizedMoodInput{}, ErrInvalidNotes
	}
	heartRate, err := ParseHeartRate(input.HeartRate)
	if err != nil {
		return NormalizedMoodInput{}, err
	}
	return NormalizedMoodInput{
		Mood:      input.Mood,
		Notes:     notes,
		HeartRate: heartRate,
	}, nil
}

func IsValidMood(mood int) bool {
	return mood >= models.MoodAwful && mood <= models.MoodGreat
}

// NormalizeMoodNotes trims notes and maps blank text to nil.
func NormalizeMoodNotes(raw string) *string {
	notes := strings.TrimSpace(raw)
	if notes == "" {
		return nil
	}
	return &notes
}

// ParseHeartRate accepts up to three digits. Blank means not recorded.
func ParseHeartRate(raw string) (*int, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}
	if len(value) > MaxHeartRateDigits {
		return nil, ErrInvalidHeartRate
	}
	for _, char := range value {
		if char < '0' || char > '9' {
			return nil, ErrInvalidHeartRate
		}
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return nil, ErrInvalidHeartRate
	}
	return &parsed, nil
}
