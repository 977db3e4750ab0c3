package models

import "time"

const (
	MoodAwful = 1
	MoodBad   = 2
	MoodOkay  = 3
	MoodGood  = 4
	MoodGreat = 5
)

const (
	FieldUserID    = "userId"
	FieldDate      = "date"
	FieldMood      = "mood"
	FieldNotes     = "notes"
	FieldHeartRate = "heartRate"
	FieldCreatedAt = "createdAt"
)

// MoodEntry is the typed view of a document under users/{uid}/moods.
// Date is kept as the stored ISO 8601 string so day bucketing can match
// on its calendar prefix without a timezone round trip.
type MoodEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Date      string    `json:"date"`
	Mood      int       `json:"mood"`
	Notes     *string   `json:"notes"`
	HeartRate *int      `json:"heartRate"`
	CreatedAt time.Time `json:"createdAt"`
}

type MoodOption struct {
	Level int
	Emoji string
	Key   string
}

func DefaultMoodOptions() []MoodOption {
	return []MoodOption{
		{Level: MoodAwful, Emoji: "😞", Key: "mood.awful"},
		{Level: MoodBad, Emoji: "😟", Key: "mood.bad"},
		{Level: MoodOkay, Emoji: "😐", Key: "mood.okay"},
		{Level: MoodGood, Emoji: "🙂", Key: "mood.good"},
		{Level: MoodGreat, Emoji: "😄", Key: "mood.great"},
	}
}

func MoodEmoji(level int) string {
	for _, option := range DefaultMoodOptions() {
		if option.Level == level {
			return option.Emoji
		}
	}
	return "😐"
}
