package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/terraincognita07/comoestou/internal/docstore"
	"github.com/terraincognita07/comoestou/internal/models"
)

const (
	DefaultTimelineLimit = 30
	MaxTimelineLimit     = 90
	// Enough rows to cover a chart window even when some days hold
	// several entries.
	chartQueryLimit = 60
)

var (
	ErrMoodEntryNotFound     = errors.New("mood entry not found")
	ErrMoodEntryLoadFailed   = errors.New("load mood entries failed")
	ErrMoodEntryCreateFailed = errors.New("create mood entry failed")
	ErrMoodEntryUpdateFailed = errors.New("update mood entry failed")
	ErrMoodEntryDeleteFailed = errors.New("delete mood entry failed")
	ErrMoodUserRequired      = errors.New("mood user required")
)

type MoodService struct {
	store    docstore.Store
	location *time.Location
	now      func() time.Time
}

func NewMoodService(store docstore.Store, location *time.Location) *MoodService {
	if location == nil {
		location = time.UTC
	}
	return &MoodService{
		store:    store,
		location: location,
		now:      time.Now,
	}
}

// MoodCollectionPath is the per-user collection holding mood entries. An
// empty uid yields an empty path, which readers treat as "no data".
func MoodCollectionPath(uid string) string {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return ""
	}
	return "users/" + uid + "/moods"
}

func MoodEntryPath(uid string, id string) string {
	collection := MoodCollectionPath(uid)
	if collection == "" || strings.TrimSpace(id) == "" {
		return ""
	}
	return collection + "/" + id
}

func TimelineQuery(limit int) docstore.Query {
	return docstore.Query{
		OrderBy:   models.FieldDate,
		Direction: docstore.Desc,
		Limit:     ClampTimelineLimit(limit),
	}
}

func ClampTimelineLimit(limit int) int {
	if limit <= 0 {
		return DefaultTimelineLimit
	}
	if limit > MaxTimelineLimit {
		return MaxTimelineLimit
	}
	return limit
}

func (service *MoodService) Location() *time.Location {
	return service.location
}

func (service *MoodService) Today() time.Time {
	return DateAtLocation(service.now(), service.location)
}

func (service *MoodService) Create(ctx context.Context, uid string, input MoodEntryInput) (models.MoodEntry, error) {
	collection := MoodCollectionPath(uid)
	if collection == "" {
		return models.MoodEntry{}, ErrMoodUserRequired
	}
	normalized, err := NormalizeMoodEntryInput(input)
	if err != nil {
		return models.MoodEntry{}, err
	}
	date, err := service.resolveEntryDate(input.Date)
	if err != nil {
		return models.MoodEntry{}, err
	}

	doc, err := service.store.Create(ctx, collection, map[string]any{
		models.FieldUserID:    strings.TrimSpace(uid),
		models.FieldDate:      date,
		models.FieldMood:      normalized.Mood,
		models.FieldNotes:     optionalValue(normalized.Notes),
		models.FieldHeartRate: optionalValue(normalized.HeartRate),
		models.FieldCreatedAt: docstore.ServerTimestamp,
	})
	if err != nil {
		return models.MoodEntry{}, fmt.Errorf("%w: %w", ErrMoodEntryCreateFailed, err)
	}
	return DecodeMoodEntry(doc)
}

// Update changes mood, notes and heart rate. The entry date never moves.
func (service *MoodService) Update(ctx context.Context, uid string, id string, input MoodEntryInput) (models.MoodEntry, error) {
	path := MoodEntryPath(uid, id)
	if path == "" {
		return models.MoodEntry{}, ErrMoodEntryNotFound
	}
	normalized, err := NormalizeMoodEntryInput(input)
	if err != nil {
		return models.MoodEntry{}, err
	}

	doc, err := service.store.Update(ctx, path, map[string]any{
		models.FieldMood:      normalized.Mood,
		models.FieldNotes:     optionalValue(normalized.Notes),
		models.FieldHeartRate: optionalValue(normalized.HeartRate),
	})
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) || errors.Is(err, docstore.ErrInvalidPath) {
			return models.MoodEntry{}, ErrMoodEntryNotFound
		}
		return models.MoodEntry{}, fmt.Errorf("%w: %w", ErrMoodEntryUpdateFailed, err)
	}
	return DecodeMoodEntry(doc)
}

func (service *MoodService) Delete(ctx context.Context, uid string, id string) error {
	path := MoodEntryPath(uid, id)
	if path == "" {
		return ErrMoodEntryNotFound
	}
	if err := service.store.Delete(ctx, path); err != nil {
		if errors.Is(err, docstore.ErrNotFound) || errors.Is(err, docstore.ErrInvalidPath) {
			return ErrMoodEntryNotFound
		}
		return fmt.Errorf("%w: %w", ErrMoodEntryDeleteFailed, err)
	}
	return nil
}

func (service *MoodService) Get(ctx context.Context, uid string, id string) (models.MoodEntry, error) {
	path := MoodEntryPath(uid, id)
	if path == "" {
		return models.MoodEntry{}, ErrMoodEntryNotFound
	}
	doc, err := service.store.Get(ctx, path)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) || errors.Is(err, docstore.ErrInvalidPath) {
			return models.MoodEntry{}, ErrMoodEntryNotFound
		}
		return models.MoodEntry{}, fmt.Errorf("%w: %w", ErrMoodEntryLoadFailed, err)
	}
	return DecodeMoodEntry(doc)
}

// Timeline returns the newest entries first. Without a user it is empty.
func (service *MoodService) Timeline(ctx context.Context, uid string, limit int) ([]models.MoodEntry, error) {
	return service.list(ctx, uid, TimelineQuery(limit))
}

func (service *MoodService) MoodChart(ctx context.Context, uid string, labeler DayLabeler) ([]SeriesPoint, error) {
	entries, err := service.list(ctx, uid, service.chartQuery())
	if err != nil {
		return nil, err
	}
	return MoodSeries(entries, service.Today(), labeler), nil
}

func (service *MoodService) HeartRateChart(ctx context.Context, uid string, labeler DayLabeler) ([]SeriesPoint, error) {
	entries, err := service.list(ctx, uid, service.chartQuery())
	if err != nil {
		return nil, err
	}
	return HeartRateSeries(entries, service.Today(), labeler), nil
}

func (service *MoodService) Availability(ctx context.Context, uid string, selected string, labeler DayLabeler) ([]SelectableDay, error) {
	entries, err := service.list(ctx, uid, docstore.Query{
		OrderBy:   models.FieldDate,
		Direction: docstore.Desc,
		Limit:     CalendarLookbackDays * 3,
	})
	if err != nil {
		return nil, err
	}
	return SelectableDays(ComputeFilledDays(entries), service.Today(), CalendarLookbackDays, selected, labeler), nil
}

// Subscribe streams timeline snapshots for uid.
func (service *MoodService) Subscribe(ctx context.Context, uid string, limit int) (*docstore.Subscription, error) {
	collection := MoodCollectionPath(uid)
	if collection == "" {
		return nil, ErrMoodUserRequired
	}
	return service.store.Subscribe(ctx, collection, TimelineQuery(limit))
}

// NewLiveTimeline returns a live query over this service's store. Point it
// at a user with WatchTimeline.
func (service *MoodService) NewLiveTimeline(ctx context.Context) *docstore.LiveQuery {
	return docstore.NewLiveQuery(ctx, service.store)
}

// WatchTimeline moves live to the timeline of uid, dropping whatever it
// watched before. An empty uid leaves it empty.
func (service *MoodService) WatchTimeline(live *docstore.LiveQuery, uid string, limit int) error {
	return live.Resubscribe(MoodCollectionPath(uid), TimelineQuery(limit))
}

func (service *MoodService) list(ctx context.Context, uid string, query docstore.Query) ([]models.MoodEntry, error) {
	collection := MoodCollectionPath(uid)
	if collection == "" {
		return []models.MoodEntry{}, nil
	}
	docs, err := service.store.List(ctx, collection, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMoodEntryLoadFailed, err)
	}
	entries := DecodeMoodEntries(docs)
	if query.OrderBy == models.FieldDate && query.Direction == docstore.Desc {
		OrderSameDayByInstant(entries)
	}
	return entries, nil
}

func (service *MoodService) chartQuery() docstore.Query {
	return docstore.Query{
		OrderBy:   models.FieldDate,
		Direction: docstore.Desc,
		Limit:     chartQueryLimit,
	}
}

// resolveEntryDate stores dates as RFC 3339 in the service location so the
// calendar prefix is the local day. A bare YYYY-MM-DD gets the current
// clock time. Future days are rejected.
func (service *MoodService) resolveEntryDate(raw string) (string, error) {
	now := service.now().In(service.location)
	value := strings.TrimSpace(raw)
	if value == "" {
		return now.Format(time.RFC3339), nil
	}

	var resolved time.Time
	if day, err := time.ParseInLocation(dayLayout, value, service.location); err == nil {
		resolved = time.Date(day.Year(), day.Month(), day.Day(), now.Hour(), now.Minute(), now.Second(), 0, service.location)
	} else if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		resolved = parsed.In(service.location)
	} else {
		return "", ErrInvalidMoodDate
	}

	if _, tomorrow := DayRange(now, service.location); !resolved.Before(tomorrow) {
		return "", ErrInvalidMoodDate
	}
	return resolved.Format(time.RFC3339), nil
}

func optionalValue[T any](value *T) any {
	if value == nil {
		return nil
	}
	return *value
}
