package api

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/comoestou/internal/docstore"
	"github.com/terraincognita07/comoestou/internal/identity"
	"github.com/terraincognita07/comoestou/internal/logger"
	"github.com/terraincognita07/comoestou/internal/services"
	"github.com/valyala/fasthttp"
)

const (
	eventSnapshot  = "snapshot"
	eventError     = "error"
	eventSignedOut = "signed_out"
)

type moodSnapshotEvent struct {
	Entries        []moodEntryResponse    `json:"entries"`
	MoodChart      []services.SeriesPoint `json:"mood_chart"`
	HeartRateChart []services.SeriesPoint `json:"heart_rate_chart"`
	HasHeartRate   bool                   `json:"has_heart_rate"`
}

type moodStream struct {
	handler   *Handler
	token     string
	limit     int
	messages  map[string]string
	labeler   services.DayLabeler
	heartbeat time.Duration
}

// StreamMoods sends the caller's timeline as server-sent events: one
// snapshot now and one after every change. The session is re-checked on
// each heartbeat and the stream ends once it is signed out.
func (handler *Handler) StreamMoods(c *fiber.Ctx) error {
	stream := moodStream{
		handler:   handler,
		token:     currentToken(c),
		limit:     services.ClampTimelineLimit(c.QueryInt("limit", services.DefaultTimelineLimit)),
		messages:  currentMessages(c),
		labeler:   handler.dayLabeler(c),
		heartbeat: handler.streamHeartbeat,
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	// The writer runs after this handler returns, so it cannot use the
	// request context.
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		stream.run(handler.streams, w)
	}))
	return nil
}

func (stream moodStream) run(ctx context.Context, w *bufio.Writer) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	moods := stream.handler.moods
	session := identity.NewSession(stream.handler.provider, stream.token)
	states := session.Watch(ctx)
	live := moods.NewLiveTimeline(ctx)
	defer live.Close()

	if _, err := session.Refresh(ctx); err != nil {
		logger.Warn("stream session refresh failed", "error", err)
	}

	ticker := time.NewTicker(stream.heartbeat)
	defer ticker.Stop()

	watchedUID := ""
	for {
		select {
		case <-ctx.Done():
			return
		case state, ok := <-states:
			if !ok {
				return
			}
			if state.Loading {
				continue
			}
			if state.User == nil {
				_ = moods.WatchTimeline(live, "", stream.limit)
				_ = writeEvent(w, eventSignedOut, fiber.Map{"error": codeUnauthorized})
				return
			}
			if state.User.UID == watchedUID {
				continue
			}
			watchedUID = state.User.UID
			if err := moods.WatchTimeline(live, watchedUID, stream.limit); err != nil {
				logger.Error("stream subscribe failed", "uid", watchedUID, "error", err)
				_ = writeEvent(w, eventError, fiber.Map{"error": codeLoadFailed})
				return
			}
		case state, ok := <-live.Updates():
			if !ok {
				return
			}
			if err := stream.writeLiveState(w, state); err != nil {
				return
			}
		case <-ticker.C:
			if _, err := session.Refresh(ctx); err != nil {
				logger.Warn("stream session refresh failed", "error", err)
			}
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	}
}

func (stream moodStream) writeLiveState(w *bufio.Writer, state docstore.LiveState) error {
	if state.Loading {
		return nil
	}
	if state.Err != nil {
		logger.Warn("stream snapshot failed", "error", state.Err)
		return writeEvent(w, eventError, fiber.Map{"error": codeLoadFailed})
	}

	entries := services.DecodeMoodEntries(state.Docs)
	services.OrderSameDayByInstant(entries)
	today := stream.handler.moods.Today()
	heartRate := services.HeartRateSeries(entries, today, stream.labeler)
	return writeEvent(w, eventSnapshot, moodSnapshotEvent{
		Entries:        newMoodEntryResponses(entries, stream.messages),
		MoodChart:      services.MoodSeries(entries, today, stream.labeler),
		HeartRateChart: heartRate,
		HasHeartRate:   services.HasAnyRecorded(heartRate),
	})
}

func writeEvent(w *bufio.Writer, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	return w.Flush()
}
