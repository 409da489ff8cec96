package timeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/facelink/internal/models"
	"github.com/your-org/facelink/internal/observability"
)

// EventStore persists timeline events.
type EventStore interface {
	CreateEvent(ctx context.Context, ev *models.TimelineEvent) error
}

// Publisher fans stored events out to live subscribers.
type Publisher interface {
	PublishTimelineEvent(ctx context.Context, ev *models.TimelineEvent) error
}

// Recorder appends events to the timeline and publishes them. Publishing is
// best effort: the stored event is returned even if it could not be sent.
type Recorder struct {
	store     EventStore
	publisher Publisher
	now       func() time.Time
}

// NewRecorder returns a recorder; publisher may be nil.
func NewRecorder(store EventStore, publisher Publisher) *Recorder {
	return &Recorder{store: store, publisher: publisher, now: time.Now}
}

func (r *Recorder) Record(ctx context.Context, userID uuid.UUID, kind models.EventType, personID *uuid.UUID, notes string, confidence *float32) (*models.TimelineEvent, error) {
	ev := &models.TimelineEvent{
		UserID:     userID,
		Type:       kind,
		Timestamp:  r.now(),
		PersonID:   personID,
		Notes:      notes,
		Confidence: confidence,
	}
	if err := r.store.CreateEvent(ctx, ev); err != nil {
		return nil, fmt.Errorf("record %s event: %w", kind, err)
	}

	if r.publisher != nil {
		if err := r.publisher.PublishTimelineEvent(ctx, ev); err != nil {
			observability.TimelinePublishFailures.Inc()
			slog.Warn("publish timeline event", "event_id", ev.ID, "error", err)
		}
	}
	return ev, nil
}

// DayRange returns [start, end) of the calendar day containing t in loc.
func DayRange(t time.Time, loc *time.Location) (time.Time, time.Time) {
	t = t.In(loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// WeekRange returns [Monday, next Monday) of the week containing t in loc.
func WeekRange(t time.Time, loc *time.Location) (time.Time, time.Time) {
	day, _ := DayRange(t, loc)
	offset := (int(day.Weekday()) + 6) % 7
	start := day.AddDate(0, 0, -offset)
	return start, start.AddDate(0, 0, 7)
}
