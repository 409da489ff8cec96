package timeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/facelink/internal/models"
)

type memStore struct {
	events []*models.TimelineEvent
	err    error
}

func (s *memStore) CreateEvent(_ context.Context, ev *models.TimelineEvent) error {
	if s.err != nil {
		return s.err
	}
	ev.ID = uuid.New()
	s.events = append(s.events, ev)
	return nil
}

type memPublisher struct {
	published []*models.TimelineEvent
	err       error
}

func (p *memPublisher) PublishTimelineEvent(_ context.Context, ev *models.TimelineEvent) error {
	p.published = append(p.published, ev)
	return p.err
}

func TestRecorder_StoresAndPublishes(t *testing.T) {
	store := &memStore{}
	pub := &memPublisher{}
	r := NewRecorder(store, pub)
	now := time.Date(2025, 11, 26, 9, 30, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	userID, personID := uuid.New(), uuid.New()
	conf := float32(0.82)
	ev, err := r.Record(context.Background(), userID, models.EventRecognition, &personID, "hello", &conf)
	require.NoError(t, err)

	assert.Equal(t, now, ev.Timestamp)
	assert.Equal(t, userID, ev.UserID)
	assert.Equal(t, &personID, ev.PersonID)
	require.Len(t, store.events, 1)
	require.Len(t, pub.published, 1)
	assert.Equal(t, ev.ID, pub.published[0].ID)
}

func TestRecorder_PublishFailureIsNotFatal(t *testing.T) {
	r := NewRecorder(&memStore{}, &memPublisher{err: errors.New("nats down")})
	ev, err := r.Record(context.Background(), uuid.New(), models.EventConfused, nil, "User pressed help button", nil)
	require.NoError(t, err)
	assert.Equal(t, models.EventConfused, ev.Type)
}

func TestRecorder_StoreFailure(t *testing.T) {
	pub := &memPublisher{}
	r := NewRecorder(&memStore{err: errors.New("insert failed")}, pub)
	_, err := r.Record(context.Background(), uuid.New(), models.EventUnknownFace, nil, "", nil)
	require.Error(t, err)
	assert.Empty(t, pub.published)
}

func TestRecorder_NilPublisher(t *testing.T) {
	r := NewRecorder(&memStore{}, nil)
	_, err := r.Record(context.Background(), uuid.New(), models.EventUnknownFace, nil, "", nil)
	require.NoError(t, err)
}

func TestWeekRange_StartsMonday(t *testing.T) {
	// 2025-11-26 is a Wednesday.
	start, end := WeekRange(time.Date(2025, 11, 26, 15, 0, 0, 0, time.UTC), time.UTC)
	assert.Equal(t, time.Date(2025, 11, 24, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), end)

	// Sunday belongs to the week that started the previous Monday.
	start, _ = WeekRange(time.Date(2025, 11, 30, 23, 0, 0, 0, time.UTC), time.UTC)
	assert.Equal(t, time.Date(2025, 11, 24, 0, 0, 0, 0, time.UTC), start)
}

func TestDayRange(t *testing.T) {
	loc := time.FixedZone("PST", -8*3600)
	start, end := DayRange(time.Date(2025, 11, 27, 5, 0, 0, 0, time.UTC), loc)
	assert.Equal(t, time.Date(2025, 11, 26, 0, 0, 0, 0, loc), start)
	assert.Equal(t, 24*time.Hour, end.Sub(start))
}
