package recognition

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/facelink/internal/models"
	"github.com/your-org/facelink/internal/vision"
)

type matcherFunc func(ctx context.Context, userID uuid.UUID, frame []byte) (MatchResult, error)

func (f matcherFunc) Match(ctx context.Context, userID uuid.UUID, frame []byte) (MatchResult, error) {
	return f(ctx, userID, frame)
}

type memRecorder struct {
	mu     sync.Mutex
	events []models.TimelineEvent
	err    error
}

func (r *memRecorder) Record(_ context.Context, userID uuid.UUID, kind models.EventType, personID *uuid.UUID, notes string, confidence *float32) (*models.TimelineEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	ev := models.TimelineEvent{
		ID: uuid.New(), UserID: userID, Type: kind, PersonID: personID,
		Notes: notes, Confidence: confidence, Timestamp: time.Now(),
	}
	r.events = append(r.events, ev)
	return &ev, nil
}

func (r *memRecorder) recorded() []models.TimelineEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.TimelineEvent(nil), r.events...)
}

func fixedMatch(res MatchResult, err error) Matcher {
	return matcherFunc(func(context.Context, uuid.UUID, []byte) (MatchResult, error) {
		return res, err
	})
}

func TestService_MatchedRecordsEveryAttempt(t *testing.T) {
	a := person("Sarah")
	rec := &memRecorder{}
	svc := NewService(fixedMatch(Matched(a, 0.874), nil), rec, time.Second)
	gate := NewGate(5 * time.Minute)
	userID := uuid.New()

	first := svc.Attempt(context.Background(), gate, userID, []byte("frame"))
	second := svc.Attempt(context.Background(), gate, userID, []byte("frame"))

	assert.True(t, first.Decision.ShouldAnnounce)
	assert.False(t, second.Decision.ShouldAnnounce)
	assert.Equal(t, a, second.Decision.Person)

	events := rec.recorded()
	require.Len(t, events, 2)
	for _, ev := range events {
		assert.Equal(t, models.EventRecognition, ev.Type)
		require.NotNil(t, ev.PersonID)
		assert.Equal(t, a.ID, *ev.PersonID)
		require.NotNil(t, ev.Confidence)
		assert.InDelta(t, 0.874, *ev.Confidence, 1e-6)
		assert.Equal(t, "Recognized with 87% confidence", ev.Notes)
	}
	require.NotNil(t, first.Event)
	assert.Equal(t, events[0].ID, first.Event.ID)
}

func TestService_FailuresAreNoMatch(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		notes string
	}{
		{"unrecognised", nil, "Face detected but not recognized"},
		{"no face", vision.ErrNoFace, "No face detected"},
		{"unavailable", ErrMatcherUnavailable, "Recognition unavailable"},
		{"error", errors.New("db down"), "Recognition failed"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := &memRecorder{}
			svc := NewService(fixedMatch(NoMatch(), tc.err), rec, time.Second)
			gate := NewGate(time.Minute)

			out := svc.Attempt(context.Background(), gate, uuid.New(), nil)
			assert.False(t, out.Decision.ShouldAnnounce)
			assert.Nil(t, out.Decision.Person)
			assert.Equal(t, GateState{}, gate.State())

			events := rec.recorded()
			require.Len(t, events, 1)
			assert.Equal(t, models.EventUnknownFace, events[0].Type)
			assert.Nil(t, events[0].PersonID)
			assert.Nil(t, events[0].Confidence)
			assert.Equal(t, tc.notes, events[0].Notes)
		})
	}
}

func TestService_TimeoutIsNoMatch(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	slow := matcherFunc(func(context.Context, uuid.UUID, []byte) (MatchResult, error) {
		<-release
		return Matched(person("late"), 0.99), nil
	})
	rec := &memRecorder{}
	svc := NewService(slow, rec, 20*time.Millisecond)

	start := time.Now()
	out := svc.Attempt(context.Background(), NewGate(time.Minute), uuid.New(), nil)
	assert.Less(t, time.Since(start), time.Second)
	assert.False(t, out.Decision.ShouldAnnounce)

	events := rec.recorded()
	require.Len(t, events, 1)
	assert.Equal(t, "Recognition timed out", events[0].Notes)
}

func TestService_RecorderFailureKeepsDecision(t *testing.T) {
	rec := &memRecorder{err: errors.New("insert failed")}
	svc := NewService(fixedMatch(Matched(person("A"), 0.9), nil), rec, time.Second)

	out := svc.Attempt(context.Background(), NewGate(time.Minute), uuid.New(), nil)
	assert.True(t, out.Decision.ShouldAnnounce)
	assert.Nil(t, out.Event)
}

type indexFunc func(ctx context.Context, userID uuid.UUID, emb []float32) (*models.Person, float32, error)

func (f indexFunc) NearestPerson(ctx context.Context, userID uuid.UUID, emb []float32) (*models.Person, float32, error) {
	return f(ctx, userID, emb)
}

func TestEmbeddingMatcher(t *testing.T) {
	a := person("A")
	embed := func([]byte) ([]float32, error) { return []float32{1, 0}, nil }
	nearest := func(score float32) PersonIndex {
		return indexFunc(func(context.Context, uuid.UUID, []float32) (*models.Person, float32, error) {
			return a, score, nil
		})
	}

	_, err := NewEmbeddingMatcher(nil, nearest(1), 0.6).Match(context.Background(), uuid.New(), nil)
	assert.ErrorIs(t, err, ErrMatcherUnavailable)

	res, err := NewEmbeddingMatcher(embed, nearest(0.59), 0.6).Match(context.Background(), uuid.New(), nil)
	require.NoError(t, err)
	assert.False(t, res.IsMatch())

	res, err = NewEmbeddingMatcher(embed, nearest(0.6), 0.6).Match(context.Background(), uuid.New(), nil)
	require.NoError(t, err)
	require.True(t, res.IsMatch())
	assert.Equal(t, a.ID, res.Person.ID)

	empty := indexFunc(func(context.Context, uuid.UUID, []float32) (*models.Person, float32, error) {
		return nil, 0, nil
	})
	res, err = NewEmbeddingMatcher(embed, empty, 0.6).Match(context.Background(), uuid.New(), nil)
	require.NoError(t, err)
	assert.False(t, res.IsMatch())

	noFace := func([]byte) ([]float32, error) { return nil, vision.ErrNoFace }
	_, err = NewEmbeddingMatcher(noFace, nearest(1), 0.6).Match(context.Background(), uuid.New(), nil)
	assert.ErrorIs(t, err, vision.ErrNoFace)
}
