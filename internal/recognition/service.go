package recognition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/facelink/internal/models"
	"github.com/your-org/facelink/internal/observability"
	"github.com/your-org/facelink/internal/vision"
)

// Recorder appends timeline events.
type Recorder interface {
	Record(ctx context.Context, userID uuid.UUID, kind models.EventType, personID *uuid.UUID, notes string, confidence *float32) (*models.TimelineEvent, error)
}

// Evaluator applies a match to announcement state. *Gate is the usual
// implementation.
type Evaluator interface {
	Evaluate(match MatchResult, now time.Time) Decision
}

// Outcome is the result of one recognition attempt. Event is nil when the
// timeline could not be written.
type Outcome struct {
	Decision Decision
	Event    *models.TimelineEvent
	At       time.Time
}

// Service runs recognition attempts: match under a timeout, gate, record.
type Service struct {
	matcher  Matcher
	recorder Recorder
	timeout  time.Duration
	now      func() time.Time
}

func NewService(matcher Matcher, recorder Recorder, timeout time.Duration) *Service {
	return &Service{matcher: matcher, recorder: recorder, timeout: timeout, now: time.Now}
}

type matchReply struct {
	result MatchResult
	err    error
}

// Attempt evaluates one frame against gate. Matcher failures and timeouts
// count as no match. Exactly one timeline event is recorded.
func (s *Service) Attempt(ctx context.Context, gate Evaluator, userID uuid.UUID, frame []byte) Outcome {
	result, err := s.match(ctx, userID, frame)
	notes, label := describe(result, err)
	if err != nil && !errors.Is(err, vision.ErrNoFace) {
		slog.Warn("face match failed, treating as no match", "user_id", userID, "error", err)
	}
	observability.RecognitionAttempts.WithLabelValues(label).Inc()

	now := s.now()
	decision := gate.Evaluate(result, now)
	if decision.ShouldAnnounce {
		observability.Announcements.Inc()
	}

	out := Outcome{Decision: decision, At: now}

	kind := models.EventUnknownFace
	var personID *uuid.UUID
	var confidence *float32
	if result.IsMatch() {
		kind = models.EventRecognition
		id := result.Person.ID
		personID = &id
		c := result.Confidence
		confidence = &c
	}

	ev, err := s.recorder.Record(ctx, userID, kind, personID, notes, confidence)
	if err != nil {
		slog.Error("record recognition event", "user_id", userID, "error", err)
	} else {
		out.Event = ev
	}
	return out
}

// match runs the matcher bounded by the service timeout. A matcher that
// ignores cancellation is abandoned; its late result is dropped.
func (s *Service) match(ctx context.Context, userID uuid.UUID, frame []byte) (MatchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	reply := make(chan matchReply, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				reply <- matchReply{err: fmt.Errorf("matcher panic: %v", r)}
			}
		}()
		res, err := s.matcher.Match(ctx, userID, frame)
		reply <- matchReply{result: res, err: err}
	}()

	select {
	case r := <-reply:
		if r.err != nil {
			return NoMatch(), r.err
		}
		return r.result, nil
	case <-ctx.Done():
		return NoMatch(), ctx.Err()
	}
}

func describe(result MatchResult, err error) (notes, label string) {
	switch {
	case err == nil && result.IsMatch():
		return fmt.Sprintf("Recognized with %d%% confidence", int(math.Round(float64(result.Confidence)*100))), "matched"
	case err == nil:
		return "Face detected but not recognized", "unmatched"
	case errors.Is(err, vision.ErrNoFace):
		return "No face detected", "no_face"
	case errors.Is(err, context.DeadlineExceeded):
		observability.MatcherFailures.WithLabelValues("timeout").Inc()
		return "Recognition timed out", "timeout"
	case errors.Is(err, ErrMatcherUnavailable):
		observability.MatcherFailures.WithLabelValues("unavailable").Inc()
		return "Recognition unavailable", "error"
	default:
		observability.MatcherFailures.WithLabelValues("error").Inc()
		return "Recognition failed", "error"
	}
}
