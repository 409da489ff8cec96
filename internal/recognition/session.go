package recognition

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// ErrAttemptInFlight is returned when a session is already evaluating a frame.
var ErrAttemptInFlight = errors.New("recognition attempt already in flight")

// FrameBuffer holds the most recent frame uploaded by a device.
type FrameBuffer struct {
	mu   sync.Mutex
	data []byte
	at   time.Time
}

func (b *FrameBuffer) Put(frame []byte, at time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = frame
	b.at = at
}

// Take returns and clears the buffered frame if it is no older than maxAge.
// A stale frame is cleared and nil is returned.
func (b *FrameBuffer) Take(now time.Time, maxAge time.Duration) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, at := b.data, b.at
	b.data = nil
	b.at = time.Time{}
	if data == nil || now.Sub(at) > maxAge {
		return nil
	}
	return data
}

func (b *FrameBuffer) Has() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data != nil
}

// Session is the recognition state of one (user, device) pair: its gate,
// its buffered frame and its visitor mode poller. At most one attempt runs
// at a time.
type Session struct {
	UserID   uuid.UUID
	DeviceID string

	gate     *Gate
	frames   FrameBuffer
	inFlight atomic.Bool

	mu            sync.Mutex
	poller        *Poller
	startedAt     time.Time
	lastAttemptAt time.Time

	lastUsed time.Time // guarded by the registry mutex
}

func newSession(userID uuid.UUID, deviceID string, cooldown time.Duration) *Session {
	return &Session{UserID: userID, DeviceID: deviceID, gate: NewGate(cooldown)}
}

// TryAttempt runs one attempt unless another is already in flight.
func (s *Session) TryAttempt(ctx context.Context, svc *Service, frame []byte) (Outcome, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return Outcome{}, ErrAttemptInFlight
	}
	defer s.inFlight.Store(false)

	return s.attempt(ctx, svc, s.gate, frame), nil
}

// attempt runs one evaluation; the caller holds the in-flight flag.
func (s *Session) attempt(ctx context.Context, svc *Service, gate Evaluator, frame []byte) Outcome {
	out := svc.Attempt(ctx, gate, s.UserID, frame)
	s.mu.Lock()
	s.lastAttemptAt = out.At
	s.mu.Unlock()
	return out
}

func (s *Session) InFlight() bool { return s.inFlight.Load() }

// idle reports whether the session has no visitor poller and no attempt
// in flight.
func (s *Session) idle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.poller == nil && !s.inFlight.Load()
}

// Gate exposes the session gate for inspection.
func (s *Session) Gate() *Gate { return s.gate }

// VisitorStatus describes visitor mode for one device.
type VisitorStatus struct {
	Active        bool
	StartedAt     time.Time
	LastAttemptAt time.Time
	InFlight      bool
	FrameBuffered bool
}

func (s *Session) Status() VisitorStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return VisitorStatus{
		Active:        s.poller != nil,
		StartedAt:     s.startedAt,
		LastAttemptAt: s.lastAttemptAt,
		InFlight:      s.inFlight.Load(),
		FrameBuffered: s.frames.Has(),
	}
}
