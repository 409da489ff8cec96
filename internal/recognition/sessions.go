package recognition

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/facelink/internal/config"
	"github.com/your-org/facelink/internal/observability"
)

// sessionIdleTTL is the minimum idle time before an unused session is
// evicted. Eviction also waits for the cooldown, after which the gate would
// announce anyway, so evicting never changes a decision.
const sessionIdleTTL = 10 * time.Minute

type sessionKey struct {
	userID   uuid.UUID
	deviceID string
}

// Sessions is the process-local registry of recognition sessions. Gate state
// is never shared between devices and is lost on restart.
type Sessions struct {
	svc       *Service
	cooldown  time.Duration
	interval  time.Duration
	maxAge    time.Duration
	onOutcome OutcomeFunc
	now       func() time.Time

	mu        sync.Mutex
	items     map[sessionKey]*Session
	lastSweep time.Time
}

func NewSessions(svc *Service, cfg config.RecognitionConfig, onOutcome OutcomeFunc) *Sessions {
	return &Sessions{
		svc:       svc,
		cooldown:  cfg.Cooldown,
		interval:  cfg.PollInterval,
		maxAge:    cfg.FrameMaxAge,
		onOutcome: onOutcome,
		now:       time.Now,
		items:     make(map[sessionKey]*Session),
	}
}

// Get returns the session for the pair, creating it on first use.
func (r *Sessions) Get(userID uuid.UUID, deviceID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweep(now)

	k := sessionKey{userID, deviceID}
	s, ok := r.items[k]
	if !ok {
		s = newSession(userID, deviceID, r.cooldown)
		r.items[k] = s
	}
	s.lastUsed = now
	return s
}

// lookup returns the existing session for the pair or nil.
func (r *Sessions) lookup(userID uuid.UUID, deviceID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[sessionKey{userID, deviceID}]
}

// sweep evicts sessions idle for longer than the TTL that have no visitor
// poller and no attempt in flight. The caller holds r.mu.
func (r *Sessions) sweep(now time.Time) {
	ttl := max(sessionIdleTTL, r.cooldown)
	if now.Sub(r.lastSweep) <= ttl {
		return
	}
	for k, s := range r.items {
		if now.Sub(s.lastUsed) > ttl && s.idle() {
			delete(r.items, k)
		}
	}
	r.lastSweep = now
}

// Recognize runs a single attempt on the device's session.
func (r *Sessions) Recognize(ctx context.Context, userID uuid.UUID, deviceID string, frame []byte) (Outcome, error) {
	return r.Get(userID, deviceID).TryAttempt(ctx, r.svc, frame)
}

// PutFrame buffers the latest frame for visitor mode.
func (r *Sessions) PutFrame(userID uuid.UUID, deviceID string, frame []byte) {
	r.Get(userID, deviceID).frames.Put(frame, r.now())
}

// StartVisitor enables visitor mode and resets the gate. Starting an active
// session is a no-op.
func (r *Sessions) StartVisitor(ctx context.Context, userID uuid.UUID, deviceID string) VisitorStatus {
	s := r.Get(userID, deviceID)

	s.mu.Lock()
	if s.poller == nil {
		s.gate.Reset()
		pctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		p := &Poller{
			session:   s,
			svc:       r.svc,
			interval:  r.interval,
			maxAge:    r.maxAge,
			onOutcome: r.onOutcome,
			now:       r.now,
			cancel:    cancel,
			done:      make(chan struct{}),
		}
		s.poller = p
		s.startedAt = r.now()
		go p.run(pctx)
		observability.VisitorSessions.Inc()
	}
	s.mu.Unlock()

	return s.Status()
}

// StopVisitor disables visitor mode for the device. It returns once an
// attempt started by visitor mode has finished.
func (r *Sessions) StopVisitor(userID uuid.UUID, deviceID string) VisitorStatus {
	s := r.lookup(userID, deviceID)
	if s == nil {
		return VisitorStatus{}
	}

	s.mu.Lock()
	p := s.poller
	s.poller = nil
	s.startedAt = time.Time{}
	if p != nil {
		// Marked under s.mu so a concurrent restart resets the gate only
		// after this poller can no longer commit to it.
		p.markStopped()
	}
	s.mu.Unlock()

	if p != nil {
		p.Stop()
		observability.VisitorSessions.Dec()
	}
	return s.Status()
}

// Status reports visitor mode for the device without creating a session.
func (r *Sessions) Status(userID uuid.UUID, deviceID string) VisitorStatus {
	s := r.lookup(userID, deviceID)
	if s == nil {
		return VisitorStatus{}
	}
	return s.Status()
}

// Close stops every running poller.
func (r *Sessions) Close() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.items))
	for _, s := range r.items {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	for _, s := range sessions {
		r.StopVisitor(s.UserID, s.DeviceID)
	}
}
