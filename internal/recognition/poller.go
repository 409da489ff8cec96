package recognition

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/your-org/facelink/internal/observability"
)

// OutcomeFunc receives the results of visitor mode attempts.
type OutcomeFunc func(s *Session, out Outcome)

// Poller drives visitor mode for one session: on every tick it takes the
// buffered frame and runs an attempt, skipping the tick while a previous
// attempt is still in flight.
type Poller struct {
	session   *Session
	svc       *Service
	interval  time.Duration
	maxAge    time.Duration
	onOutcome OutcomeFunc
	now       func() time.Time

	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	stopped bool
	pending sync.WaitGroup
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	s := p.session
	if s.InFlight() {
		observability.PollTicksSkipped.Inc()
		return
	}

	frame := s.frames.Take(p.now(), p.maxAge)
	if frame == nil {
		return
	}

	if !s.inFlight.CompareAndSwap(false, true) {
		observability.PollTicksSkipped.Inc()
		return
	}

	p.pending.Add(1)
	go func() {
		defer p.pending.Done()
		defer s.inFlight.Store(false)

		// Stopping visitor mode must not cut an attempt short.
		out := s.attempt(context.WithoutCancel(ctx), p.svc, p, frame)

		p.mu.Lock()
		defer p.mu.Unlock()
		if p.stopped {
			slog.Debug("discarding visitor result after stop", "user_id", s.UserID, "device_id", s.DeviceID)
			return
		}
		if p.onOutcome != nil {
			p.onOutcome(s, out)
		}
	}()
}

// Evaluate commits match to the session gate while the poller is running.
// Once stopped the gate is left untouched and nothing is announced, so a
// late result cannot silence a person after visitor mode restarts.
func (p *Poller) Evaluate(match MatchResult, now time.Time) Decision {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return Decision{Person: match.Person, Confidence: match.Confidence}
	}
	return p.session.gate.Evaluate(match, now)
}

// markStopped makes later results of this poller inert. It is idempotent.
func (p *Poller) markStopped() {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
}

// Stop ends the tick loop and waits for a running attempt to finish. That
// attempt is still recorded but neither gated nor delivered.
func (p *Poller) Stop() {
	p.markStopped()
	p.cancel()
	<-p.done
	p.pending.Wait()
}
