package recognition

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/facelink/internal/config"
)

func TestFrameBuffer_Take(t *testing.T) {
	var b FrameBuffer
	assert.Nil(t, b.Take(t0, time.Second))

	b.Put([]byte("f1"), t0)
	assert.True(t, b.Has())
	assert.Equal(t, []byte("f1"), b.Take(t0.Add(500*time.Millisecond), time.Second))
	assert.Nil(t, b.Take(t0.Add(500*time.Millisecond), time.Second), "take clears the buffer")

	b.Put([]byte("old"), t0)
	assert.Nil(t, b.Take(t0.Add(2*time.Second), time.Second))
	assert.False(t, b.Has(), "stale frames are dropped")
}

// blockingMatcher signals each call on started and waits for release.
type blockingMatcher struct {
	started chan struct{}
	release chan struct{}
	calls   atomic.Int32
	result  MatchResult
}

func newBlockingMatcher(res MatchResult) *blockingMatcher {
	return &blockingMatcher{started: make(chan struct{}, 8), release: make(chan struct{}), result: res}
}

func (m *blockingMatcher) Match(context.Context, uuid.UUID, []byte) (MatchResult, error) {
	m.calls.Add(1)
	m.started <- struct{}{}
	<-m.release
	return m.result, nil
}

func TestSession_RejectsConcurrentAttempt(t *testing.T) {
	m := newBlockingMatcher(Matched(person("A"), 0.9))
	svc := NewService(m, &memRecorder{}, time.Second)
	sessions := NewSessions(svc, config.RecognitionConfig{Cooldown: time.Minute, PollInterval: time.Hour, FrameMaxAge: time.Minute}, nil)
	userID := uuid.New()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		out, err := sessions.Recognize(context.Background(), userID, "kitchen", []byte("f"))
		assert.NoError(t, err)
		assert.True(t, out.Decision.ShouldAnnounce)
	}()
	<-m.started

	_, err := sessions.Recognize(context.Background(), userID, "kitchen", []byte("f"))
	assert.ErrorIs(t, err, ErrAttemptInFlight)

	// Other devices have their own session.
	other := sessions.Get(userID, "hallway")
	assert.False(t, other.InFlight())

	close(m.release)
	wg.Wait()
	assert.Equal(t, int32(1), m.calls.Load())
}

func newTestPoller(s *Session, svc *Service, onOutcome OutcomeFunc, now func() time.Time) (*Poller, context.Context) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Poller{
		session:   s,
		svc:       svc,
		interval:  time.Hour,
		maxAge:    10 * time.Second,
		onOutcome: onOutcome,
		now:       now,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	go p.run(ctx)
	return p, ctx
}

// waitPending blocks until attempts started by p have finished.
func waitPending(p *Poller) {
	p.pending.Wait()
}

func TestPoller_SkipsTickWhileInFlight(t *testing.T) {
	rec := &memRecorder{}
	svc := NewService(fixedMatch(NoMatch(), nil), rec, time.Second)
	s := newSession(uuid.New(), "default", time.Minute)
	p, ctx := newTestPoller(s, svc, nil, func() time.Time { return t0 })
	defer p.Stop()

	s.frames.Put([]byte("f"), t0)
	s.inFlight.Store(true)
	p.tick(ctx)
	waitPending(p)

	assert.Empty(t, rec.recorded())
	assert.True(t, s.frames.Has(), "skipped tick leaves the frame buffered")

	s.inFlight.Store(false)
	p.tick(ctx)
	waitPending(p)
	assert.Len(t, rec.recorded(), 1)
	assert.False(t, s.frames.Has())
}

func TestPoller_NoFreshFrameNoAttempt(t *testing.T) {
	rec := &memRecorder{}
	svc := NewService(fixedMatch(NoMatch(), nil), rec, time.Second)
	s := newSession(uuid.New(), "default", time.Minute)
	p, ctx := newTestPoller(s, svc, nil, func() time.Time { return t0.Add(time.Minute) })
	defer p.Stop()

	p.tick(ctx)
	s.frames.Put([]byte("stale"), t0)
	p.tick(ctx)
	waitPending(p)

	assert.Empty(t, rec.recorded())
}

func TestPoller_DiscardsResultAfterStop(t *testing.T) {
	m := newBlockingMatcher(Matched(person("A"), 0.9))
	rec := &memRecorder{}
	svc := NewService(m, rec, 5*time.Second)
	s := newSession(uuid.New(), "default", time.Minute)

	var delivered atomic.Int32
	p, ctx := newTestPoller(s, svc, func(*Session, Outcome) { delivered.Add(1) }, func() time.Time { return t0 })

	s.frames.Put([]byte("f"), t0)
	p.tick(ctx)
	<-m.started

	stopped := make(chan struct{})
	go func() {
		p.Stop()
		close(stopped)
	}()
	require.Eventually(t, func() bool {
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.stopped
	}, 2*time.Second, 5*time.Millisecond)
	close(m.release)

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("stop did not return after the attempt finished")
	}

	// Stop waited for the attempt, so these hold without further syncing.
	assert.Zero(t, delivered.Load())
	assert.Len(t, rec.recorded(), 1, "the in-flight attempt is still recorded")
	assert.False(t, s.InFlight())
	assert.Equal(t, GateState{}, s.Gate().State(), "a discarded result leaves the gate untouched")
}

func TestSessions_LateResultDoesNotArmRestartedGate(t *testing.T) {
	a := person("A")
	m := newBlockingMatcher(Matched(a, 0.9))
	rec := &memRecorder{}
	svc := NewService(m, rec, 5*time.Second)

	outcomes := make(chan Outcome, 4)
	sessions := NewSessions(svc, config.RecognitionConfig{
		Cooldown:     time.Hour,
		PollInterval: 10 * time.Millisecond,
		FrameMaxAge:  time.Minute,
	}, func(_ *Session, out Outcome) { outcomes <- out })
	defer sessions.Close()

	ctx := context.Background()
	userID := uuid.New()
	sessions.StartVisitor(ctx, userID, "door")
	sessions.PutFrame(userID, "door", []byte("f1"))
	<-m.started

	stopped := make(chan struct{})
	go func() {
		sessions.StopVisitor(userID, "door")
		close(stopped)
	}()
	require.Eventually(t, func() bool { return !sessions.Status(userID, "door").Active },
		2*time.Second, 5*time.Millisecond)

	// Restart while the old attempt is still matching, then let it finish.
	sessions.StartVisitor(ctx, userID, "door")
	close(m.release)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("stop did not return after the attempt finished")
	}

	assert.Equal(t, GateState{}, sessions.Get(userID, "door").Gate().State())
	assert.Empty(t, outcomes, "the late result is not delivered")
	assert.Len(t, rec.recorded(), 1)

	sessions.PutFrame(userID, "door", []byte("f2"))
	select {
	case out := <-outcomes:
		assert.True(t, out.Decision.ShouldAnnounce, "A is announced after the restart")
		assert.Equal(t, a, out.Decision.Person)
	case <-time.After(2 * time.Second):
		t.Fatal("no visitor outcome delivered after restart")
	}
}

func TestSessions_StatusDoesNotCreateSessions(t *testing.T) {
	svc := NewService(fixedMatch(NoMatch(), nil), &memRecorder{}, time.Second)
	sessions := NewSessions(svc, config.RecognitionConfig{Cooldown: time.Minute, PollInterval: time.Hour, FrameMaxAge: time.Minute}, nil)
	userID := uuid.New()

	for i := 0; i < 1000; i++ {
		assert.False(t, sessions.Status(userID, fmt.Sprintf("dev-%d", i)).Active)
	}
	assert.False(t, sessions.StopVisitor(userID, "never-started").Active)
	assert.Empty(t, sessions.items)
}

func TestSessions_EvictsIdleSessions(t *testing.T) {
	tests := []struct {
		name     string
		cooldown time.Duration
		evicted  bool
	}{
		{name: "idle past ttl", cooldown: time.Minute, evicted: true},
		{name: "cooldown still running", cooldown: sessionIdleTTL * 2, evicted: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(fixedMatch(NoMatch(), nil), &memRecorder{}, time.Second)
			sessions := NewSessions(svc, config.RecognitionConfig{Cooldown: tt.cooldown, PollInterval: time.Hour, FrameMaxAge: time.Minute}, nil)
			now := t0
			sessions.now = func() time.Time { return now }
			defer sessions.Close()

			userID := uuid.New()
			sessions.PutFrame(userID, "old", []byte("f"))
			sessions.StartVisitor(context.Background(), userID, "door")

			now = now.Add(sessionIdleTTL + time.Second)
			sessions.PutFrame(userID, "new", []byte("f"))

			assert.Equal(t, tt.evicted, sessions.lookup(userID, "old") == nil)
			assert.NotNil(t, sessions.lookup(userID, "door"), "active visitor sessions are kept")
			assert.NotNil(t, sessions.lookup(userID, "new"))
		})
	}
}

func TestSessions_VisitorMode(t *testing.T) {
	a := person("A")
	rec := &memRecorder{}
	svc := NewService(fixedMatch(Matched(a, 0.9), nil), rec, time.Second)

	outcomes := make(chan Outcome, 4)
	sessions := NewSessions(svc, config.RecognitionConfig{
		Cooldown:     time.Minute,
		PollInterval: 10 * time.Millisecond,
		FrameMaxAge:  time.Minute,
	}, func(_ *Session, out Outcome) { outcomes <- out })
	defer sessions.Close()

	userID := uuid.New()
	status := sessions.StartVisitor(context.Background(), userID, "door")
	assert.True(t, status.Active)
	assert.False(t, status.StartedAt.IsZero())

	sessions.PutFrame(userID, "door", []byte("f"))
	select {
	case out := <-outcomes:
		assert.True(t, out.Decision.ShouldAnnounce)
		assert.Equal(t, a, out.Decision.Person)
	case <-time.After(2 * time.Second):
		t.Fatal("no visitor outcome delivered")
	}

	sessions.PutFrame(userID, "door", []byte("f"))
	select {
	case out := <-outcomes:
		assert.False(t, out.Decision.ShouldAnnounce, "same person within cooldown")
	case <-time.After(2 * time.Second):
		t.Fatal("no second visitor outcome delivered")
	}

	status = sessions.StopVisitor(userID, "door")
	assert.False(t, status.Active)
	require.False(t, sessions.Status(userID, "door").Active)

	// Restarting resets the gate.
	sessions.StartVisitor(context.Background(), userID, "door")
	assert.Equal(t, GateState{}, sessions.Get(userID, "door").Gate().State())
}
