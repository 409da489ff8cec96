package recognition

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/facelink/internal/models"
)

// MatchResult is either no match (Person nil) or a person with the
// matcher's confidence in [0, 1].
type MatchResult struct {
	Person     *models.Person
	Confidence float32
}

func NoMatch() MatchResult { return MatchResult{} }

func Matched(p *models.Person, confidence float32) MatchResult {
	return MatchResult{Person: p, Confidence: confidence}
}

func (m MatchResult) IsMatch() bool { return m.Person != nil }

// Decision is the outcome of one gate evaluation. Person is set for every
// match, announced or not.
type Decision struct {
	Person         *models.Person
	Confidence     float32
	ShouldAnnounce bool
}

// GateState remembers the last announcement. A zero LastAnnouncedAt means
// nothing has been announced yet.
type GateState struct {
	LastPersonID    *uuid.UUID
	LastAnnouncedAt time.Time
}

// Evaluate decides whether a match should be announced. A match is announced
// when it is a different person from the last announcement, when nothing
// was announced before, or when the cooldown has elapsed. Only an
// announcement changes the state.
func Evaluate(state GateState, cooldown time.Duration, match MatchResult, now time.Time) (Decision, GateState) {
	if !match.IsMatch() {
		return Decision{}, state
	}

	d := Decision{Person: match.Person, Confidence: match.Confidence}

	id := match.Person.ID
	if state.LastPersonID == nil || *state.LastPersonID != id ||
		state.LastAnnouncedAt.IsZero() || now.Sub(state.LastAnnouncedAt) >= cooldown {
		d.ShouldAnnounce = true
		return d, GateState{LastPersonID: &id, LastAnnouncedAt: now}
	}

	return d, state
}

// Gate owns the state of one recognition session.
type Gate struct {
	mu       sync.Mutex
	cooldown time.Duration
	state    GateState
}

func NewGate(cooldown time.Duration) *Gate {
	return &Gate{cooldown: cooldown}
}

func (g *Gate) Evaluate(match MatchResult, now time.Time) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	d, next := Evaluate(g.state, g.cooldown, match, now)
	g.state = next
	return d
}

func (g *Gate) State() GateState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Reset forgets the last announcement.
func (g *Gate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = GateState{}
}
