package recognition

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/facelink/internal/models"
	"github.com/your-org/facelink/internal/observability"
)

// ErrMatcherUnavailable is returned when no face model is loaded.
var ErrMatcherUnavailable = errors.New("face matcher unavailable")

// Matcher identifies the person in a frame among a user's people.
type Matcher interface {
	Match(ctx context.Context, userID uuid.UUID, frame []byte) (MatchResult, error)
}

// EmbedFunc turns an image into a unit-length face descriptor.
type EmbedFunc func(image []byte) ([]float32, error)

// PersonIndex finds the user's person nearest to a descriptor.
type PersonIndex interface {
	NearestPerson(ctx context.Context, userID uuid.UUID, embedding []float32) (*models.Person, float32, error)
}

// EmbeddingMatcher embeds the frame and looks up the nearest stored face.
// Matches scoring below threshold are reported as NoMatch.
type EmbeddingMatcher struct {
	embed     EmbedFunc
	index     PersonIndex
	threshold float32
}

// NewEmbeddingMatcher returns a matcher; a nil embed makes every call fail
// with ErrMatcherUnavailable.
func NewEmbeddingMatcher(embed EmbedFunc, index PersonIndex, threshold float64) *EmbeddingMatcher {
	return &EmbeddingMatcher{embed: embed, index: index, threshold: float32(threshold)}
}

func (m *EmbeddingMatcher) Match(ctx context.Context, userID uuid.UUID, frame []byte) (MatchResult, error) {
	if m.embed == nil {
		return NoMatch(), ErrMatcherUnavailable
	}

	start := time.Now()
	defer func() { observability.MatchDuration.Observe(time.Since(start).Seconds()) }()

	vec, err := m.embed(frame)
	if err != nil {
		return NoMatch(), err
	}
	if err := ctx.Err(); err != nil {
		return NoMatch(), err
	}

	p, score, err := m.index.NearestPerson(ctx, userID, vec)
	if err != nil {
		return NoMatch(), fmt.Errorf("nearest person: %w", err)
	}
	if p == nil || score < m.threshold {
		return NoMatch(), nil
	}
	return Matched(p, clampConfidence(score)), nil
}

func clampConfidence(c float32) float32 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
