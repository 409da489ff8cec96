package models

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventRecognition EventType = "recognition"
	EventUnknownFace EventType = "unknown_face"
	EventConfused    EventType = "confused"
)

// TimelineEvent is an append-only history entry. PersonID becomes nil when
// the referenced person is deleted; the event itself is kept.
type TimelineEvent struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	UserID     uuid.UUID  `json:"user_id" db:"user_id"`
	Type       EventType  `json:"event_type" db:"event_type"`
	Timestamp  time.Time  `json:"timestamp" db:"timestamp"`
	PersonID   *uuid.UUID `json:"person_id,omitempty" db:"person_id"`
	Notes      string     `json:"notes,omitempty" db:"notes"`
	Confidence *float32   `json:"confidence,omitempty" db:"confidence"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`

	// Populated by joins when the person still exists.
	PersonName         string `json:"person_name,omitempty" db:"-"`
	PersonRelationship string `json:"person_relationship,omitempty" db:"-"`
}
