package models

import (
	"time"

	"github.com/google/uuid"
)

// Person is someone the user should recognise. Embedding is only loaded by
// queries that need the vector; HasFace reports whether one is stored.
type Person struct {
	ID           uuid.UUID `json:"id" db:"id"`
	UserID       uuid.UUID `json:"user_id" db:"user_id"`
	Name         string    `json:"name" db:"name"`
	Relationship string    `json:"relationship" db:"relationship"`
	Reminder     string    `json:"reminder" db:"reminder"`
	PhotoKey     string    `json:"photo_key,omitempty" db:"photo_key"`
	HasFace      bool      `json:"has_face" db:"-"`
	Embedding    []float32 `json:"-" db:"face_embedding"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// PersonPatch carries the fields of a partial update. Nil means unchanged.
type PersonPatch struct {
	Name         *string
	Relationship *string
	Reminder     *string
}
