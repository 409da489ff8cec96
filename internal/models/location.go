package models

import (
	"time"

	"github.com/google/uuid"
)

// Location is a safe place shown on the reassurance map.
type Location struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Label     string    `json:"label" db:"label"`
	Address   string    `json:"address,omitempty" db:"address"`
	Latitude  *float64  `json:"latitude,omitempty" db:"latitude"`
	Longitude *float64  `json:"longitude,omitempty" db:"longitude"`
	PlaceType string    `json:"place_type,omitempty" db:"place_type"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type LocationPatch struct {
	Label     *string
	Address   *string
	Latitude  *float64
	Longitude *float64
	PlaceType *string
}
