package models

import (
	"time"

	"github.com/google/uuid"
)

// Settings is the per-user singleton behind the help and location screens.
type Settings struct {
	ID                 uuid.UUID   `json:"id" db:"id"`
	UserID             uuid.UUID   `json:"user_id" db:"user_id"`
	HomeLabel          string      `json:"home_label" db:"home_label"`
	HomeAddress        string      `json:"home_address" db:"home_address"`
	ReassuranceMessage string      `json:"reassurance_message" db:"reassurance_message"`
	Latitude           *float64    `json:"map_latitude,omitempty" db:"map_latitude"`
	Longitude          *float64    `json:"map_longitude,omitempty" db:"map_longitude"`
	Caregivers         []Caregiver `json:"caregivers" db:"-"`
	CreatedAt          time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at" db:"updated_at"`
}

type SettingsPatch struct {
	HomeLabel          *string
	HomeAddress        *string
	ReassuranceMessage *string
	Latitude           *float64
	Longitude          *float64
}

type Caregiver struct {
	ID           uuid.UUID `json:"id" db:"id"`
	SettingsID   uuid.UUID `json:"settings_id" db:"settings_id"`
	Name         string    `json:"name" db:"name"`
	Relationship string    `json:"relationship" db:"relationship"`
	Phone        string    `json:"phone_number" db:"phone_number"`
	Email        string    `json:"email,omitempty" db:"email"`
	IsPrimary    bool      `json:"is_primary" db:"is_primary"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

type CaregiverPatch struct {
	Name         *string
	Relationship *string
	Phone        *string
	Email        *string
	IsPrimary    *bool
}
