package dto

import "github.com/google/uuid"

type UpdateSettingsRequest struct {
	HomeLabel          *string  `json:"home_label" binding:"omitnil,min=1,max=100"`
	HomeAddress        *string  `json:"home_address" binding:"omitnil,min=1,max=500"`
	ReassuranceMessage *string  `json:"reassurance_message" binding:"omitnil,min=1,max=1000"`
	MapLatitude        *float64 `json:"map_latitude" binding:"omitempty,min=-90,max=90"`
	MapLongitude       *float64 `json:"map_longitude" binding:"omitempty,min=-180,max=180"`
}

type SettingsResponse struct {
	ID                 uuid.UUID           `json:"id"`
	HomeLabel          string              `json:"home_label"`
	HomeAddress        string              `json:"home_address"`
	ReassuranceMessage string              `json:"reassurance_message"`
	MapLatitude        *float64            `json:"map_latitude,omitempty"`
	MapLongitude       *float64            `json:"map_longitude,omitempty"`
	Caregivers         []CaregiverResponse `json:"caregivers"`
	UpdatedAt          string              `json:"updated_at"`
}

type CreateCaregiverRequest struct {
	Name         string `json:"name" binding:"required,max=200"`
	Relationship string `json:"relationship" binding:"required,max=100"`
	PhoneNumber  string `json:"phone_number" binding:"required,max=50"`
	Email        string `json:"email" binding:"omitempty,email"`
	IsPrimary    bool   `json:"is_primary"`
}

type UpdateCaregiverRequest struct {
	Name         *string `json:"name" binding:"omitnil,min=1,max=200"`
	Relationship *string `json:"relationship" binding:"omitnil,min=1,max=100"`
	PhoneNumber  *string `json:"phone_number" binding:"omitnil,min=1,max=50"`
	Email        *string `json:"email" binding:"omitempty,email"`
	IsPrimary    *bool   `json:"is_primary"`
}

type CaregiverResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Relationship string    `json:"relationship"`
	PhoneNumber  string    `json:"phone_number"`
	Email        string    `json:"email,omitempty"`
	IsPrimary    bool      `json:"is_primary"`
}

type HelpRequest struct {
	Notes string `json:"notes" binding:"max=1000"`
}

// HelpResponse is everything the help screen needs to reassure the user.
type HelpResponse struct {
	Message      string                `json:"message"`
	HomeLabel    string                `json:"home_label"`
	HomeAddress  string                `json:"home_address"`
	MapLatitude  *float64              `json:"map_latitude,omitempty"`
	MapLongitude *float64              `json:"map_longitude,omitempty"`
	Caregivers   []CaregiverResponse   `json:"caregivers"`
	Event        TimelineEventResponse `json:"event"`
}
