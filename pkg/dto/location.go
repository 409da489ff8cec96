package dto

import "github.com/google/uuid"

type CreateLocationRequest struct {
	Label     string   `json:"label" binding:"required,max=100"`
	Address   string   `json:"address" binding:"max=500"`
	Latitude  *float64 `json:"latitude" binding:"omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude" binding:"omitempty,min=-180,max=180"`
	PlaceType string   `json:"place_type" binding:"max=50"`
}

type UpdateLocationRequest struct {
	Label     *string  `json:"label" binding:"omitnil,min=1,max=100"`
	Address   *string  `json:"address" binding:"omitempty,max=500"`
	Latitude  *float64 `json:"latitude" binding:"omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude" binding:"omitempty,min=-180,max=180"`
	PlaceType *string  `json:"place_type" binding:"omitempty,max=50"`
}

type LocationResponse struct {
	ID        uuid.UUID `json:"id"`
	Label     string    `json:"label"`
	Address   string    `json:"address,omitempty"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	PlaceType string    `json:"place_type,omitempty"`
	CreatedAt string    `json:"created_at"`
}
