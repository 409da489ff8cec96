package dto

import "github.com/google/uuid"

type CreatePersonRequest struct {
	Name         string `json:"name" binding:"required,max=200"`
	Relationship string `json:"relationship" binding:"required,max=100"`
	Reminder     string `json:"reminder" binding:"max=1000"`
}

type UpdatePersonRequest struct {
	Name         *string `json:"name" binding:"omitnil,min=1,max=200"`
	Relationship *string `json:"relationship" binding:"omitnil,min=1,max=100"`
	Reminder     *string `json:"reminder" binding:"omitempty,max=1000"`
}

// ImageRequest carries an image as a base64 string or data URL.
type ImageRequest struct {
	Image string `json:"image" binding:"required"`
}

type PersonResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Relationship string    `json:"relationship"`
	Reminder     string    `json:"reminder"`
	HasPhoto     bool      `json:"has_photo"`
	HasFace      bool      `json:"has_face"`
	PhotoURL     string    `json:"photo_url,omitempty"`
	CreatedAt    string    `json:"created_at"`
	UpdatedAt    string    `json:"updated_at"`
}

// DescriptorResponse exposes a stored face descriptor for client-side matching.
type DescriptorResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Relationship string    `json:"relationship"`
	Descriptor   []float32 `json:"descriptor"`
}

type PhotoUploadResponse struct {
	Person    PersonResponse `json:"person"`
	FaceScore float32        `json:"face_score"`
}

// DeletePersonResponse reports how many timeline events outlive the person.
type DeletePersonResponse struct {
	EventsKept int `json:"events_kept"`
}
