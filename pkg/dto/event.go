package dto

import "github.com/google/uuid"

type TimelineEventResponse struct {
	ID                 uuid.UUID  `json:"id"`
	EventType          string     `json:"event_type"`
	Timestamp          string     `json:"timestamp"`
	PersonID           *uuid.UUID `json:"person_id,omitempty"`
	PersonName         string     `json:"person_name,omitempty"`
	PersonRelationship string     `json:"person_relationship,omitempty"`
	Notes              string     `json:"notes,omitempty"`
	Confidence         *float32   `json:"confidence,omitempty"`
}

type TimelineResponse struct {
	Date   string                  `json:"date"`
	Range  string                  `json:"range"`
	From   string                  `json:"from"`
	To     string                  `json:"to"`
	Events []TimelineEventResponse `json:"events"`
	Total  int                     `json:"total"`
}

type TimelineQuery struct {
	Date  string `form:"date" binding:"omitempty,isodate"`
	Range string `form:"range" binding:"omitempty,oneof=day week"`
}

// WebSocket message types.
const (
	WSRecognition   = "recognition"
	WSTimelineEvent = "timeline_event"
	WSTaskReminder  = "task_reminder"
)

// WSEvent is a message pushed to WebSocket clients. DeviceID is empty for
// messages addressed to every device of the user.
type WSEvent struct {
	Type     string    `json:"type"`
	UserID   uuid.UUID `json:"user_id"`
	DeviceID string    `json:"device_id,omitempty"`
	Data     any       `json:"data"`
}
