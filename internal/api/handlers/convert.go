package handlers

import (
	"github.com/your-org/facelink/internal/models"
	"github.com/your-org/facelink/pkg/dto"
)

func toPersonResponse(p *models.Person) dto.PersonResponse {
	r := dto.PersonResponse{
		ID:           p.ID,
		Name:         p.Name,
		Relationship: p.Relationship,
		Reminder:     p.Reminder,
		HasPhoto:     p.PhotoKey != "",
		HasFace:      p.HasFace,
		CreatedAt:    p.CreatedAt.Format(timestampLayout),
		UpdatedAt:    p.UpdatedAt.Format(timestampLayout),
	}
	if r.HasPhoto {
		r.PhotoURL = "/v1/people/" + p.ID.String() + "/photo"
	}
	return r
}

// TaskResponse converts a task for the wire.
func TaskResponse(t *models.Task) dto.TaskResponse {
	return dto.TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Time:        t.TimeOfDay,
		Date:        t.Date.Format(models.DateLayout),
		Completed:   t.Completed,
		Reminder:    t.Reminder,
		CreatedAt:   t.CreatedAt.Format(timestampLayout),
		UpdatedAt:   t.UpdatedAt.Format(timestampLayout),
	}
}

func toTaskResponses(tasks []models.Task) []dto.TaskResponse {
	resp := make([]dto.TaskResponse, 0, len(tasks))
	for i := range tasks {
		resp = append(resp, TaskResponse(&tasks[i]))
	}
	return resp
}

// EventResponse converts a timeline event for the wire.
func EventResponse(ev *models.TimelineEvent) dto.TimelineEventResponse {
	return dto.TimelineEventResponse{
		ID:                 ev.ID,
		EventType:          string(ev.Type),
		Timestamp:          ev.Timestamp.Format(timestampLayout),
		PersonID:           ev.PersonID,
		PersonName:         ev.PersonName,
		PersonRelationship: ev.PersonRelationship,
		Notes:              ev.Notes,
		Confidence:         ev.Confidence,
	}
}

func toCaregiverResponses(cs []models.Caregiver) []dto.CaregiverResponse {
	resp := make([]dto.CaregiverResponse, 0, len(cs))
	for i := range cs {
		resp = append(resp, toCaregiverResponse(&cs[i]))
	}
	return resp
}

func toCaregiverResponse(c *models.Caregiver) dto.CaregiverResponse {
	return dto.CaregiverResponse{
		ID:           c.ID,
		Name:         c.Name,
		Relationship: c.Relationship,
		PhoneNumber:  c.Phone,
		Email:        c.Email,
		IsPrimary:    c.IsPrimary,
	}
}

func toSettingsResponse(s *models.Settings) dto.SettingsResponse {
	return dto.SettingsResponse{
		ID:                 s.ID,
		HomeLabel:          s.HomeLabel,
		HomeAddress:        s.HomeAddress,
		ReassuranceMessage: s.ReassuranceMessage,
		MapLatitude:        s.Latitude,
		MapLongitude:       s.Longitude,
		Caregivers:         toCaregiverResponses(s.Caregivers),
		UpdatedAt:          s.UpdatedAt.Format(timestampLayout),
	}
}

func toLocationResponse(l *models.Location) dto.LocationResponse {
	return dto.LocationResponse{
		ID:        l.ID,
		Label:     l.Label,
		Address:   l.Address,
		Latitude:  l.Latitude,
		Longitude: l.Longitude,
		PlaceType: l.PlaceType,
		CreatedAt: l.CreatedAt.Format(timestampLayout),
	}
}
