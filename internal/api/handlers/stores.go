package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/facelink/internal/models"
)

// The interfaces below are the slices of *storage.PostgresStore and
// *storage.MinIOStore each handler depends on.

type PersonStore interface {
	CreatePerson(ctx context.Context, p *models.Person) error
	GetPerson(ctx context.Context, userID, id uuid.UUID) (*models.Person, error)
	ListPersons(ctx context.Context, userID uuid.UUID) ([]models.Person, error)
	UpdatePerson(ctx context.Context, userID, id uuid.UUID, patch models.PersonPatch) (*models.Person, error)
	SetPersonPhoto(ctx context.Context, userID, id uuid.UUID, photoKey string, embedding []float32) (string, error)
	DeletePerson(ctx context.Context, userID, id uuid.UUID) (string, error)
	ListDescriptors(ctx context.Context, userID uuid.UUID) ([]models.Person, error)
	CountPersonEvents(ctx context.Context, userID, personID uuid.UUID) (int, error)
}

type BlobStore interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
	GetObject(ctx context.Context, key string) ([]byte, string, error)
	DeleteObject(ctx context.Context, key string) error
}

type TaskStore interface {
	CreateTask(ctx context.Context, t *models.Task) error
	GetTask(ctx context.Context, userID, id uuid.UUID) (*models.Task, error)
	ListTasksByDate(ctx context.Context, userID uuid.UUID, date time.Time) ([]models.Task, error)
	ListUpcomingTasks(ctx context.Context, userID uuid.UUID, from, to time.Time, limit int) ([]models.Task, error)
	UpdateTask(ctx context.Context, userID, id uuid.UUID, patch models.TaskPatch) (*models.Task, error)
	ToggleTask(ctx context.Context, userID, id uuid.UUID) (*models.Task, error)
	DeleteTask(ctx context.Context, userID, id uuid.UUID) error
}

type EventLister interface {
	ListEvents(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.TimelineEvent, error)
}

// EventRecorder appends a timeline event and fans it out.
type EventRecorder interface {
	Record(ctx context.Context, userID uuid.UUID, kind models.EventType, personID *uuid.UUID, notes string, confidence *float32) (*models.TimelineEvent, error)
}

type SettingsStore interface {
	GetOrCreateSettings(ctx context.Context, userID uuid.UUID, defaults models.Settings) (*models.Settings, error)
	UpdateSettings(ctx context.Context, userID uuid.UUID, patch models.SettingsPatch) (*models.Settings, error)
	ListCaregivers(ctx context.Context, userID uuid.UUID) ([]models.Caregiver, error)
	CreateCaregiver(ctx context.Context, userID uuid.UUID, c *models.Caregiver) error
	UpdateCaregiver(ctx context.Context, userID, id uuid.UUID, patch models.CaregiverPatch) (*models.Caregiver, error)
	DeleteCaregiver(ctx context.Context, userID, id uuid.UUID) error
}

type LocationStore interface {
	CreateLocation(ctx context.Context, l *models.Location) error
	GetLocation(ctx context.Context, userID, id uuid.UUID) (*models.Location, error)
	ListLocations(ctx context.Context, userID uuid.UUID) ([]models.Location, error)
	UpdateLocation(ctx context.Context, userID, id uuid.UUID, patch models.LocationPatch) (*models.Location, error)
	DeleteLocation(ctx context.Context, userID, id uuid.UUID) error
}

// clock resolves "today" in the configured time zone.
type clock struct {
	loc *time.Location
	now func() time.Time
}

func newClock(loc *time.Location) clock {
	if loc == nil {
		loc = time.Local
	}
	return clock{loc: loc, now: time.Now}
}

// today returns the current calendar date as midnight UTC, the form dates
// are stored in.
func (c clock) today() time.Time {
	return models.DateOf(c.now().In(c.loc))
}

// inZone moves a stored calendar date to midnight in the configured zone.
func (c clock) inZone(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.loc)
}
