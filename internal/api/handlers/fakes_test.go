package handlers

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/facelink/internal/models"
	"github.com/your-org/facelink/internal/storage"
)

// memStore is an in-memory stand-in for storage.PostgresStore.
type memStore struct {
	mu         sync.Mutex
	people     map[uuid.UUID]*models.Person
	tasks      map[uuid.UUID]*models.Task
	events     []models.TimelineEvent
	settings   map[uuid.UUID]*models.Settings
	caregivers map[uuid.UUID][]models.Caregiver
	locations  map[uuid.UUID]*models.Location

	lastEventRange [2]time.Time
}

func newMemStore() *memStore {
	return &memStore{
		people:     map[uuid.UUID]*models.Person{},
		tasks:      map[uuid.UUID]*models.Task{},
		settings:   map[uuid.UUID]*models.Settings{},
		caregivers: map[uuid.UUID][]models.Caregiver{},
		locations:  map[uuid.UUID]*models.Location{},
	}
}

func (s *memStore) CreatePerson(_ context.Context, p *models.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	s.people[p.ID] = &cp
	return nil
}

func (s *memStore) GetPerson(_ context.Context, userID, id uuid.UUID) (*models.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.people[id]
	if !ok || p.UserID != userID {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *memStore) ListPersons(_ context.Context, userID uuid.UUID) ([]models.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Person
	for _, p := range s.people {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memStore) UpdatePerson(_ context.Context, userID, id uuid.UUID, patch models.PersonPatch) (*models.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.people[id]
	if !ok || p.UserID != userID {
		return nil, storage.ErrNotFound
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Relationship != nil {
		p.Relationship = *patch.Relationship
	}
	if patch.Reminder != nil {
		p.Reminder = *patch.Reminder
	}
	cp := *p
	return &cp, nil
}

func (s *memStore) SetPersonPhoto(_ context.Context, userID, id uuid.UUID, key string, emb []float32) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.people[id]
	if !ok || p.UserID != userID {
		return "", storage.ErrNotFound
	}
	prev := p.PhotoKey
	p.PhotoKey = key
	p.Embedding = emb
	p.HasFace = true
	return prev, nil
}

func (s *memStore) DeletePerson(_ context.Context, userID, id uuid.UUID) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.people[id]
	if !ok || p.UserID != userID {
		return "", storage.ErrNotFound
	}
	delete(s.people, id)
	for i := range s.events {
		if s.events[i].PersonID != nil && *s.events[i].PersonID == id {
			s.events[i].PersonID = nil
		}
	}
	return p.PhotoKey, nil
}

func (s *memStore) CountPersonEvents(_ context.Context, userID, personID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, ev := range s.events {
		if ev.UserID == userID && ev.PersonID != nil && *ev.PersonID == personID {
			n++
		}
	}
	return n, nil
}

func (s *memStore) ListDescriptors(_ context.Context, userID uuid.UUID) ([]models.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Person
	for _, p := range s.people {
		if p.UserID == userID && len(p.Embedding) > 0 {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *memStore) CreateTask(_ context.Context, t *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = uuid.New()
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	cp := *t
	s.tasks[t.ID] = &cp
	return nil
}

func (s *memStore) GetTask(_ context.Context, userID, id uuid.UUID) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok || t.UserID != userID {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (s *memStore) ListTasksByDate(_ context.Context, userID uuid.UUID, date time.Time) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Task{}
	for _, t := range s.tasks {
		if t.UserID == userID && t.Date.Equal(date) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TimeOfDay < out[j].TimeOfDay })
	return out, nil
}

func (s *memStore) ListUpcomingTasks(_ context.Context, userID uuid.UUID, from, to time.Time, limit int) ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Task{}
	for _, t := range s.tasks {
		if t.UserID == userID && !t.Completed && !t.Date.Before(from) && !t.Date.After(to) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].TimeOfDay < out[j].TimeOfDay
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) UpdateTask(_ context.Context, userID, id uuid.UUID, patch models.TaskPatch) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok || t.UserID != userID {
		return nil, storage.ErrNotFound
	}
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.TimeOfDay != nil {
		t.TimeOfDay = *patch.TimeOfDay
	}
	if patch.Date != nil {
		t.Date = *patch.Date
	}
	if patch.Completed != nil {
		t.Completed = *patch.Completed
	}
	if patch.Reminder != nil {
		t.Reminder = *patch.Reminder
	}
	cp := *t
	return &cp, nil
}

func (s *memStore) ToggleTask(_ context.Context, userID, id uuid.UUID) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok || t.UserID != userID {
		return nil, storage.ErrNotFound
	}
	t.Completed = !t.Completed
	cp := *t
	return &cp, nil
}

func (s *memStore) DeleteTask(_ context.Context, userID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok || t.UserID != userID {
		return storage.ErrNotFound
	}
	delete(s.tasks, id)
	return nil
}

func (s *memStore) ListEvents(_ context.Context, userID uuid.UUID, from, to time.Time) ([]models.TimelineEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastEventRange = [2]time.Time{from, to}
	out := []models.TimelineEvent{}
	for _, ev := range s.events {
		if ev.UserID == userID && !ev.Timestamp.Before(from) && ev.Timestamp.Before(to) {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

func (s *memStore) Record(_ context.Context, userID uuid.UUID, kind models.EventType, personID *uuid.UUID, notes string, confidence *float32) (*models.TimelineEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev := models.TimelineEvent{
		ID:         uuid.New(),
		UserID:     userID,
		Type:       kind,
		Timestamp:  time.Now(),
		PersonID:   personID,
		Notes:      notes,
		Confidence: confidence,
	}
	s.events = append(s.events, ev)
	return &ev, nil
}

func (s *memStore) GetOrCreateSettings(_ context.Context, userID uuid.UUID, defaults models.Settings) (*models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.settings[userID]
	if !ok {
		cp := defaults
		cp.ID = uuid.New()
		cp.UserID = userID
		st = &cp
		s.settings[userID] = st
	}
	out := *st
	out.Caregivers = s.sortedCaregivers(st.ID)
	return &out, nil
}

func (s *memStore) UpdateSettings(_ context.Context, userID uuid.UUID, patch models.SettingsPatch) (*models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.settings[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	if patch.HomeLabel != nil {
		st.HomeLabel = *patch.HomeLabel
	}
	if patch.HomeAddress != nil {
		st.HomeAddress = *patch.HomeAddress
	}
	if patch.ReassuranceMessage != nil {
		st.ReassuranceMessage = *patch.ReassuranceMessage
	}
	if patch.Latitude != nil {
		st.Latitude = patch.Latitude
	}
	if patch.Longitude != nil {
		st.Longitude = patch.Longitude
	}
	out := *st
	out.Caregivers = s.sortedCaregivers(st.ID)
	return &out, nil
}

func (s *memStore) sortedCaregivers(settingsID uuid.UUID) []models.Caregiver {
	out := append([]models.Caregiver{}, s.caregivers[settingsID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].IsPrimary && !out[j].IsPrimary })
	return out
}

func (s *memStore) ListCaregivers(_ context.Context, userID uuid.UUID) ([]models.Caregiver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.settings[userID]
	if !ok {
		return []models.Caregiver{}, nil
	}
	return s.sortedCaregivers(st.ID), nil
}

func (s *memStore) CreateCaregiver(_ context.Context, userID uuid.UUID, c *models.Caregiver) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.settings[userID]
	if !ok {
		return storage.ErrNotFound
	}
	c.ID = uuid.New()
	c.SettingsID = st.ID
	if c.IsPrimary {
		s.clearPrimary(st.ID)
	}
	s.caregivers[st.ID] = append(s.caregivers[st.ID], *c)
	return nil
}

func (s *memStore) clearPrimary(settingsID uuid.UUID) {
	for i := range s.caregivers[settingsID] {
		s.caregivers[settingsID][i].IsPrimary = false
	}
}

func (s *memStore) UpdateCaregiver(_ context.Context, userID, id uuid.UUID, patch models.CaregiverPatch) (*models.Caregiver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.settings[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cs := s.caregivers[st.ID]
	for i := range cs {
		if cs[i].ID != id {
			continue
		}
		if patch.IsPrimary != nil && *patch.IsPrimary {
			s.clearPrimary(st.ID)
		}
		if patch.Name != nil {
			cs[i].Name = *patch.Name
		}
		if patch.Relationship != nil {
			cs[i].Relationship = *patch.Relationship
		}
		if patch.Phone != nil {
			cs[i].Phone = *patch.Phone
		}
		if patch.Email != nil {
			cs[i].Email = *patch.Email
		}
		if patch.IsPrimary != nil {
			cs[i].IsPrimary = *patch.IsPrimary
		}
		cp := cs[i]
		return &cp, nil
	}
	return nil, storage.ErrNotFound
}

func (s *memStore) DeleteCaregiver(_ context.Context, userID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.settings[userID]
	if !ok {
		return storage.ErrNotFound
	}
	cs := s.caregivers[st.ID]
	for i := range cs {
		if cs[i].ID == id {
			s.caregivers[st.ID] = append(cs[:i], cs[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

func (s *memStore) CreateLocation(_ context.Context, l *models.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.ID = uuid.New()
	l.CreatedAt = time.Now()
	cp := *l
	s.locations[l.ID] = &cp
	return nil
}

func (s *memStore) GetLocation(_ context.Context, userID, id uuid.UUID) (*models.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locations[id]
	if !ok || l.UserID != userID {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (s *memStore) ListLocations(_ context.Context, userID uuid.UUID) ([]models.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Location{}
	for _, l := range s.locations {
		if l.UserID == userID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (s *memStore) UpdateLocation(_ context.Context, userID, id uuid.UUID, patch models.LocationPatch) (*models.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locations[id]
	if !ok || l.UserID != userID {
		return nil, storage.ErrNotFound
	}
	if patch.Label != nil {
		l.Label = *patch.Label
	}
	if patch.Address != nil {
		l.Address = *patch.Address
	}
	if patch.Latitude != nil {
		l.Latitude = patch.Latitude
	}
	if patch.Longitude != nil {
		l.Longitude = patch.Longitude
	}
	if patch.PlaceType != nil {
		l.PlaceType = *patch.PlaceType
	}
	cp := *l
	return &cp, nil
}

func (s *memStore) DeleteLocation(_ context.Context, userID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locations[id]
	if !ok || l.UserID != userID {
		return storage.ErrNotFound
	}
	delete(s.locations, id)
	return nil
}

type memBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newMemBlobs() *memBlobs {
	return &memBlobs{objects: map[string][]byte{}, types: map[string]string{}}
}

func (b *memBlobs) PutObject(_ context.Context, key string, data []byte, contentType string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = data
	b.types[key] = contentType
	return nil
}

func (b *memBlobs) GetObject(_ context.Context, key string) ([]byte, string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[key]
	if !ok {
		return nil, "", errors.New("no such key")
	}
	return data, b.types[key], nil
}

func (b *memBlobs) DeleteObject(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	return nil
}

func (b *memBlobs) keys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.objects))
	for k := range b.objects {
		out = append(out, k)
	}
	return out
}
