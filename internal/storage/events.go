package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/your-org/facelink/internal/models"
)

func (s *PostgresStore) CreateEvent(ctx context.Context, ev *models.TimelineEvent) error {
	ev.ID = uuid.New()
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO timeline_events (id, user_id, person_id, event_type, timestamp, notes, confidence)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at`,
		ev.ID, ev.UserID, ev.PersonID, string(ev.Type), ev.Timestamp, ev.Notes, ev.Confidence,
	).Scan(&ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("create timeline event: %w", err)
	}
	return nil
}

// ListEvents returns the user's events with from <= timestamp < to, newest first.
func (s *PostgresStore) ListEvents(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.TimelineEvent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT e.id, e.user_id, e.person_id, e.event_type, e.timestamp, e.notes, e.confidence, e.created_at,
		        COALESCE(p.name, ''), COALESCE(p.relationship, '')
		 FROM timeline_events e
		 LEFT JOIN persons p ON p.id = e.person_id
		 WHERE e.user_id = $1 AND e.timestamp >= $2 AND e.timestamp < $3
		 ORDER BY e.timestamp DESC`,
		userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list timeline events: %w", err)
	}
	defer rows.Close()

	var events []models.TimelineEvent
	for rows.Next() {
		var ev models.TimelineEvent
		var eventType string
		if err := rows.Scan(&ev.ID, &ev.UserID, &ev.PersonID, &eventType, &ev.Timestamp,
			&ev.Notes, &ev.Confidence, &ev.CreatedAt, &ev.PersonName, &ev.PersonRelationship); err != nil {
			return nil, fmt.Errorf("scan timeline event: %w", err)
		}
		ev.Type = models.EventType(eventType)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// CountPersonEvents counts the user's events that reference the person.
func (s *PostgresStore) CountPersonEvents(ctx context.Context, userID, personID uuid.UUID) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM timeline_events WHERE user_id = $1 AND person_id = $2`, userID, personID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count person events: %w", err)
	}
	return count, nil
}
