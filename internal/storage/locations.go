package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/your-org/facelink/internal/models"
)

const locationColumns = `id, user_id, label, address, latitude, longitude, place_type, created_at`

func scanLocation(row pgx.Row, l *models.Location) error {
	return row.Scan(&l.ID, &l.UserID, &l.Label, &l.Address, &l.Latitude, &l.Longitude,
		&l.PlaceType, &l.CreatedAt)
}

func (s *PostgresStore) CreateLocation(ctx context.Context, l *models.Location) error {
	l.ID = uuid.New()
	err := s.pool.QueryRow(ctx,
		`INSERT INTO locations (id, user_id, label, address, latitude, longitude, place_type)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at`,
		l.ID, l.UserID, l.Label, l.Address, l.Latitude, l.Longitude, l.PlaceType,
	).Scan(&l.CreatedAt)
	if err != nil {
		return fmt.Errorf("create location: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetLocation(ctx context.Context, userID, id uuid.UUID) (*models.Location, error) {
	l := &models.Location{}
	err := scanLocation(s.pool.QueryRow(ctx,
		`SELECT `+locationColumns+` FROM locations WHERE id = $1 AND user_id = $2`, id, userID), l)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get location: %w", err)
	}
	return l, nil
}

func (s *PostgresStore) ListLocations(ctx context.Context, userID uuid.UUID) ([]models.Location, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+locationColumns+` FROM locations WHERE user_id = $1 ORDER BY label`, userID)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	var locations []models.Location
	for rows.Next() {
		var l models.Location
		if err := scanLocation(rows, &l); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

func (s *PostgresStore) UpdateLocation(ctx context.Context, userID, id uuid.UUID, patch models.LocationPatch) (*models.Location, error) {
	l := &models.Location{}
	err := scanLocation(s.pool.QueryRow(ctx,
		`UPDATE locations SET
			label = COALESCE($3, label),
			address = COALESCE($4, address),
			latitude = COALESCE($5, latitude),
			longitude = COALESCE($6, longitude),
			place_type = COALESCE($7, place_type)
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+locationColumns,
		id, userID, patch.Label, patch.Address, patch.Latitude, patch.Longitude, patch.PlaceType), l)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update location: %w", err)
	}
	return l, nil
}

func (s *PostgresStore) DeleteLocation(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM locations WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete location: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
