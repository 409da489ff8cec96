package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/your-org/facelink/internal/models"
)

const settingsColumns = `id, user_id, home_label, home_address, reassurance_message, map_latitude, map_longitude, created_at, updated_at`

const caregiverColumns = `id, settings_id, name, relationship, phone_number, email, is_primary, created_at`

func scanSettings(row pgx.Row, st *models.Settings) error {
	return row.Scan(&st.ID, &st.UserID, &st.HomeLabel, &st.HomeAddress, &st.ReassuranceMessage,
		&st.Latitude, &st.Longitude, &st.CreatedAt, &st.UpdatedAt)
}

func scanCaregiver(row pgx.Row, c *models.Caregiver) error {
	return row.Scan(&c.ID, &c.SettingsID, &c.Name, &c.Relationship, &c.Phone, &c.Email,
		&c.IsPrimary, &c.CreatedAt)
}

// EnsureUser inserts a bare user row for id if none exists.
func (s *PostgresStore) EnsureUser(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, email, name) VALUES ($1, $2, '') ON CONFLICT (id) DO NOTHING`,
		id, id.String()+"@facelink.local")
	if err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}
	return nil
}

// GetOrCreateSettings returns the user's settings, creating them from
// defaults on first read. Caregivers are loaded primary first.
func (s *PostgresStore) GetOrCreateSettings(ctx context.Context, userID uuid.UUID, defaults models.Settings) (*models.Settings, error) {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO settings (id, user_id, home_label, home_address, reassurance_message, map_latitude, map_longitude)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (user_id) DO NOTHING`,
		uuid.New(), userID, defaults.HomeLabel, defaults.HomeAddress, defaults.ReassuranceMessage,
		defaults.Latitude, defaults.Longitude)
	if err != nil {
		return nil, fmt.Errorf("seed settings: %w", err)
	}

	st := &models.Settings{}
	if err := scanSettings(s.pool.QueryRow(ctx,
		`SELECT `+settingsColumns+` FROM settings WHERE user_id = $1`, userID), st); err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}

	st.Caregivers, err = s.ListCaregivers(ctx, userID)
	if err != nil {
		return nil, err
	}
	return st, nil
}

// UpdateSettings applies a partial update. Settings must already exist.
func (s *PostgresStore) UpdateSettings(ctx context.Context, userID uuid.UUID, patch models.SettingsPatch) (*models.Settings, error) {
	st := &models.Settings{}
	err := scanSettings(s.pool.QueryRow(ctx,
		`UPDATE settings SET
			home_label = COALESCE($2, home_label),
			home_address = COALESCE($3, home_address),
			reassurance_message = COALESCE($4, reassurance_message),
			map_latitude = COALESCE($5, map_latitude),
			map_longitude = COALESCE($6, map_longitude),
			updated_at = now()
		 WHERE user_id = $1
		 RETURNING `+settingsColumns,
		userID, patch.HomeLabel, patch.HomeAddress, patch.ReassuranceMessage,
		patch.Latitude, patch.Longitude), st)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update settings: %w", err)
	}

	st.Caregivers, err = s.ListCaregivers(ctx, userID)
	if err != nil {
		return nil, err
	}
	return st, nil
}

func (s *PostgresStore) ListCaregivers(ctx context.Context, userID uuid.UUID) ([]models.Caregiver, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT c.id, c.settings_id, c.name, c.relationship, c.phone_number, c.email, c.is_primary, c.created_at
		 FROM caregivers c
		 JOIN settings s ON s.id = c.settings_id
		 WHERE s.user_id = $1
		 ORDER BY c.is_primary DESC, c.created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list caregivers: %w", err)
	}
	defer rows.Close()

	caregivers := []models.Caregiver{}
	for rows.Next() {
		var c models.Caregiver
		if err := scanCaregiver(rows, &c); err != nil {
			return nil, fmt.Errorf("scan caregiver: %w", err)
		}
		caregivers = append(caregivers, c)
	}
	return caregivers, rows.Err()
}

// PrimaryCaregiver returns the primary caregiver, or the oldest one when
// none is marked primary. It returns nil when the user has none.
func (s *PostgresStore) PrimaryCaregiver(ctx context.Context, userID uuid.UUID) (*models.Caregiver, error) {
	c := &models.Caregiver{}
	err := scanCaregiver(s.pool.QueryRow(ctx,
		`SELECT c.id, c.settings_id, c.name, c.relationship, c.phone_number, c.email, c.is_primary, c.created_at
		 FROM caregivers c
		 JOIN settings s ON s.id = c.settings_id
		 WHERE s.user_id = $1
		 ORDER BY c.is_primary DESC, c.created_at
		 LIMIT 1`, userID), c)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("primary caregiver: %w", err)
	}
	return c, nil
}

// CreateCaregiver attaches a caregiver to the user's settings. Marking it
// primary clears the flag on the others in the same transaction.
func (s *PostgresStore) CreateCaregiver(ctx context.Context, userID uuid.UUID, c *models.Caregiver) error {
	c.ID = uuid.New()
	return s.withTx(ctx, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx,
			`SELECT id FROM settings WHERE user_id = $1`, userID).Scan(&c.SettingsID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("lookup settings: %w", err)
		}

		if c.IsPrimary {
			if err := clearPrimary(ctx, tx, c.SettingsID); err != nil {
				return err
			}
		}

		err := tx.QueryRow(ctx,
			`INSERT INTO caregivers (id, settings_id, name, relationship, phone_number, email, is_primary)
			 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING created_at`,
			c.ID, c.SettingsID, c.Name, c.Relationship, c.Phone, c.Email, c.IsPrimary,
		).Scan(&c.CreatedAt)
		if err != nil {
			return fmt.Errorf("create caregiver: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) UpdateCaregiver(ctx context.Context, userID, id uuid.UUID, patch models.CaregiverPatch) (*models.Caregiver, error) {
	c := &models.Caregiver{}
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		var settingsID uuid.UUID
		err := tx.QueryRow(ctx,
			`SELECT c.settings_id FROM caregivers c
			 JOIN settings s ON s.id = c.settings_id
			 WHERE c.id = $1 AND s.user_id = $2
			 FOR UPDATE OF c`, id, userID).Scan(&settingsID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("lookup caregiver: %w", err)
		}

		if patch.IsPrimary != nil && *patch.IsPrimary {
			if err := clearPrimary(ctx, tx, settingsID); err != nil {
				return err
			}
		}

		err = scanCaregiver(tx.QueryRow(ctx,
			`UPDATE caregivers SET
				name = COALESCE($2, name),
				relationship = COALESCE($3, relationship),
				phone_number = COALESCE($4, phone_number),
				email = COALESCE($5, email),
				is_primary = COALESCE($6, is_primary)
			 WHERE id = $1
			 RETURNING `+caregiverColumns,
			id, patch.Name, patch.Relationship, patch.Phone, patch.Email, patch.IsPrimary), c)
		if err != nil {
			return fmt.Errorf("update caregiver: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *PostgresStore) DeleteCaregiver(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM caregivers
		 WHERE id = $1 AND settings_id IN (SELECT id FROM settings WHERE user_id = $2)`, id, userID)
	if err != nil {
		return fmt.Errorf("delete caregiver: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func clearPrimary(ctx context.Context, tx pgx.Tx, settingsID uuid.UUID) error {
	if _, err := tx.Exec(ctx,
		`UPDATE caregivers SET is_primary = FALSE WHERE settings_id = $1 AND is_primary`, settingsID); err != nil {
		return fmt.Errorf("clear primary caregiver: %w", err)
	}
	return nil
}
