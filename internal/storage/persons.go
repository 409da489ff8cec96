package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/your-org/facelink/internal/models"
)

const personColumns = `id, user_id, name, relationship, reminder, photo_key, face_embedding IS NOT NULL, created_at, updated_at`

func scanPerson(row pgx.Row, p *models.Person) error {
	return row.Scan(&p.ID, &p.UserID, &p.Name, &p.Relationship, &p.Reminder,
		&p.PhotoKey, &p.HasFace, &p.CreatedAt, &p.UpdatedAt)
}

func (s *PostgresStore) CreatePerson(ctx context.Context, p *models.Person) error {
	p.ID = uuid.New()
	err := s.pool.QueryRow(ctx,
		`INSERT INTO persons (id, user_id, name, relationship, reminder)
		 VALUES ($1, $2, $3, $4, $5) RETURNING created_at, updated_at`,
		p.ID, p.UserID, p.Name, p.Relationship, p.Reminder,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create person: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPerson(ctx context.Context, userID, id uuid.UUID) (*models.Person, error) {
	p := &models.Person{}
	err := scanPerson(s.pool.QueryRow(ctx,
		`SELECT `+personColumns+` FROM persons WHERE id = $1 AND user_id = $2`, id, userID), p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get person: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) ListPersons(ctx context.Context, userID uuid.UUID) ([]models.Person, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+personColumns+` FROM persons WHERE user_id = $1 ORDER BY name, created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list persons: %w", err)
	}
	defer rows.Close()

	var persons []models.Person
	for rows.Next() {
		var p models.Person
		if err := scanPerson(rows, &p); err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		persons = append(persons, p)
	}
	return persons, rows.Err()
}

// UpdatePerson applies a partial update in a single statement.
func (s *PostgresStore) UpdatePerson(ctx context.Context, userID, id uuid.UUID, patch models.PersonPatch) (*models.Person, error) {
	p := &models.Person{}
	err := scanPerson(s.pool.QueryRow(ctx,
		`UPDATE persons SET
			name = COALESCE($3, name),
			relationship = COALESCE($4, relationship),
			reminder = COALESCE($5, reminder),
			updated_at = now()
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+personColumns,
		id, userID, patch.Name, patch.Relationship, patch.Reminder), p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update person: %w", err)
	}
	return p, nil
}

// SetPersonPhoto stores a new photo key and face embedding and returns the
// key of the photo it replaced, if any.
func (s *PostgresStore) SetPersonPhoto(ctx context.Context, userID, id uuid.UUID, photoKey string, embedding []float32) (string, error) {
	var previous string
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`SELECT photo_key FROM persons WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, userID,
		).Scan(&previous)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("lock person: %w", err)
		}

		_, err = tx.Exec(ctx,
			`UPDATE persons SET photo_key = $3, face_embedding = $4, updated_at = now()
			 WHERE id = $1 AND user_id = $2`,
			id, userID, photoKey, pgvector.NewVector(embedding))
		if err != nil {
			return fmt.Errorf("set person photo: %w", err)
		}
		return nil
	})
	return previous, err
}

// DeletePerson removes the person and returns its photo key. Timeline events
// referencing the person are kept with a null person_id by the foreign key.
func (s *PostgresStore) DeletePerson(ctx context.Context, userID, id uuid.UUID) (string, error) {
	var photoKey string
	err := s.pool.QueryRow(ctx,
		`DELETE FROM persons WHERE id = $1 AND user_id = $2 RETURNING photo_key`, id, userID,
	).Scan(&photoKey)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("delete person: %w", err)
	}
	return photoKey, nil
}

// ListDescriptors returns the user's people that have a face embedding,
// with the embedding loaded.
func (s *PostgresStore) ListDescriptors(ctx context.Context, userID uuid.UUID) ([]models.Person, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, name, relationship, face_embedding
		 FROM persons WHERE user_id = $1 AND face_embedding IS NOT NULL ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list descriptors: %w", err)
	}
	defer rows.Close()

	var persons []models.Person
	for rows.Next() {
		var p models.Person
		var vec pgvector.Vector
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Relationship, &vec); err != nil {
			return nil, fmt.Errorf("scan descriptor: %w", err)
		}
		p.Embedding = vec.Slice()
		p.HasFace = true
		persons = append(persons, p)
	}
	return persons, rows.Err()
}

// NearestPerson returns the user's person whose embedding is closest to the
// given one by cosine distance, with its similarity score. It returns nil
// when the user has no embeddings stored.
func (s *PostgresStore) NearestPerson(ctx context.Context, userID uuid.UUID, embedding []float32) (*models.Person, float32, error) {
	vec := pgvector.NewVector(embedding)

	p := &models.Person{}
	var score float32
	err := s.pool.QueryRow(ctx,
		`SELECT `+personColumns+`, 1 - (face_embedding <=> $2) AS score
		 FROM persons
		 WHERE user_id = $1 AND face_embedding IS NOT NULL
		 ORDER BY face_embedding <=> $2
		 LIMIT 1`, userID, vec,
	).Scan(&p.ID, &p.UserID, &p.Name, &p.Relationship, &p.Reminder,
		&p.PhotoKey, &p.HasFace, &p.CreatedAt, &p.UpdatedAt, &score)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("nearest person: %w", err)
	}
	return p, score, nil
}
