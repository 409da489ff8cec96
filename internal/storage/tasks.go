package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/your-org/facelink/internal/models"
)

const taskColumns = `id, user_id, title, description, time_of_day, date, completed, reminder, created_at, updated_at`

func scanTask(row pgx.Row, t *models.Task) error {
	return row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.TimeOfDay, &t.Date,
		&t.Completed, &t.Reminder, &t.CreatedAt, &t.UpdatedAt)
}

func collectTasks(rows pgx.Rows) ([]models.Task, error) {
	defer rows.Close()
	var tasks []models.Task
	for rows.Next() {
		var t models.Task
		if err := scanTask(rows, &t); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *PostgresStore) CreateTask(ctx context.Context, t *models.Task) error {
	t.ID = uuid.New()
	err := s.pool.QueryRow(ctx,
		`INSERT INTO tasks (id, user_id, title, description, time_of_day, date, completed, reminder)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING created_at, updated_at`,
		t.ID, t.UserID, t.Title, t.Description, t.TimeOfDay, t.Date, t.Completed, t.Reminder,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetTask(ctx context.Context, userID, id uuid.UUID) (*models.Task, error) {
	t := &models.Task{}
	err := scanTask(s.pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND user_id = $2`, id, userID), t)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// ListTasksByDate returns the user's tasks for one calendar date ordered by time of day.
func (s *PostgresStore) ListTasksByDate(ctx context.Context, userID uuid.UUID, date time.Time) ([]models.Task, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE user_id = $1 AND date = $2
		 ORDER BY time_of_day, created_at`, userID, date)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return collectTasks(rows)
}

// ListUpcomingTasks returns incomplete tasks dated in [from, to], soonest first.
func (s *PostgresStore) ListUpcomingTasks(ctx context.Context, userID uuid.UUID, from, to time.Time, limit int) ([]models.Task, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE user_id = $1 AND date >= $2 AND date <= $3 AND NOT completed
		 ORDER BY date, time_of_day
		 LIMIT $4`, userID, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("list upcoming tasks: %w", err)
	}
	return collectTasks(rows)
}

// ListDueReminders returns incomplete reminder tasks across all users dated
// on date with fromTime <= time_of_day <= toTime.
func (s *PostgresStore) ListDueReminders(ctx context.Context, date time.Time, fromTime, toTime string) ([]models.Task, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE date = $1 AND time_of_day >= $2 AND time_of_day <= $3
		   AND reminder AND NOT completed
		 ORDER BY time_of_day`, date, fromTime, toTime)
	if err != nil {
		return nil, fmt.Errorf("list due reminders: %w", err)
	}
	return collectTasks(rows)
}

func (s *PostgresStore) UpdateTask(ctx context.Context, userID, id uuid.UUID, patch models.TaskPatch) (*models.Task, error) {
	t := &models.Task{}
	err := scanTask(s.pool.QueryRow(ctx,
		`UPDATE tasks SET
			title = COALESCE($3, title),
			description = COALESCE($4, description),
			time_of_day = COALESCE($5, time_of_day),
			date = COALESCE($6, date),
			completed = COALESCE($7, completed),
			reminder = COALESCE($8, reminder),
			updated_at = now()
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+taskColumns,
		id, userID, patch.Title, patch.Description, patch.TimeOfDay, patch.Date,
		patch.Completed, patch.Reminder), t)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update task: %w", err)
	}
	return t, nil
}

// ToggleTask flips the completed flag atomically.
func (s *PostgresStore) ToggleTask(ctx context.Context, userID, id uuid.UUID) (*models.Task, error) {
	t := &models.Task{}
	err := scanTask(s.pool.QueryRow(ctx,
		`UPDATE tasks SET completed = NOT completed, updated_at = now()
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+taskColumns, id, userID), t)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("toggle task: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) DeleteTask(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
