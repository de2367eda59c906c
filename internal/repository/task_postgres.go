package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jaekwang-park/task-api/internal/model"
)

const taskColumns = `id, title, description, slug, status, user_id, created_at, updated_at`

type PostgresTaskRepository struct {
	db      *sql.DB
	timeout time.Duration
}

func NewPostgresTask(db *sql.DB, timeout time.Duration) *PostgresTaskRepository {
	return &PostgresTaskRepository{db: db, timeout: timeout}
}

func (r *PostgresTaskRepository) Create(ctx context.Context, task model.Task) (model.Task, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO tasks (title, description, slug, status, user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + taskColumns

	row := r.db.QueryRowContext(ctx, query,
		task.Title, task.Description, task.Slug, task.Status, task.UserID,
	)
	created, err := scanTask(row)
	if err != nil {
		return model.Task{}, mapWriteError(err)
	}
	return created, nil
}

func (r *PostgresTaskRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Task, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	return scanTask(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresTaskRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	return r.list(ctx, query, userID)
}

func (r *PostgresTaskRepository) ListAll(ctx context.Context) ([]model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks ORDER BY created_at DESC, id DESC`
	return r.list(ctx, query)
}

func (r *PostgresTaskRepository) ListPaginated(ctx context.Context, filters model.TaskFilters, page model.PaginationParams) ([]model.Task, int64, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	q := buildTaskFilter(filters)

	var total int64
	if err := r.db.QueryRowContext(ctx, q.countSQL(), q.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	query, args := q.pageSQL(page)
	tasks, err := r.list(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

func (r *PostgresTaskRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM tasks WHERE slug = $1)`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return exists, nil
}

func (r *PostgresTaskRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.TaskStatus) (model.Task, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		UPDATE tasks
		SET status = $1, updated_at = now()
		WHERE id = $2
		RETURNING ` + taskColumns

	return scanTask(r.db.QueryRowContext(ctx, query, status, id))
}

func (r *PostgresTaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *PostgresTaskRepository) list(ctx context.Context, query string, args ...any) ([]model.Task, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}
	return tasks, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanTask(row scannable) (model.Task, error) {
	var t model.Task
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Slug,
		&t.Status, &t.UserID, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return model.Task{}, fmt.Errorf("failed to scan task: %w", err)
	}
	return t, nil
}

var _ TaskRepository = (*PostgresTaskRepository)(nil)
