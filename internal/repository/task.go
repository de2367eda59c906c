package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/jaekwang-park/task-api/internal/model"
)

// TaskRepository is the task store. Lookups that find nothing return an
// error wrapping sql.ErrNoRows; Create returns ErrDuplicate for a taken slug.
type TaskRepository interface {
	Create(ctx context.Context, task model.Task) (model.Task, error)
	GetByID(ctx context.Context, id uuid.UUID) (model.Task, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Task, error)
	ListAll(ctx context.Context) ([]model.Task, error)
	ListPaginated(ctx context.Context, filters model.TaskFilters, page model.PaginationParams) ([]model.Task, int64, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.TaskStatus) (model.Task, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
