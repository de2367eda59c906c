package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/jaekwang-park/task-api/internal/auth"
	"github.com/jaekwang-park/task-api/internal/cache"
	"github.com/jaekwang-park/task-api/internal/model"
	"github.com/jaekwang-park/task-api/internal/repository"
)

// TaskQueryService serves the read paths. Every method decides access
// before returning data and reads through the cache where a key exists.
type TaskQueryService struct {
	tasks repository.TaskRepository
	users repository.UserRepository
	cache *cache.Cache
}

func NewTaskQueryService(tasks repository.TaskRepository, users repository.UserRepository, c *cache.Cache) *TaskQueryService {
	return &TaskQueryService{tasks: tasks, users: users, cache: c}
}

// ListTasksInput selects the list variant: a non-nil Pagination yields a
// paginated list over Filters, otherwise a simple list for UserID (or all).
type ListTasksInput struct {
	UserID     *uuid.UUID
	Filters    model.TaskFilters
	Pagination *model.PaginationParams
}

// Get fetches first and then checks ownership, so a non-owner learns the
// task exists (ErrForbidden) while a missing id yields ErrTaskNotFound.
func (s *TaskQueryService) Get(ctx context.Context, actor auth.Identity, id uuid.UUID) (model.Task, error) {
	task, err := cache.GetOrLoad(ctx, s.cache, cache.TaskKey(id), func(ctx context.Context) (model.Task, error) {
		return s.tasks.GetByID(ctx, id)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, ErrTaskNotFound
		}
		return model.Task{}, internal("get task", err)
	}

	if !auth.CanAccess(actor, task.UserID, auth.ModeRead) {
		return model.Task{}, errForbidden("you can only view your own tasks")
	}
	return task, nil
}

func (s *TaskQueryService) ListMine(ctx context.Context, actor auth.Identity) ([]model.Task, error) {
	return s.ListByUser(ctx, actor, actor.ID)
}

func (s *TaskQueryService) ListByUser(ctx context.Context, actor auth.Identity, userID uuid.UUID) ([]model.Task, error) {
	if !auth.CanAccess(actor, userID, auth.ModeRead) {
		return nil, errForbidden("you can only view your own tasks")
	}

	tasks, err := cache.GetOrLoad(ctx, s.cache, cache.UserTasksKey(userID), func(ctx context.Context) ([]model.Task, error) {
		exists, err := s.users.Exists(ctx, userID)
		if err != nil {
			return nil, internal("check user", err)
		}
		if !exists {
			return nil, ErrUserNotFound
		}
		tasks, err := s.tasks.ListByUser(ctx, userID)
		if err != nil {
			return nil, internal("list user tasks", err)
		}
		return tasks, nil
	})
	if err != nil {
		return nil, err
	}
	return nonNil(tasks), nil
}

func (s *TaskQueryService) ListAll(ctx context.Context, actor auth.Identity) ([]model.Task, error) {
	if !auth.CanListAll(actor) {
		return nil, errForbidden("only administrators can view all tasks")
	}

	tasks, err := cache.GetOrLoad(ctx, s.cache, cache.AllTasksKey, func(ctx context.Context) ([]model.Task, error) {
		tasks, err := s.tasks.ListAll(ctx)
		if err != nil {
			return nil, internal("list all tasks", err)
		}
		return tasks, nil
	})
	if err != nil {
		return nil, err
	}
	return nonNil(tasks), nil
}

// Search runs the filtered, paginated listing. For non-admin callers the
// owner filter is always replaced with the caller's id.
func (s *TaskQueryService) Search(ctx context.Context, actor auth.Identity, filters model.TaskFilters, page model.PaginationParams) (model.TaskList, error) {
	if err := page.Validate(); err != nil {
		return model.TaskList{}, invalidInput(err.Error())
	}
	if filters.Status != nil && !filters.Status.IsValid() {
		return model.TaskList{}, invalidInput("status must be one of todo, in_progress, done")
	}
	if filters.CreatedAfter != nil && filters.CreatedBefore != nil && filters.CreatedAfter.After(*filters.CreatedBefore) {
		return model.TaskList{}, invalidInput("created_after must not be later than created_before")
	}

	if !actor.IsAdmin() {
		owner := actor.ID
		filters.UserID = &owner
	}

	tasks, total, err := s.tasks.ListPaginated(ctx, filters, page)
	if err != nil {
		return model.TaskList{}, internal("search tasks", err)
	}
	return model.NewPaginatedList(tasks, model.NewPaginationMeta(page, total)), nil
}

// List picks the result variant once, from whether pagination was requested.
func (s *TaskQueryService) List(ctx context.Context, actor auth.Identity, input ListTasksInput) (model.TaskList, error) {
	if input.Pagination != nil {
		filters := input.Filters
		filters.UserID = input.UserID
		return s.Search(ctx, actor, filters, *input.Pagination)
	}

	var (
		tasks []model.Task
		err   error
	)
	if input.UserID != nil {
		tasks, err = s.ListByUser(ctx, actor, *input.UserID)
	} else {
		tasks, err = s.ListAll(ctx, actor)
	}
	if err != nil {
		return model.TaskList{}, err
	}
	return model.NewSimpleList(tasks), nil
}

func nonNil(tasks []model.Task) []model.Task {
	if tasks == nil {
		return []model.Task{}
	}
	return tasks
}
