package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jaekwang-park/task-api/internal/auth"
	"github.com/jaekwang-park/task-api/internal/cache"
	"github.com/jaekwang-park/task-api/internal/model"
	"github.com/jaekwang-park/task-api/internal/repository"
	"github.com/jaekwang-park/task-api/internal/slug"
)

type SlugGenerator interface {
	Generate(ctx context.Context, title string, exists slug.ExistsFunc) (string, error)
}

// TaskCommandService serves the write paths and keeps the cache in step:
// aggregates of the owner are invalidated, the task key is refreshed or removed.
type TaskCommandService struct {
	tasks repository.TaskRepository
	users repository.UserRepository
	slugs SlugGenerator
	cache *cache.Cache
}

func NewTaskCommandService(tasks repository.TaskRepository, users repository.UserRepository, slugs SlugGenerator, c *cache.Cache) *TaskCommandService {
	return &TaskCommandService{tasks: tasks, users: users, slugs: slugs, cache: c}
}

type CreateTaskInput struct {
	Title       string
	Description *string
}

func (s *TaskCommandService) Create(ctx context.Context, owner uuid.UUID, input CreateTaskInput) (model.Task, error) {
	if err := validateTaskFields(input.Title, input.Description); err != nil {
		return model.Task{}, err
	}

	exists, err := s.users.Exists(ctx, owner)
	if err != nil {
		return model.Task{}, internal("check owner", err)
	}
	if !exists {
		return model.Task{}, ErrUserNotFound
	}

	title := strings.TrimSpace(input.Title)
	taskSlug, err := s.slugs.Generate(ctx, title, s.tasks.SlugExists)
	if err != nil {
		return model.Task{}, internal("generate slug", err)
	}

	created, err := s.tasks.Create(ctx, model.Task{
		Title:       title,
		Description: input.Description,
		Slug:        taskSlug,
		Status:      model.TaskStatusTodo,
		UserID:      owner,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.Task{}, fmt.Errorf("%w: slug %q was taken concurrently", ErrConflict, taskSlug)
		}
		return model.Task{}, internal("create task", err)
	}

	s.cache.Invalidate(ctx, aggregateKeys(owner)...)
	s.cache.Set(ctx, cache.TaskKey(created.ID), created)
	return created, nil
}

func (s *TaskCommandService) UpdateStatus(ctx context.Context, actor auth.Identity, id uuid.UUID, status model.TaskStatus) (model.Task, error) {
	if !status.IsValid() {
		return model.Task{}, invalidInput("status must be one of todo, in_progress, done")
	}

	if _, err := s.authorizeWrite(ctx, actor, id); err != nil {
		return model.Task{}, err
	}

	updated, err := s.tasks.UpdateStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, ErrTaskNotFound
		}
		return model.Task{}, internal("update task status", err)
	}

	s.cache.Invalidate(ctx, aggregateKeys(updated.UserID)...)
	s.cache.Set(ctx, cache.TaskKey(updated.ID), updated)
	return updated, nil
}

func (s *TaskCommandService) Delete(ctx context.Context, actor auth.Identity, id uuid.UUID) error {
	task, err := s.authorizeWrite(ctx, actor, id)
	if err != nil {
		return err
	}

	if err := s.tasks.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTaskNotFound
		}
		return internal("delete task", err)
	}

	s.cache.Invalidate(ctx, append(aggregateKeys(task.UserID), cache.TaskKey(id))...)
	return nil
}

// authorizeWrite reads the task from the store, not the cache.
func (s *TaskCommandService) authorizeWrite(ctx context.Context, actor auth.Identity, id uuid.UUID) (model.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, ErrTaskNotFound
		}
		return model.Task{}, internal("get task", err)
	}
	if !auth.CanAccess(actor, task.UserID, auth.ModeWrite) {
		return model.Task{}, errForbidden("you can only modify your own tasks")
	}
	return task, nil
}

func aggregateKeys(owner uuid.UUID) []string {
	return []string{cache.AllTasksKey, cache.UserTasksKey(owner)}
}
