package http_test

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jaekwang-park/task-api/internal/model"
	"github.com/jaekwang-park/task-api/internal/repository"
)

// memStore backs both repositories in memory for router tests.
type memStore struct {
	mu     sync.Mutex
	users  map[uuid.UUID]model.User
	hashes map[uuid.UUID]string
	tasks  []model.Task
}

func newMemStore() *memStore {
	return &memStore{users: map[uuid.UUID]model.User{}, hashes: map[uuid.UUID]string{}}
}

type memUsers struct{ s *memStore }

func (m memUsers) Create(_ context.Context, u model.User, hash string) (model.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, existing := range m.s.users {
		if existing.Email == u.Email {
			return model.User{}, fmt.Errorf("%w: users_email_key", repository.ErrDuplicate)
		}
	}
	u.ID = uuid.New()
	u.CreatedAt, u.UpdatedAt = time.Now().UTC(), time.Now().UTC()
	m.s.users[u.ID] = u
	m.s.hashes[u.ID] = hash
	return u, nil
}

func (m memUsers) GetByID(_ context.Context, id uuid.UUID) (model.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u, ok := m.s.users[id]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (m memUsers) GetCredentialsByEmail(_ context.Context, email string) (model.User, string, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for id, u := range m.s.users {
		if u.Email == email {
			return u, m.s.hashes[id], nil
		}
	}
	return model.User{}, "", sql.ErrNoRows
}

func (m memUsers) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := m.GetByID(ctx, id)
	return err == nil, nil
}

func (m memUsers) EmailExists(ctx context.Context, email string) (bool, error) {
	_, _, err := m.GetCredentialsByEmail(ctx, email)
	return err == nil, nil
}

func (m memUsers) Count(context.Context) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return int64(len(m.s.users)), nil
}

type memTasks struct{ s *memStore }

func (m memTasks) Create(_ context.Context, t model.Task) (model.Task, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	t.ID = uuid.New()
	t.CreatedAt, t.UpdatedAt = time.Now().UTC(), time.Now().UTC()
	m.s.tasks = append(m.s.tasks, t)
	return t, nil
}

func (m memTasks) GetByID(_ context.Context, id uuid.UUID) (model.Task, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, t := range m.s.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return model.Task{}, sql.ErrNoRows
}

func (m memTasks) ListByUser(_ context.Context, userID uuid.UUID) ([]model.Task, error) {
	return m.where(func(t model.Task) bool { return t.UserID == userID }), nil
}

func (m memTasks) ListAll(context.Context) ([]model.Task, error) {
	return m.where(func(model.Task) bool { return true }), nil
}

func (m memTasks) ListPaginated(_ context.Context, f model.TaskFilters, p model.PaginationParams) ([]model.Task, int64, error) {
	all := m.where(func(t model.Task) bool {
		return (f.UserID == nil || t.UserID == *f.UserID) && (f.Status == nil || t.Status == *f.Status)
	})
	start := min(p.Offset(), len(all))
	end := min(start+p.Limit, len(all))
	return all[start:end], int64(len(all)), nil
}

func (m memTasks) SlugExists(_ context.Context, slug string) (bool, error) {
	return len(m.where(func(t model.Task) bool { return t.Slug == slug })) > 0, nil
}

func (m memTasks) UpdateStatus(_ context.Context, id uuid.UUID, status model.TaskStatus) (model.Task, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for i := range m.s.tasks {
		if m.s.tasks[i].ID == id {
			m.s.tasks[i].Status = status
			return m.s.tasks[i], nil
		}
	}
	return model.Task{}, sql.ErrNoRows
}

func (m memTasks) Delete(_ context.Context, id uuid.UUID) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for i := range m.s.tasks {
		if m.s.tasks[i].ID == id {
			m.s.tasks = append(m.s.tasks[:i], m.s.tasks[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m memTasks) where(keep func(model.Task) bool) []model.Task {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.Task
	for _, t := range m.s.tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

type okPinger struct{}

func (okPinger) PingContext(context.Context) error { return nil }
