package service_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jaekwang-park/task-api/internal/auth"
	"github.com/jaekwang-park/task-api/internal/cache"
	"github.com/jaekwang-park/task-api/internal/model"
	"github.com/jaekwang-park/task-api/internal/repository"
)

var errUnexpectedCall = errors.New("unexpected call")

var now = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

var (
	annID   = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000001")
	bobID   = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000002")
	adminID = uuid.MustParse("aaaaaaaa-0000-0000-0000-0000000000ad")
	taskID  = uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000001")

	ann   = auth.Identity{ID: annID, Email: "ann@x.com", Role: model.RoleUser}
	bob   = auth.Identity{ID: bobID, Email: "bob@x.com", Role: model.RoleUser}
	admin = auth.Identity{ID: adminID, Email: "admin@x.com", Role: model.RoleAdmin}
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newCache() *cache.Cache {
	return cache.New(cache.NewMemoryStore(), cache.Options{}, discardLogger())
}

func sampleTask() model.Task {
	return model.Task{
		ID:        taskID,
		Title:     "Buy milk",
		Slug:      "buy-milk",
		Status:    model.TaskStatusTodo,
		UserID:    annID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// mockUserRepo implements repository.UserRepository for testing
type mockUserRepo struct {
	createFn      func(ctx context.Context, user model.User, hash string) (model.User, error)
	getByIDFn     func(ctx context.Context, id uuid.UUID) (model.User, error)
	credentialsFn func(ctx context.Context, email string) (model.User, string, error)
	existsFn      func(ctx context.Context, id uuid.UUID) (bool, error)
	emailExistsFn func(ctx context.Context, email string) (bool, error)
	countFn       func(ctx context.Context) (int64, error)
}

func (m *mockUserRepo) Create(ctx context.Context, user model.User, hash string) (model.User, error) {
	if m.createFn == nil {
		return model.User{}, errUnexpectedCall
	}
	return m.createFn(ctx, user, hash)
}
func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	if m.getByIDFn == nil {
		return model.User{}, errUnexpectedCall
	}
	return m.getByIDFn(ctx, id)
}
func (m *mockUserRepo) GetCredentialsByEmail(ctx context.Context, email string) (model.User, string, error) {
	if m.credentialsFn == nil {
		return model.User{}, "", errUnexpectedCall
	}
	return m.credentialsFn(ctx, email)
}
func (m *mockUserRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	if m.existsFn == nil {
		return true, nil
	}
	return m.existsFn(ctx, id)
}
func (m *mockUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	if m.emailExistsFn == nil {
		return false, nil
	}
	return m.emailExistsFn(ctx, email)
}
func (m *mockUserRepo) Count(ctx context.Context) (int64, error) {
	if m.countFn == nil {
		return 0, errUnexpectedCall
	}
	return m.countFn(ctx)
}

// mockTaskRepo implements repository.TaskRepository for testing
type mockTaskRepo struct {
	createFn        func(ctx context.Context, task model.Task) (model.Task, error)
	getByIDFn       func(ctx context.Context, id uuid.UUID) (model.Task, error)
	listByUserFn    func(ctx context.Context, userID uuid.UUID) ([]model.Task, error)
	listAllFn       func(ctx context.Context) ([]model.Task, error)
	listPaginatedFn func(ctx context.Context, f model.TaskFilters, p model.PaginationParams) ([]model.Task, int64, error)
	slugExistsFn    func(ctx context.Context, slug string) (bool, error)
	updateStatusFn  func(ctx context.Context, id uuid.UUID, status model.TaskStatus) (model.Task, error)
	deleteFn        func(ctx context.Context, id uuid.UUID) error
}

func (m *mockTaskRepo) Create(ctx context.Context, task model.Task) (model.Task, error) {
	if m.createFn == nil {
		return model.Task{}, errUnexpectedCall
	}
	return m.createFn(ctx, task)
}
func (m *mockTaskRepo) GetByID(ctx context.Context, id uuid.UUID) (model.Task, error) {
	if m.getByIDFn == nil {
		return model.Task{}, errUnexpectedCall
	}
	return m.getByIDFn(ctx, id)
}
func (m *mockTaskRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Task, error) {
	if m.listByUserFn == nil {
		return nil, errUnexpectedCall
	}
	return m.listByUserFn(ctx, userID)
}
func (m *mockTaskRepo) ListAll(ctx context.Context) ([]model.Task, error) {
	if m.listAllFn == nil {
		return nil, errUnexpectedCall
	}
	return m.listAllFn(ctx)
}
func (m *mockTaskRepo) ListPaginated(ctx context.Context, f model.TaskFilters, p model.PaginationParams) ([]model.Task, int64, error) {
	if m.listPaginatedFn == nil {
		return nil, 0, errUnexpectedCall
	}
	return m.listPaginatedFn(ctx, f, p)
}
func (m *mockTaskRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	if m.slugExistsFn == nil {
		return false, nil
	}
	return m.slugExistsFn(ctx, slug)
}
func (m *mockTaskRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.TaskStatus) (model.Task, error) {
	if m.updateStatusFn == nil {
		return model.Task{}, errUnexpectedCall
	}
	return m.updateStatusFn(ctx, id, status)
}
func (m *mockTaskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteFn == nil {
		return errUnexpectedCall
	}
	return m.deleteFn(ctx, id)
}

// fakeHasher avoids bcrypt cost in tests.
type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }
func (fakeHasher) Verify(password, hash string) (bool, error) {
	return hash == "hashed:"+password, nil
}

// memUsers and memTasks are minimal in-memory stores for end-to-end flows.
type memUsers struct {
	mu     sync.Mutex
	byID   map[uuid.UUID]model.User
	hashes map[uuid.UUID]string
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[uuid.UUID]model.User{}, hashes: map[uuid.UUID]string{}}
}

func (m *memUsers) Create(ctx context.Context, user model.User, hash string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == user.Email {
			return model.User{}, fmt.Errorf("%w: users_email_key", repository.ErrDuplicate)
		}
	}
	user.ID = uuid.New()
	user.CreatedAt, user.UpdatedAt = now, now
	m.byID[user.ID] = user
	m.hashes[user.ID] = hash
	return user, nil
}
func (m *memUsers) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return model.User{}, fmt.Errorf("failed to scan user: %w", sql.ErrNoRows)
	}
	return u, nil
}
func (m *memUsers) GetCredentialsByEmail(ctx context.Context, email string) (model.User, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, u := range m.byID {
		if u.Email == email {
			return u, m.hashes[id], nil
		}
	}
	return model.User{}, "", sql.ErrNoRows
}
func (m *memUsers) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.byID[id]
	return ok, nil
}
func (m *memUsers) EmailExists(ctx context.Context, email string) (bool, error) {
	_, _, err := m.GetCredentialsByEmail(ctx, email)
	return err == nil, nil
}
func (m *memUsers) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.byID)), nil
}

type memTasks struct {
	mu    sync.Mutex
	tasks []model.Task
}

func (m *memTasks) Create(ctx context.Context, task model.Task) (model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tasks {
		if t.Slug == task.Slug {
			return model.Task{}, fmt.Errorf("%w: tasks_slug_key", repository.ErrDuplicate)
		}
	}
	task.ID = uuid.New()
	task.CreatedAt, task.UpdatedAt = now, now
	m.tasks = append(m.tasks, task)
	return task, nil
}
func (m *memTasks) GetByID(ctx context.Context, id uuid.UUID) (model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return model.Task{}, sql.ErrNoRows
}
func (m *memTasks) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Task, error) {
	return m.filter(func(t model.Task) bool { return t.UserID == userID }), nil
}
func (m *memTasks) ListAll(ctx context.Context) ([]model.Task, error) {
	return m.filter(func(model.Task) bool { return true }), nil
}
func (m *memTasks) ListPaginated(ctx context.Context, f model.TaskFilters, p model.PaginationParams) ([]model.Task, int64, error) {
	all := m.filter(func(t model.Task) bool {
		if f.UserID != nil && t.UserID != *f.UserID {
			return false
		}
		if f.Status != nil && t.Status != *f.Status {
			return false
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(f.Search)) {
			return false
		}
		return true
	})
	total := int64(len(all))
	start := p.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + p.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}
func (m *memTasks) SlugExists(ctx context.Context, slug string) (bool, error) {
	return len(m.filter(func(t model.Task) bool { return t.Slug == slug })) > 0, nil
}
func (m *memTasks) UpdateStatus(ctx context.Context, id uuid.UUID, status model.TaskStatus) (model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tasks {
		if m.tasks[i].ID == id {
			m.tasks[i].Status = status
			return m.tasks[i], nil
		}
	}
	return model.Task{}, sql.ErrNoRows
}
func (m *memTasks) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tasks {
		if m.tasks[i].ID == id {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}
func (m *memTasks) filter(keep func(model.Task) bool) []model.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Task{}
	for _, t := range m.tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

var (
	_ repository.UserRepository = (*mockUserRepo)(nil)
	_ repository.TaskRepository = (*mockTaskRepo)(nil)
	_ repository.UserRepository = (*memUsers)(nil)
	_ repository.TaskRepository = (*memTasks)(nil)
)

func identityFor(who string) auth.Identity {
	switch who {
	case "admin":
		return admin
	case "bob":
		return bob
	default:
		return ann
	}
}
