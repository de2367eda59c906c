package handler_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jaekwang-park/task-api/internal/auth"
	"github.com/jaekwang-park/task-api/internal/cache"
	"github.com/jaekwang-park/task-api/internal/http/handler"
	"github.com/jaekwang-park/task-api/internal/middleware"
	"github.com/jaekwang-park/task-api/internal/model"
	"github.com/jaekwang-park/task-api/internal/service"
	"github.com/jaekwang-park/task-api/internal/slug"
)

var now = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

var (
	annID  = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000001")
	bobID  = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000002")
	taskID = uuid.MustParse("bbbbbbbb-0000-0000-0000-000000000001")

	ann   = auth.Identity{ID: annID, Email: "ann@x.com", Role: model.RoleUser}
	bob   = auth.Identity{ID: bobID, Email: "bob@x.com", Role: model.RoleUser}
	admin = auth.Identity{ID: uuid.MustParse("aaaaaaaa-0000-0000-0000-0000000000ad"), Role: model.RoleAdmin}
)

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

func sampleUser() model.User {
	return model.User{ID: annID, Name: "Ann", Email: "ann@x.com", Role: model.RoleUser, CreatedAt: now, UpdatedAt: now}
}

// mockUserRepo for handler tests
type mockUserRepo struct {
	createFn      func(ctx context.Context, user model.User, hash string) (model.User, error)
	getByIDFn     func(ctx context.Context, id uuid.UUID) (model.User, error)
	credentialsFn func(ctx context.Context, email string) (model.User, string, error)
	emailExistsFn func(ctx context.Context, email string) (bool, error)
}

func (m *mockUserRepo) Create(ctx context.Context, user model.User, hash string) (model.User, error) {
	return m.createFn(ctx, user, hash)
}
func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	return m.getByIDFn(ctx, id)
}
func (m *mockUserRepo) GetCredentialsByEmail(ctx context.Context, email string) (model.User, string, error) {
	return m.credentialsFn(ctx, email)
}
func (m *mockUserRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return true, nil
}
func (m *mockUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	if m.emailExistsFn == nil {
		return false, nil
	}
	return m.emailExistsFn(ctx, email)
}
func (m *mockUserRepo) Count(ctx context.Context) (int64, error) {
	return 1, nil
}

// mockTaskRepo for handler tests
type mockTaskRepo struct {
	createFn        func(ctx context.Context, task model.Task) (model.Task, error)
	getByIDFn       func(ctx context.Context, id uuid.UUID) (model.Task, error)
	listByUserFn    func(ctx context.Context, userID uuid.UUID) ([]model.Task, error)
	listAllFn       func(ctx context.Context) ([]model.Task, error)
	listPaginatedFn func(ctx context.Context, f model.TaskFilters, p model.PaginationParams) ([]model.Task, int64, error)
	updateStatusFn  func(ctx context.Context, id uuid.UUID, status model.TaskStatus) (model.Task, error)
	deleteFn        func(ctx context.Context, id uuid.UUID) error
}

func (m *mockTaskRepo) Create(ctx context.Context, task model.Task) (model.Task, error) {
	return m.createFn(ctx, task)
}
func (m *mockTaskRepo) GetByID(ctx context.Context, id uuid.UUID) (model.Task, error) {
	return m.getByIDFn(ctx, id)
}
func (m *mockTaskRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Task, error) {
	return m.listByUserFn(ctx, userID)
}
func (m *mockTaskRepo) ListAll(ctx context.Context) ([]model.Task, error) {
	return m.listAllFn(ctx)
}
func (m *mockTaskRepo) ListPaginated(ctx context.Context, f model.TaskFilters, p model.PaginationParams) ([]model.Task, int64, error) {
	return m.listPaginatedFn(ctx, f, p)
}
func (m *mockTaskRepo) SlugExists(ctx context.Context, s string) (bool, error) {
	return false, nil
}
func (m *mockTaskRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.TaskStatus) (model.Task, error) {
	return m.updateStatusFn(ctx, id, status)
}
func (m *mockTaskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFn(ctx, id)
}

func findTask(context.Context, uuid.UUID) (model.Task, error) { return sampleTask(), nil }

func missingTask(context.Context, uuid.UUID) (model.Task, error) {
	return model.Task{}, sql.ErrNoRows
}

type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }
func (fakeHasher) Verify(password, hash string) (bool, error) {
	return hash == "hashed:"+password, nil
}

func newAuthority(t *testing.T) *auth.Authority {
	t.Helper()
	a, err := auth.NewAuthority(auth.TokenConfig{
		Secret:   []byte("0123456789abcdef0123456789abcdef"),
		Issuer:   "note-task-api",
		Audience: "note-clients",
		TTL:      time.Hour,
	})
	if err != nil {
		t.Fatalf("failed to create authority: %v", err)
	}
	return a
}

func newCache() *cache.Cache {
	return cache.New(cache.NewMemoryStore(), cache.Options{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTaskHandler(tasks *mockTaskRepo) *handler.TaskHandler {
	users := &mockUserRepo{}
	c := newCache()
	slugs := slug.NewGeneratorWithSuffix(func() string { return "abc123" }, 5)
	return handler.NewTaskHandler(
		service.NewTaskQueryService(tasks, users, c),
		service.NewTaskCommandService(tasks, users, slugs, c),
	)
}

func newUserHandler(users *mockUserRepo, tasks *mockTaskRepo) *handler.UserHandler {
	return handler.NewUserHandler(
		service.NewUserService(users, fakeHasher{}),
		service.NewTaskQueryService(tasks, users, newCache()),
	)
}

func newAuthHandler(t *testing.T, users *mockUserRepo) *handler.AuthHandler {
	return handler.NewAuthHandler(
		service.NewAuthService(users, fakeHasher{}, newAuthority(t), slog.New(slog.NewTextHandler(io.Discard, nil))),
		service.NewUserService(users, fakeHasher{}),
	)
}

// serve sends a request as the given identity; a zero identity sends none.
func serve(h http.Handler, method, target, body string, as auth.Identity) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if as.ID != uuid.Nil {
		req = req.WithContext(middleware.SetIdentity(req.Context(), as))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) handler.ErrorResponse {
	t.Helper()
	var result handler.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode error response: %v (body: %s)", err, w.Body.String())
	}
	return result
}
