package handler

import (
	"net/http"
	"strings"

	"github.com/jaekwang-park/task-api/internal/model"
	"github.com/jaekwang-park/task-api/internal/service"
)

// UserHandler serves /api/v1/users, /api/v1/users/{id} and /api/v1/users/{id}/tasks.
type UserHandler struct {
	users *service.UserService
	tasks *service.TaskQueryService
}

func NewUserHandler(users *service.UserService, tasks *service.TaskQueryService) *UserHandler {
	return &UserHandler{users: users, tasks: tasks}
}

func (h *UserHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/users")
	path = strings.Trim(path, "/")

	parts := strings.SplitN(path, "/", 2)
	rawID := parts[0]
	subPath := ""
	if len(parts) > 1 {
		subPath = parts[1]
	}

	switch {
	case rawID == "":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		h.handleCreate(w, r)
	case subPath == "":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		h.handleGet(w, r, rawID)
	case subPath == "tasks":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		h.handleListTasks(w, r, rawID)
	default:
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "endpoint not found")
	}
}

type createUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (h *UserHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req createUserRequest
	if !readJSON(w, r, &req) {
		return
	}

	user, err := h.users.Create(r.Context(), actor, service.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusCreated, user)
}

func (h *UserHandler) handleGet(w http.ResponseWriter, r *http.Request, rawID string) {
	actor, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, rawID, "user")
	if !ok {
		return
	}

	user, err := h.users.Get(r.Context(), actor, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, user)
}

func (h *UserHandler) handleListTasks(w http.ResponseWriter, r *http.Request, rawID string) {
	actor, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, rawID, "user")
	if !ok {
		return
	}

	tasks, err := h.tasks.ListByUser(r.Context(), actor, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, model.NewSimpleList(tasks))
}
