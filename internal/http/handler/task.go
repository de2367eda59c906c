package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jaekwang-park/task-api/internal/model"
	"github.com/jaekwang-park/task-api/internal/service"
)

// paginationKeys switch GET /api/v1/tasks into the paginated variant.
var paginationKeys = []string{
	"page", "limit", "sort_by", "sort_direction",
	"status", "created_after", "created_before", "search",
}

type TaskHandler struct {
	queries  *service.TaskQueryService
	commands *service.TaskCommandService
}

func NewTaskHandler(queries *service.TaskQueryService, commands *service.TaskCommandService) *TaskHandler {
	return &TaskHandler{queries: queries, commands: commands}
}

// ServeHTTP routes /api/v1/tasks, /api/v1/tasks/mine and /api/v1/tasks/{id}[/status].
func (h *TaskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/tasks")
	path = strings.Trim(path, "/")

	parts := strings.SplitN(path, "/", 2)
	rawID := parts[0]
	subPath := ""
	if len(parts) > 1 {
		subPath = parts[1]
	}

	// /api/v1/tasks/mine
	if rawID == "mine" && subPath == "" {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		h.handleListMine(w, r)
		return
	}

	// /api/v1/tasks/{id}/status
	if rawID != "" && subPath == "status" {
		if r.Method != http.MethodPatch {
			methodNotAllowed(w)
			return
		}
		h.handleUpdateStatus(w, r, rawID)
		return
	}

	if subPath != "" {
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "endpoint not found")
		return
	}

	// /api/v1/tasks/{id}
	if rawID != "" {
		switch r.Method {
		case http.MethodGet:
			h.handleGet(w, r, rawID)
		case http.MethodDelete:
			h.handleDelete(w, r, rawID)
		default:
			methodNotAllowed(w)
		}
		return
	}

	// /api/v1/tasks
	switch r.Method {
	case http.MethodGet:
		h.handleList(w, r)
	case http.MethodPost:
		h.handleCreate(w, r)
	default:
		methodNotAllowed(w)
	}
}

type createTaskRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
}

func (h *TaskHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req createTaskRequest
	if !readJSON(w, r, &req) {
		return
	}

	task, err := h.commands.Create(r.Context(), actor.ID, service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) handleGet(w http.ResponseWriter, r *http.Request, rawID string) {
	actor, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, rawID, "task")
	if !ok {
		return
	}

	task, err := h.queries.Get(r.Context(), actor, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, task)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *TaskHandler) handleUpdateStatus(w http.ResponseWriter, r *http.Request, rawID string) {
	actor, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, rawID, "task")
	if !ok {
		return
	}

	var req updateStatusRequest
	if !readJSON(w, r, &req) {
		return
	}

	task, err := h.commands.UpdateStatus(r.Context(), actor, id, model.TaskStatus(req.Status))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) handleDelete(w http.ResponseWriter, r *http.Request, rawID string) {
	actor, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, rawID, "task")
	if !ok {
		return
	}

	if err := h.commands.Delete(r.Context(), actor, id); err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) handleListMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	tasks, err := h.queries.ListMine(r.Context(), actor)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, model.NewSimpleList(tasks))
}

func (h *TaskHandler) handleList(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	input, err := parseListInput(r.URL.Query())
	if err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}

	list, err := h.queries.List(r.Context(), actor, input)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, list)
}

// parseListInput only checks syntax; ranges are enforced by the service.
func parseListInput(q url.Values) (service.ListTasksInput, error) {
	var input service.ListTasksInput

	if raw := q.Get("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return input, fmt.Errorf("user_id must be a UUID")
		}
		input.UserID = &id
	}

	paginated := false
	for _, k := range paginationKeys {
		if q.Has(k) {
			paginated = true
			break
		}
	}
	if !paginated {
		return input, nil
	}

	page := model.DefaultPagination()
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return input, fmt.Errorf("page must be an integer")
		}
		page.Page = n
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return input, fmt.Errorf("limit must be an integer")
		}
		page.Limit = n
	}
	if raw := q.Get("sort_by"); raw != "" {
		page.SortBy = model.SortField(raw)
	}
	if raw := q.Get("sort_direction"); raw != "" {
		page.SortDirection = model.SortDirection(strings.ToLower(raw))
	}
	input.Pagination = &page

	if raw := q.Get("status"); raw != "" {
		status := model.TaskStatus(raw)
		input.Filters.Status = &status
	}
	if raw := q.Get("created_after"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return input, fmt.Errorf("created_after must be an RFC 3339 timestamp")
		}
		input.Filters.CreatedAfter = &t
	}
	if raw := q.Get("created_before"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return input, fmt.Errorf("created_before must be an RFC 3339 timestamp")
		}
		input.Filters.CreatedBefore = &t
	}
	input.Filters.Search = strings.TrimSpace(q.Get("search"))

	return input, nil
}
