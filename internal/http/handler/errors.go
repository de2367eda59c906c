package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jaekwang-park/task-api/internal/auth"
	"github.com/jaekwang-park/task-api/internal/middleware"
	"github.com/jaekwang-park/task-api/internal/service"
)

// handleServiceError maps service error kinds to HTTP responses. Internal
// causes are logged and never sent to the client.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		WriteError(w, http.StatusBadRequest, "INVALID_CREDENTIALS", "Invalid email or password")
	case errors.Is(err, service.ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, "INVALID_INPUT", message(err, service.ErrInvalidInput))
	case errors.Is(err, service.ErrTaskNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "task not found")
	case errors.Is(err, service.ErrUserNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "user not found")
	case errors.Is(err, service.ErrNotFound):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
	case errors.Is(err, service.ErrEmailAlreadyExists):
		WriteError(w, http.StatusConflict, "EMAIL_ALREADY_EXISTS", "a user with this email already exists")
	case errors.Is(err, service.ErrConflict):
		WriteError(w, http.StatusConflict, "CONFLICT", "resource already exists")
	case errors.Is(err, service.ErrForbidden):
		WriteError(w, http.StatusForbidden, "FORBIDDEN", message(err, service.ErrForbidden))
	case errors.Is(err, service.ErrUnauthorized):
		WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
	default:
		slog.ErrorContext(r.Context(), "request failed",
			"request_id", middleware.GetRequestID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// message strips the kind prefix so clients see "title is required"
// rather than "invalid input: title is required".
func message(err, kind error) string {
	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, kind.Error()+": "); ok {
		return rest
	}
	return msg
}

// requireIdentity writes 401 and returns false when no authentication ran.
func requireIdentity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	id, ok := middleware.GetIdentity(r)
	if !ok {
		WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
	}
	return id, ok
}

func parseID(w http.ResponseWriter, raw, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid "+what+" id")
		return uuid.Nil, false
	}
	return id, true
}
