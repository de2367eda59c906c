package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/jaekwang-park/task-api/internal/cache"
	"github.com/jaekwang-park/task-api/internal/middleware"
)

const healthCheckTimeout = 2 * time.Second

type DBPinger interface {
	PingContext(ctx context.Context) error
}

type CacheChecker interface {
	Ping(ctx context.Context) error
	Stats() cache.Stats
}

type UserCounter interface {
	Count(ctx context.Context) (int64, error)
}

// HealthHandler serves /ping (liveness) and /health (dependencies).
// A failed cache is reported as degraded since reads fall through to the store.
type HealthHandler struct {
	db    DBPinger
	cache CacheChecker
	users UserCounter
}

func NewHealthHandler(db DBPinger, c CacheChecker, users UserCounter) *HealthHandler {
	return &HealthHandler{db: db, cache: c, users: users}
}

// componentStatus carries only up or down. Ping errors name hosts and
// ports, so they go to the log.
type componentStatus struct {
	Status string `json:"status"`
}

type healthResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components"`
	Users      *int64                     `json:"users,omitempty"`
	Cache      cache.Stats                `json:"cache"`
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "only GET is allowed")
		return
	}

	if r.URL.Path == "/ping" {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "pong"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	resp := healthResponse{
		Status:     "ok",
		Components: map[string]componentStatus{},
		Cache:      h.cache.Stats(),
	}
	status := http.StatusOK

	if err := h.db.PingContext(ctx); err != nil {
		logComponentDown(r, "database", err)
		resp.Components["database"] = componentStatus{Status: "down"}
		resp.Status = "down"
		status = http.StatusServiceUnavailable
	} else {
		resp.Components["database"] = componentStatus{Status: "up"}
		if n, err := h.users.Count(ctx); err == nil {
			resp.Users = &n
		}
	}

	if err := h.cache.Ping(ctx); err != nil {
		logComponentDown(r, "cache", err)
		resp.Components["cache"] = componentStatus{Status: "down"}
		if resp.Status == "ok" {
			resp.Status = "degraded"
		}
	} else {
		resp.Components["cache"] = componentStatus{Status: "up"}
	}

	WriteJSON(w, status, resp)
}

func logComponentDown(r *http.Request, component string, err error) {
	slog.WarnContext(r.Context(), "health check failed",
		"request_id", middleware.GetRequestID(r.Context()),
		"component", component,
		"error", err,
	)
}
