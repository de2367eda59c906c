package http

import (
	"net/http"

	"github.com/jaekwang-park/task-api/internal/http/handler"
	"github.com/jaekwang-park/task-api/internal/service"
)

// Deps carries what the routes need.
type Deps struct {
	Auth     *service.AuthService
	Users    *service.UserService
	Queries  *service.TaskQueryService
	Commands *service.TaskCommandService
	DB       handler.DBPinger
	Cache    handler.CacheChecker
}

func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	// Health checks stay outside /api/v1 for load balancer checks
	health := handler.NewHealthHandler(d.DB, d.Cache, d.Users)
	mux.Handle("/health", health)
	mux.Handle("/ping", health)

	mux.Handle("/api/v1/auth/", handler.NewAuthHandler(d.Auth, d.Users))

	users := handler.NewUserHandler(d.Users, d.Queries)
	mux.Handle("/api/v1/users", users)
	mux.Handle("/api/v1/users/", users)

	tasks := handler.NewTaskHandler(d.Queries, d.Commands)
	mux.Handle("/api/v1/tasks", tasks)
	mux.Handle("/api/v1/tasks/", tasks)

	return mux
}
