package middleware

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/jaekwang-park/task-api/internal/auth"
	"github.com/jaekwang-park/task-api/internal/model"
)

// TokenVerifier turns a bearer token into the caller's identity.
type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

// publicPaths are served without credentials.
var publicPaths = map[string]bool{
	"/health":               true,
	"/ping":                 true,
	"/api/v1/auth/register": true,
	"/api/v1/auth/login":    true,
}

type AuthConfig struct {
	DevMode  bool
	Verifier TokenVerifier
	Logger   *slog.Logger
}

type Auth struct {
	cfg AuthConfig
}

func NewAuth(cfg AuthConfig) (*Auth, error) {
	if !cfg.DevMode && cfg.Verifier == nil {
		return nil, fmt.Errorf("middleware: Verifier is required when DevMode is false")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Auth{cfg: cfg}, nil
}

func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if publicPaths[path.Clean(r.URL.Path)] {
			next.ServeHTTP(w, r)
			return
		}

		if a.cfg.DevMode {
			a.handleDevMode(w, r, next)
			return
		}

		a.handleBearer(w, r, next)
	})
}

// handleDevMode trusts X-User-ID and X-User-Role. Only valid in local.
func (a *Auth) handleDevMode(w http.ResponseWriter, r *http.Request, next http.Handler) {
	rawID := r.Header.Get("X-User-ID")
	if rawID == "" {
		writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "X-User-ID header required in dev mode")
		return
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "X-User-ID must be a UUID")
		return
	}

	role := model.RoleUser
	if raw := r.Header.Get("X-User-Role"); raw != "" {
		role, err = model.ParseRole(raw)
		if err != nil {
			writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "X-User-Role must be user or admin")
			return
		}
	}

	ctx := SetIdentity(r.Context(), auth.Identity{
		ID:    id,
		Email: r.Header.Get("X-User-Email"),
		Role:  role,
	})
	next.ServeHTTP(w, r.WithContext(ctx))
}

func (a *Auth) handleBearer(w http.ResponseWriter, r *http.Request, next http.Handler) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authorization header required")
		return
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid authorization header format")
		return
	}

	identity, err := a.cfg.Verifier.Verify(strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		a.cfg.Logger.DebugContext(r.Context(), "token rejected", "error", err)
		writeAuthError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
		return
	}

	ctx := SetIdentity(r.Context(), identity)
	next.ServeHTTP(w, r.WithContext(ctx))
}

func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
