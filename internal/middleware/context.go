package middleware

import (
	"context"
	"net/http"

	"github.com/jaekwang-park/task-api/internal/auth"
)

type contextKey string

const (
	identityKey  contextKey = "identity"
	requestIDKey contextKey = "request_id"
)

func SetIdentity(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// GetIdentity reports false when the request passed through no authentication.
func GetIdentity(r *http.Request) (auth.Identity, bool) {
	v, ok := r.Context().Value(identityKey).(auth.Identity)
	return v, ok
}

func SetRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}
