package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// Recovery turns a handler panic into a 500 with the standard error body,
// unless the response has already started. http.ErrAbortHandler is
// re-raised so net/http can abort the connection.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := newResponseRecorder(w)

			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler {
					panic(v)
				}

				ctx := r.Context()
				logger.ErrorContext(ctx, "panic recovered",
					"error", v,
					"request_id", GetRequestID(ctx),
					"method", r.Method,
					"path", r.URL.Path,
					"response_started", rec.written,
					"stack", string(debug.Stack()),
				)
				if rec.written {
					return
				}

				rec.Header().Set("Content-Type", "application/json")
				rec.WriteHeader(http.StatusInternalServerError)
				body := map[string]map[string]string{
					"error": {"code": "INTERNAL_ERROR", "message": "internal server error"},
				}
				if err := json.NewEncoder(rec).Encode(body); err != nil {
					logger.ErrorContext(ctx, "failed to write recovery response", "request_id", GetRequestID(ctx), "error", err)
				}
			}()

			next.ServeHTTP(rec, r)
		})
	}
}
