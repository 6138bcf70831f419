package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/avolkova/journal/pkg/ctxutil"
)

// Recovery returns middleware that turns a handler panic into a plain 500,
// logging the panic value with its stack and the request id so the failing
// request can be found in the access log.
func Recovery(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if v := recover(); v != nil {
					logger.ErrorContext(r.Context(), "panic recovered",
						slog.Any("error", v),
						slog.String("request_id", ctxutil.RequestIDFromCtx(r.Context())),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
						slog.String("stack", string(debug.Stack())),
					)
					http.Error(w, "internal server error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
