package web

import (
	"embed"
	"log/slog"
	"net/http"

	"github.com/avolkova/journal/internal/domain"
	"github.com/avolkova/journal/internal/transport/middleware"
)

//go:embed static
var staticFS embed.FS

// tokenResolver maps a session token to an identity; invalid tokens
// resolve to anonymous.
type tokenResolver interface {
	ResolveToken(token string) domain.Identity
}

// RouterDeps bundles everything the router needs.
type RouterDeps struct {
	Handler        *Handler
	Health         *HealthHandler
	Resolver       tokenResolver
	Limiter        *middleware.RateLimiter
	LoginRateLimit int
	Logger         *slog.Logger
}

// NewRouter builds the route table and wraps it in the global middleware
// chain: request ID, panic recovery, session resolution, then the access
// log. Session runs before Logger so the log line carries the username.
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()
	h := deps.Handler

	mux.HandleFunc("GET /{$}", h.List)
	mux.HandleFunc("GET /detail/{id}", h.Detail)
	mux.HandleFunc("GET /add", h.AddForm)
	mux.HandleFunc("POST /add", h.AddSubmit)
	mux.HandleFunc("GET /edit/{id}", h.EditForm)
	mux.HandleFunc("POST /edit/{id}", h.EditSubmit)
	mux.HandleFunc("GET /login", h.LoginForm)
	mux.Handle("POST /login", deps.Limiter.Limit(deps.LoginRateLimit)(http.HandlerFunc(h.LoginSubmit)))
	mux.HandleFunc("GET /logout", h.Logout)
	mux.HandleFunc("GET /logged_out", h.LoggedOut)
	mux.HandleFunc("GET /delete_one/{id}", h.DeleteOne)
	mux.HandleFunc("GET /delete_all", h.DeleteAll)
	mux.HandleFunc("GET /healthz", deps.Health.Healthz)
	mux.Handle("GET /static/", http.FileServerFS(staticFS))

	chain := middleware.Chain(
		middleware.RequestID,
		middleware.Recovery(deps.Logger),
		middleware.Session(deps.Resolver),
		middleware.Logger(deps.Logger),
	)

	return chain(mux)
}
