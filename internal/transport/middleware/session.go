package middleware

import (
	"net/http"

	"github.com/avolkova/journal/internal/domain"
	"github.com/avolkova/journal/pkg/ctxutil"
)

// SessionCookie is the cookie carrying the signed session token.
const SessionCookie = "journal_session"

// tokenResolver maps a client-held token to an identity. Resolution is
// total: invalid tokens come back as anonymous, never as an error.
type tokenResolver interface {
	ResolveToken(token string) domain.Identity
}

// Session returns middleware that resolves the session cookie into the
// request identity. Requests without a valid cookie proceed as anonymous;
// the permission policy downstream decides what anonymous may do.
func Session(resolver tokenResolver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := domain.Anonymous
			if cookie, err := r.Cookie(SessionCookie); err == nil {
				identity = resolver.ResolveToken(cookie.Value)
			}
			ctx := ctxutil.WithIdentity(r.Context(), identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
