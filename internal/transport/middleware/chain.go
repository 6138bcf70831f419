// Package middleware holds the HTTP middleware the journal wraps around its
// router: request ids, panic recovery, session resolution, access logging,
// and the login rate limiter.
package middleware

import "net/http"

// Middleware wraps an http.Handler with extra behavior.
type Middleware func(http.Handler) http.Handler

// Chain composes middleware into one. The first argument becomes the
// outermost wrapper: Chain(a, b)(h) serves a, then b, then h.
func Chain(mws ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		for i := len(mws) - 1; i >= 0; i-- {
			final = mws[i](final)
		}
		return final
	}
}
