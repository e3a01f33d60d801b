package ui

import (
	"context"
	"net/http"
)

type contextKey string

const shellContextKey contextKey = "shell"

// ShellFromContext returns the shell stored by ShellMiddleware, or one
// derived from r when the middleware did not run.
func ShellFromContext(r *http.Request) Shell {
	if sh, ok := r.Context().Value(shellContextKey).(Shell); ok {
		return sh
	}
	return shellFromRequest(r)
}

// ShellMiddleware resolves the navigation state once per page request.
func (ui *UI) ShellMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), shellContextKey, shellFromRequest(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// NoStoreMiddleware keeps browsers and proxies from caching view partials,
// which reflect server-side state that changes between requests.
func NoStoreMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
