package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mveld/tanglewiki/special"
	"github.com/mveld/tanglewiki/templater"
	"github.com/mveld/tanglewiki/wiki"
	"github.com/mveld/tanglewiki/wiki/service"
)

// App holds all application dependencies and services.
type App struct {
	*templater.Templater
	Pages        service.PageService
	Rendering    service.RenderingService
	SpecialPages *special.Registry
	Config       *wiki.Config
	DB           *sqlx.DB
}

type contextKey int

const memberKey contextKey = iota

// MemberMiddleware attaches the requester identity to the request context.
// Without an authentication layer, every request carries the configured
// anonymous role.
func (app *App) MemberMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		member := &wiki.Member{Role: wiki.RoleForName(app.Config.AnonymousRole)}
		ctx := context.WithValue(r.Context(), memberKey, member)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// MemberFromContext returns the requester set by MemberMiddleware, or the
// anonymous member when none was set.
func MemberFromContext(ctx context.Context) *wiki.Member {
	if member, ok := ctx.Value(memberKey).(*wiki.Member); ok {
		return member
	}
	return wiki.Anonymous()
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

// SlogLoggingMiddleware logs HTTP requests using slog
func SlogLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"size", wrapped.size,
			"duration", time.Since(start),
		)
	})
}
