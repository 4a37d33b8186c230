// Package middleware holds the HTTP middleware chain: request logging,
// bearer-token auth, and request metrics. It also owns the context keys the
// auth layer populates for handlers.
package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"robogo/backend/internal/security"
	"robogo/backend/internal/server/respond"
	sessiondomain "robogo/backend/internal/session/domain"
)

type contextKey string

const scopeKey contextKey = "telemetry_scope"

// WithScope returns a context carrying the authenticated telemetry scope.
func WithScope(ctx context.Context, scope sessiondomain.Scope) context.Context {
	return context.WithValue(ctx, scopeKey, scope)
}

// GetScope returns the authenticated scope set by the auth middleware.
func GetScope(ctx context.Context) (sessiondomain.Scope, bool) {
	scope, ok := ctx.Value(scopeKey).(sessiondomain.Scope)
	return scope, ok
}

// Logging logs method, path, status, and duration for every request.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		log.Printf("http: %s %s %d %v", r.Method, r.URL.Path, sw.status, time.Since(start))
	})
}

// Auth validates the Bearer access token and injects the (user, device)
// scope into the request context. Requests without a valid token get a 401
// envelope and never reach the handler.
func Auth(tokens *security.TokenProvider) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			const prefix = "Bearer "
			if !strings.HasPrefix(header, prefix) {
				respond.Error(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			userID, deviceID, err := tokens.ValidateAccess(strings.TrimPrefix(header, prefix))
			if err != nil {
				respond.Error(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			scope := sessiondomain.Scope{UserID: userID, DeviceID: deviceID}
			next.ServeHTTP(w, r.WithContext(WithScope(r.Context(), scope)))
		})
	}
}

// Metrics records request counts and durations on the given meter, labeled
// by method, route template, and status code.
func Metrics(meter metric.Meter) mux.MiddlewareFunc {
	counter, err := meter.Int64Counter("http.server.request_count")
	if err != nil {
		log.Printf("middleware: request counter: %v", err)
	}
	duration, err := meter.Float64Histogram("http.server.duration",
		metric.WithUnit("ms"))
	if err != nil {
		log.Printf("middleware: duration histogram: %v", err)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			route := r.URL.Path
			if cur := mux.CurrentRoute(r); cur != nil {
				if tmpl, err := cur.GetPathTemplate(); err == nil {
					route = tmpl
				}
			}
			attrs := metric.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", route),
				attribute.Int("http.status_code", sw.status),
			)
			if counter != nil {
				counter.Add(r.Context(), 1, attrs)
			}
			if duration != nil {
				duration.Record(r.Context(), float64(time.Since(start).Milliseconds()), attrs)
			}
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
