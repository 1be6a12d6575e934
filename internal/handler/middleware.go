package handler

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/msomdec/inscripciones/internal/domain"
	"github.com/msomdec/inscripciones/internal/service"
	"github.com/msomdec/inscripciones/internal/telemetry"
)

// SessionCookie is the name of the cookie carrying the signed session token.
const SessionCookie = "user_session"

var tracer = otel.Tracer("inscripciones/http")

type contextKey string

const userContextKey contextKey = "user"

// UserFromContext extracts the authenticated user from the request context.
// Returns nil if no user is authenticated.
func UserFromContext(ctx context.Context) *domain.User {
	user, _ := ctx.Value(userContextKey).(*domain.User)
	return user
}

// RequesterFromContext returns the capability of the authenticated user, or nil.
func RequesterFromContext(ctx context.Context) *domain.Requester {
	if user := UserFromContext(ctx); user != nil {
		return user.Requester()
	}
	return nil
}

// RequireAuth is middleware that protects routes requiring authentication.
// It reads the session cookie, validates the token, loads the user from the
// database and injects it into the request context. Returns 401 for a missing
// or invalid session and 500 when the user cannot be loaded.
func RequireAuth(auth *service.AuthService, log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := authenticateRequest(r, auth)
		if err != nil {
			log.ErrorContext(r.Context(), "load session user", "error", err)
			writeError(w, http.StatusInternalServerError, msgInternal)
			return
		}
		if user == nil {
			writeError(w, http.StatusUnauthorized, "No autorizado")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuth attempts to authenticate but does not block anonymous requests.
func OptionalAuth(auth *service.AuthService, log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := authenticateRequest(r, auth)
		if err != nil {
			log.ErrorContext(r.Context(), "load session user", "error", err)
			writeError(w, http.StatusInternalServerError, msgInternal)
			return
		}
		if user != nil {
			ctx := context.WithValue(r.Context(), userContextKey, user)
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

// authenticateRequest returns (nil, nil) for an anonymous request: no cookie,
// a bad token or a user that no longer exists. An error means the user could
// not be loaded.
func authenticateRequest(r *http.Request, auth *service.AuthService) (*domain.User, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil, nil
	}

	userID, err := auth.ValidateSession(cookie.Value)
	if err != nil {
		return nil, nil
	}

	user, err := auth.GetUserByID(r.Context(), userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// SecurityHeaders sets conservative response headers on every request.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'self'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	if rec.status == 0 {
		rec.status = http.StatusOK
	}
	n, err := rec.ResponseWriter.Write(b)
	rec.bytes += n
	return n, err
}

func (rec *statusRecorder) Unwrap() http.ResponseWriter {
	return rec.ResponseWriter
}

// RequestLogger opens a server span per request and logs its outcome.
func RequestLogger(log *slog.Logger, next http.Handler) http.Handler {
	log = log.With("component", "http")
	propagator := otel.GetTextMapPropagator()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r.WithContext(ctx))
		if rec.status == 0 {
			rec.status = http.StatusOK
		}

		span.SetAttributes(
			attribute.String("http.request.method", r.Method),
			attribute.String("url.path", r.URL.Path),
			attribute.Int("http.response.status_code", rec.status),
		)
		if rec.status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(rec.status))
		}

		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"bytes", rec.bytes,
			"duration", time.Since(start),
			"trace_id", telemetry.TraceID(ctx),
		}
		switch {
		case rec.status >= http.StatusInternalServerError:
			log.ErrorContext(ctx, "request failed", attrs...)
		case rec.status >= http.StatusBadRequest:
			log.WarnContext(ctx, "request rejected", attrs...)
		default:
			log.DebugContext(ctx, "request", attrs...)
		}
	})
}

// clientIP returns the remote host without port.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
