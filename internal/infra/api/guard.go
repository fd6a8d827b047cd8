package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"sitfit-api/internal/domain"
	"sitfit-api/internal/domain/model"
	"sitfit-api/internal/domain/ports/adapter"
	"sitfit-api/internal/domain/ports/repository"
	"sitfit-api/internal/infra/logging"
	"sitfit-api/internal/infra/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Middleware func(http.Handler) http.Handler

func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// TraceID honours an incoming X-Request-ID and echoes the id back.
func TraceID(logger *zerolog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tid := strings.TrimSpace(r.Header.Get("X-Request-ID"))
			if tid == "" || len(tid) > 64 {
				tid = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", tid)
			ctx := logging.WithTraceID(r.Context(), tid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequestLog(logger *zerolog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &respWriter{ResponseWriter: w, status: 200}
			next.ServeHTTP(ww, r)
			// user_id is attached by Auth further down the chain, so read it from the
			// request the handler saw.
			l := logging.With(ww.ctxOr(r.Context()), logger)
			l.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.status).
				Dur("duration", time.Since(start)).
				Msg("http_request")
		})
	}
}

// Metrics records request latency under the chi route pattern.
func Metrics() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &respWriter{ResponseWriter: w, status: 200}
			next.ServeHTTP(ww, r)
			route := ""
			if rc := chi.RouteContext(r.Context()); rc != nil {
				route = rc.RoutePattern()
			}
			metrics.ObserveHTTP(r.Method, route, ww.status, time.Since(start).Seconds())
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
	ctx    context.Context
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// setCtx hands the authenticated request context back to outer wrappers.
func (w *respWriter) setCtx(ctx context.Context) {
	w.ctx = ctx
	if inner, ok := w.ResponseWriter.(*respWriter); ok {
		inner.setCtx(ctx)
	}
}

func (w *respWriter) ctxOr(def context.Context) context.Context {
	if w.ctx != nil {
		return w.ctx
	}
	return def
}

func Recover(logger *zerolog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					l := logging.With(r.Context(), logger)
					l.Error().Interface("panic", rec).Msg("panic recovered")
					WriteJSON(w, http.StatusInternalServerError, Envelope{Message: "internal error", Code: "internal"})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func Timeout(d time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BodyLimit caps request bodies at n bytes.
func BodyLimit(n int64) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ===== Identity =====

type identityKey struct{}

// IdentityFrom returns the caller set by Auth, or nil.
func IdentityFrom(ctx context.Context) *model.Identity {
	id, _ := ctx.Value(identityKey{}).(*model.Identity)
	return id
}

// WithIdentity stores the caller in ctx. Auth does this; tests can too.
func WithIdentity(ctx context.Context, id *model.Identity) context.Context {
	ctx = logging.WithUserID(ctx, id.UserID)
	return context.WithValue(ctx, identityKey{}, id)
}

// Auth requires "Authorization: Bearer <token>" and resolves it to an Identity.
func Auth(verifier adapter.IdentityVerifier, logger *zerolog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hdr := r.Header.Get("Authorization")
			if !strings.HasPrefix(strings.ToLower(hdr), "bearer ") {
				WriteError(w, r, logger, fmt.Errorf("missing bearer token: %w", domain.ErrUnauthenticated))
				return
			}
			id, err := verifier.Verify(r.Context(), strings.TrimSpace(hdr[7:]))
			if err != nil {
				WriteError(w, r, logger, err)
				return
			}
			ctx := WithIdentity(r.Context(), id)
			if ww, ok := w.(*respWriter); ok {
				ww.setCtx(ctx)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimit allows limit requests per caller per window for scope.
// A nil limiter disables the check; a limiter error lets the request through.
func RateLimit(limiter repository.RateLimiter, scope string, limit int, window time.Duration, logger *zerolog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		if limiter == nil || limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := IdentityFrom(r.Context())
			if id == nil {
				next.ServeHTTP(w, r)
				return
			}
			ok, err := limiter.Allow(r.Context(), scope+":"+id.UserID, limit, window)
			if err != nil {
				l := logging.With(r.Context(), logger)
				l.Warn().Err(err).Str("scope", scope).Msg("rate limiter unavailable")
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				metrics.IncRateLimited(scope)
				w.Header().Set("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
				WriteError(w, r, logger, domain.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
