package server

import (
	"context"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Astrocyte74/jeopardy-sub000/internal/llm"
	"github.com/Astrocyte74/jeopardy-sub000/internal/ratelimit"
)

type ctxKey int

const (
	ctxKeySession ctxKey = iota
)

func sessionMiddleware(sessions *Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := chi.URLParam(r, "sessionID")
			sess, ok := sessions.Get(id)
			if !ok {
				writeError(w, http.StatusNotFound, "session not found")
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeySession, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionFrom(r *http.Request) *liveSession {
	return r.Context().Value(ctxKeySession).(*liveSession)
}

// rateLimit rejects requests from a client address that exceeded the
// limiter's window. A failing limiter lets the request through.
func rateLimit(logger *slog.Logger, limiter ratelimit.Limiter, m *metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientAddr(r)
			d, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.Warn("rate limiter unavailable", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if !d.Allowed {
				m.rateLimited.Inc()
				w.Header().Set("Retry-After", retryAfterSeconds(d.RetryAfter))
				writeJSON(w, http.StatusTooManyRequests, ErrorResponse{
					Error: (&llm.RateLimitError{RetryAfter: d.RetryAfter}).Error(),
					Code:  "RATE_LIMITED",
				})
				return
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			next.ServeHTTP(w, r)
		})
	}
}

// clientAddr is the request's address without the port. RealIP has
// already replaced RemoteAddr when a proxy header was present.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func retryAfterSeconds(d time.Duration) string {
	return strconv.Itoa(max(1, int(math.Ceil(d.Seconds()))))
}
