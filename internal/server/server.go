package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Astrocyte74/jeopardy-sub000/internal/aiparse"
	"github.com/Astrocyte74/jeopardy-sub000/internal/editor"
	"github.com/Astrocyte74/jeopardy-sub000/internal/library"
	"github.com/Astrocyte74/jeopardy-sub000/internal/ratelimit"
	"github.com/Astrocyte74/jeopardy-sub000/internal/snapshot"
)

// Deps are the collaborators the HTTP layer serves.
type Deps struct {
	Library        *library.Store
	Snapshots      *snapshot.Store
	Generator      editor.Generator
	Limiter        ratelimit.Limiter
	Redis          Pinger
	AutosaveDelay  time.Duration
	PreviewTimeout time.Duration
	StaticDir      string
}

type Server struct {
	srv      *http.Server
	logger   *slog.Logger
	sessions *Registry
	metrics  *metrics
}

func New(addr string, logger *slog.Logger, deps Deps) *Server {
	m := newMetrics()
	broker := NewBroker()
	sessions := NewRegistry(logger, deps, broker, m)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(newStructuredLogger(logger))
	r.Use(middleware.Recoverer)

	addRoutes(r, logger, deps, sessions, broker, m)

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger:   logger,
		sessions: sessions,
		metrics:  m,
	}
}

func (s *Server) Handler() http.Handler { return s.srv.Handler }

// ObserveSweep records snapshots removed by the expiry janitor.
func (s *Server) ObserveSweep(removed int) {
	s.metrics.snapshotsSwept.Add(float64(removed))
}

func (s *Server) Run(_ context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.srv.Addr, err)
	}

	err = s.srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests, then closes every editor session so
// pending autosaves are flushed.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	err := s.srv.Shutdown(ctx)
	s.sessions.Close()
	return err
}

func newStructuredLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Info("http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration_ms", time.Since(start).Milliseconds(),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// parserFor is shared by all sessions; it only logs.
func parserFor(logger *slog.Logger) *aiparse.Parser {
	return aiparse.New(logger.With("component", "aiparse"))
}
