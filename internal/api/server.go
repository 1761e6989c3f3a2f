// Package api serves simulation runs, rendered charts and formula curves
// over HTTP for the browser front end.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/nvandessel/swipesim/internal/config"
	"github.com/nvandessel/swipesim/internal/plot"
	"github.com/nvandessel/swipesim/internal/ratelimit"
	"github.com/nvandessel/swipesim/internal/run"
)

// Server handles simulation and chart requests.
type Server struct {
	cfg       *config.SwipesimConfig
	runner    *run.Runner
	logger    *slog.Logger
	limiter   *ratelimit.ClientLimiter
	retention plot.RetentionPolicy
	version   string

	httpServer *http.Server
	listener   net.Listener
	mu         sync.Mutex
	addr       string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRunner replaces the default runner.
func WithRunner(r *run.Runner) Option {
	return func(s *Server) {
		if r != nil {
			s.runner = r
		}
	}
}

// WithVersion sets the version reported by /health.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// NewServer creates a server for cfg.
func NewServer(cfg *config.SwipesimConfig, opts ...Option) *Server {
	s := &Server{
		cfg:     cfg,
		logger:  slog.New(slog.DiscardHandler),
		version: "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.runner == nil {
		s.runner = run.NewRunner(run.WithLogger(s.logger))
	}
	if cfg.Server.RatePerMinute > 0 {
		s.limiter = ratelimit.PerMinute(cfg.Server.RatePerMinute, cfg.Server.Burst)
	}
	if cfg.Plots.Enabled {
		policy, err := plot.RetentionFromConfig(cfg.Plots)
		if err != nil {
			s.logger.Warn("chart retention disabled", "error", err)
		}
		s.retention = policy
	}
	return s
}

// Addr returns the address the server is listening on (e.g., "localhost:PORT").
// Returns empty string if the server hasn't started yet.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Router returns the HTTP handler with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.With(ratelimit.Middleware(s.limiter)).Post("/run_simulation", s.handleRunSimulation)
	r.Get("/plots/{name}", s.handlePlot)

	r.Route("/api/formula", func(r chi.Router) {
		r.Get("/curve", s.handleFormulaCurve)
		r.Get("/functions", s.handleFormulaFunctions)
	})

	return r
}

// requestLogger logs one line per request through the server's slog logger.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// ListenAndServe listens on the configured address and blocks until the
// context is cancelled. A port of 0 lets the OS pick one; Addr reports it.
// Returns nil on clean shutdown.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	s.mu.Lock()
	s.listener = ln
	s.addr = ln.Addr().String()
	s.httpServer = &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Unlock()

	s.logger.Info("listening", "addr", s.addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if s.limiter != nil {
		go s.limiter.Cleanup(ctx, time.Minute, 3*time.Minute)
	}
	if s.retention != nil {
		s.prunePlots()
		go s.prunePlotsLoop(ctx)
	}

	err = s.httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) prunePlotsLoop(ctx context.Context) {
	t := time.NewTicker(10 * time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.prunePlots()
		}
	}
}

// prunePlots removes charts the retention policy no longer keeps.
func (s *Server) prunePlots() {
	deleted, err := plot.Prune(s.cfg.Plots.Dir, s.retention)
	if err != nil {
		s.logger.Warn("pruning charts", "dir", s.cfg.Plots.Dir, "error", err)
	}
	if len(deleted) > 0 {
		s.logger.Info("pruned charts", "dir", s.cfg.Plots.Dir, "files", len(deleted))
	}
}
