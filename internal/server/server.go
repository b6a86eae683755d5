// Package server exposes a controller over HTTP.
//
// The controller is single-threaded: every handler hops onto the engine
// loop with [loop.Loop.Do] before touching it, and the loop itself is
// driven in real time by [Server.Run] alongside the HTTP listener. Events
// reach HTTP clients through a [bridge.Recorder] polled with
// GET /events?since=N.
//
// Routes:
//
//	GET    /healthz
//	GET    /state
//	PUT    /data
//	POST   /nodes/{id}/click
//	POST   /nodes/{id}/hover
//	DELETE /hover
//	POST   /background/click
//	POST   /zoom
//	POST   /layout/restart
//	GET    /scene.svg
//	GET    /scene.json
//	GET    /events
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/flowgraph/pkg/bridge"
	"github.com/matzehuels/flowgraph/pkg/controller"
	"github.com/matzehuels/flowgraph/pkg/loop"
)

// ShutdownTimeout bounds graceful shutdown of the HTTP listener.
const ShutdownTimeout = 5 * time.Second

// Task is an extra long-running job run next to the loop and the listener,
// such as a file watcher. It should return nil when ctx is cancelled.
type Task func(ctx context.Context) error

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option { return func(s *Server) { s.logger = l } }

// WithRecorder sets the recorder backing GET /events. Without one the
// endpoint always returns an empty feed.
func WithRecorder(r *bridge.Recorder) Option { return func(s *Server) { s.events = r } }

// Server serves one controller.
type Server struct {
	loop   *loop.Loop
	ctrl   *controller.Controller
	events *bridge.Recorder
	logger *log.Logger
	router chi.Router
}

// New creates a server for ctrl, which must be scheduled on l.
func New(l *loop.Loop, ctrl *controller.Controller, opts ...Option) *Server {
	s := &Server{
		loop:   l,
		ctrl:   ctrl,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Get("/state", s.handleState)
	r.Put("/data", s.handleData)

	r.Route("/nodes/{id}", func(r chi.Router) {
		r.Post("/click", s.handleClick)
		r.Post("/hover", s.handleHover)
	})
	r.Delete("/hover", s.handleUnhover)
	r.Post("/background/click", s.handleBackgroundClick)
	r.Post("/zoom", s.handleZoom)
	r.Post("/layout/restart", s.handleRestart)

	r.Get("/scene.svg", s.handleSceneSVG)
	r.Get("/scene.json", s.handleSceneJSON)
	r.Get("/events", s.handleEvents)
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Microsecond),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// Run drives the loop, serves HTTP on addr and runs every task until ctx
// is cancelled or one of them fails. The controller is cleaned up on the
// way out.
func (s *Server) Run(ctx context.Context, addr string, tasks ...Task) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.loop.Run(ctx); err != nil && !stderrors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		s.logger.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	for _, task := range tasks {
		g.Go(func() error { return task(ctx) })
	}

	err := g.Wait()
	s.loop.Post(s.ctrl.Cleanup)
	s.loop.Flush()
	return err
}
