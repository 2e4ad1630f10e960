package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bloom-go/bloom"
	"github.com/bloom-go/bloom/pkg/dom"
	"github.com/bloom-go/bloom/pkg/render"
	"github.com/bloom-go/bloom/pkg/router"
	"github.com/bloom-go/bloom/pkg/routepath"
)

// Server serves one App.
type Server struct {
	app      *bloom.App
	config   Config
	logger   *slog.Logger
	router   chi.Router
	upgrader websocket.Upgrader
	hub      *hub

	// publishMu orders snapshots with their broadcast.
	publishMu     sync.Mutex
	stopObserving func()
}

// New creates a server for app. It starts pushing snapshots to live clients
// right away; Close stops it.
func New(app *bloom.App, config Config) *Server {
	if config.Logger == nil {
		config.Logger = app.Logger()
	}
	if config.Gatherer == nil {
		config.Gatherer = prometheus.DefaultGatherer
	}
	s := &Server{
		app:    app,
		config: config,
		logger: config.Logger.With("component", "server"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true // preview server, any origin
			},
		},
		hub: newHub(),
	}
	s.router = s.routes()
	s.stopObserving = app.OnRender(s.publish)
	return s
}

// publish sends the current mount markup to every live client.
func (s *Server) publish() {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()
	s.hub.broadcast([]byte(s.app.Mount().InnerHTML()))
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/", s.handlePage)
	r.Get("/snapshot", s.handleSnapshot)
	r.Post("/navigate", s.handleNavigate)
	r.Post("/events", s.handleEvent)
	r.Get("/live", s.handleLive)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	})
	if s.config.MetricsPath != "" {
		r.Handle(s.config.MetricsPath, promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the server as an http.Handler, for mounting under
// another router.
func (s *Server) Handler() http.Handler { return s.router }

// Run listens on Config.Addr until ctx ends, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:      s,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", ln.Addr().String())
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	s.hub.closeAll()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("shutdown error", "error", err)
		return err
	}
	s.logger.Info("server shutdown complete")
	return nil
}

// Close disconnects live clients and stops observing the app.
func (s *Server) Close() error {
	s.stopObserving()
	s.hub.closeAll()
	return nil
}

// LiveClients returns the number of connected /live clients.
func (s *Server) LiveClients() int { return s.hub.count() }

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := render.RenderPage(w, render.PageData{
		Title:     s.config.Title,
		MountID:   s.app.Mount().ID(),
		Body:      s.app.Mount().InnerHTML(),
		LiveURL:   "/live",
		EventsURL: "/events",
	})
	if err != nil {
		s.logger.Warn("page write failed", "error", err)
	}
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(s.app.Mount().InnerHTML()))
}

type navigateResponse struct {
	Location string `json:"location"`
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	path := r.FormValue("path")
	if !strings.HasPrefix(path, "/") {
		writeError(w, http.StatusBadRequest, "path must start with /")
		return
	}
	var query map[string]string
	if raw := r.FormValue("query"); raw != "" {
		query = routepath.ParseQuery(raw)
	}

	if err := s.app.Goto(r.Context(), path, query); err != nil {
		if errors.Is(err, router.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.logger.Error("navigation failed", "path", path, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, navigateResponse{Location: s.app.Location().String()})
}

// EventRequest is the body of POST /events.
type EventRequest struct {
	Type   string `json:"type"`
	Target string `json:"target"`
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid event: "+err.Error())
		return
	}
	if req.Type == "" || req.Target == "" {
		writeError(w, http.StatusBadRequest, "event needs type and target")
		return
	}

	target := s.app.Document().LookupID(req.Target)
	if target == nil {
		writeError(w, http.StatusNotFound, "no element with id "+req.Target)
		return
	}
	if !target.Dispatch(&dom.Event{Type: req.Type}) {
		writeError(w, http.StatusUnprocessableEntity, "no "+req.Type+" listener on "+req.Target)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
