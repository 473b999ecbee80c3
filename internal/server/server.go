// Package server hosts the contact widget over HTTP.
//
// Every browser session owns one widget controller. Form posts mutate that
// controller and answer with the re-rendered widget fragment; the same
// fragment is pushed to every open websocket of the session whenever the
// controller's state changes, so timers (the alert expiry) reach the page
// without a request.
package server

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/conneroisu/formify/internal/components"
	"github.com/conneroisu/formify/internal/config"
	"github.com/conneroisu/formify/internal/errors"
	"github.com/conneroisu/formify/internal/logging"
	"github.com/conneroisu/formify/internal/session"
	"github.com/conneroisu/formify/internal/websocket"
	"github.com/conneroisu/formify/internal/widget"
)

const (
	sweepInterval   = time.Minute
	shutdownTimeout = 5 * time.Second
)

// Options configures a Server.
type Options struct {
	Config *config.Config
	// Factory builds the widget of each new session. Nil means
	// session.NewFactory(Config, nil, Logger).
	Factory session.Factory
	Logger  logging.Logger
	// Components overrides where rendered forms post to.
	Components *components.Options
}

// Server serves the demo page, the widget endpoints and live updates.
type Server struct {
	config     *config.Config
	logger     logging.Logger
	registry   *session.Registry
	hub        *websocket.Hub
	limiter    *RateLimiter
	components components.Options
	router     chi.Router

	serverMutex  sync.RWMutex
	httpServer   *http.Server
	listener     net.Listener
	shutdownOnce sync.Once
	shutdownErr  error
}

// New wires a server from opts.
func New(opts Options) (*Server, error) {
	if opts.Config == nil {
		return nil, errors.NewConfigError(errors.ErrCodeConfigInvalid, "server needs a configuration")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	factory := opts.Factory
	if factory == nil {
		var err error
		factory, err = session.NewFactory(opts.Config, nil, logger)
		if err != nil {
			return nil, err
		}
	}

	s := &Server{
		config:     opts.Config,
		logger:     logger.WithComponent("server"),
		hub:        websocket.NewHub(opts.Config.Server.AllowedOrigins, logger),
		limiter:    NewRateLimiter(opts.Config.Server.SubmitRate, logger),
		components: components.DefaultOptions(),
	}
	if opts.Components != nil {
		s.components = *opts.Components
	}
	s.registry = session.NewRegistry(session.Options{
		Factory:     factory,
		TTL:         opts.Config.Server.SessionTTL,
		MaxSessions: opts.Config.Server.MaxSessions,
		Logger:      logger,
		OnCreate:    s.attach,
	})
	s.router = s.Routes()
	return s, nil
}

// attach pushes every state change of the session's widget to its
// websocket clients.
func (s *Server) attach(sess *session.Session) {
	id := sess.ID
	unsubscribe := sess.Widget.Subscribe(func(state widget.State) {
		var buf bytes.Buffer
		if err := components.Widget(state, s.components).Render(context.Background(), &buf); err != nil {
			s.logger.Warn(context.Background(), err, "Failed to render widget update", "session", id)
			return
		}
		s.hub.Publish(id, buf.Bytes())
	})
	sess.OnClose(unsubscribe)
}

// Routes builds the router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(SecurityHeaders)

	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)
	if s.components.LivePath != "" {
		r.Get(s.components.LivePath, s.handleWebSocket)
	}

	r.Route(s.components.BasePath, func(r chi.Router) {
		r.Use(OriginCheck(s.config.Server.AllowedOrigins, s.logger))
		r.Get("/", s.handleFragment)
		r.Post("/toggle", s.handleToggle)
		r.Post("/fields", s.handleFields)
		r.With(RateLimitMiddleware(s.limiter)).Post("/submit", s.handleSubmit)
	})

	if s.config.Server.Echo {
		r.Post("/echo", s.handleEcho)
	}
	return r
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Sessions exposes the session registry.
func (s *Server) Sessions() *session.Registry {
	return s.registry
}

// Reload applies the widget section of cfg to sessions created from now on.
// Open sessions keep their widget so that nobody loses typed text.
func (s *Server) Reload(cfg *config.Config) error {
	factory, err := session.NewFactory(cfg, nil, s.logger)
	if err != nil {
		return err
	}
	s.registry.SetFactory(factory)
	s.logger.Info(context.Background(), "Configuration reloaded",
		"title", cfg.Widget.Title,
		"fields", cfg.Widget.Fields)
	return nil
}

// Start listens on the configured address and serves until ctx is done,
// then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return errors.NewEnhancedError("Failed to start server", err,
			errors.ServerStartError(err, s.config.Server.Port))
	}

	s.serverMutex.Lock()
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.listener = ln
	server := s.httpServer
	s.serverMutex.Unlock()

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go s.registry.Run(sweepCtx, sweepInterval)

	s.logger.Info(ctx, "Server listening", "addr", ln.Addr().String())

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}

// Addr is the address actually bound, or "" before Start.
func (s *Server) Addr() string {
	s.serverMutex.RLock()
	defer s.serverMutex.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown closes websocket clients, drains HTTP requests and evicts every
// session. It is safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.logger.Info(ctx, "Shutting down server")

		var errs []error
		// hijacked websocket connections are not tracked by http.Server
		errs = append(errs, s.hub.Shutdown(ctx))

		s.serverMutex.RLock()
		server := s.httpServer
		s.serverMutex.RUnlock()
		if server != nil {
			errs = append(errs, server.Shutdown(ctx))
		}

		s.registry.Close()
		s.limiter.Stop()
		s.shutdownErr = errors.CombineErrors(errs...)
	})
	return s.shutdownErr
}
