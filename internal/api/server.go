// Package api implements the HTTP control-plane described in spec.md:
// routing, the cross-cutting "before" phase (logging, CORS, connectivity,
// auth), pagination, JSON validation, and one handler per resource.
package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/bngnha/sensu/internal/metrics"
	"github.com/bngnha/sensu/internal/registry"
	"github.com/bngnha/sensu/internal/settings"
	"github.com/bngnha/sensu/internal/transport"
	"github.com/bngnha/sensu/internal/validate"
)

// Server wires the registry, transport, settings and validator collaborators
// into a routed http.Handler and owns the process lifecycle operations spec
// §6.3 names: run, start, stop.
type Server struct {
	Settings  settings.Settings
	Registry  registry.Client
	Transport transport.Client
	Validator validate.Validator
	Logger    *zap.Logger
	Measures  *metrics.Measures

	httpServer *http.Server
	now        func() int64
}

// New constructs a Server and its routed handler. Callers still need to
// call Start to begin listening. Measures is optional: a nil value disables
// the request-metrics middleware and the /metrics endpoint answers 404.
func New(cfg settings.Settings, reg registry.Client, tr transport.Client, v validate.Validator, logger *zap.Logger, measures *metrics.Measures) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		Settings:  cfg,
		Registry:  reg,
		Transport: tr,
		Validator: v,
		Logger:    logger,
		Measures:  measures,
		now:       func() int64 { return time.Now().Unix() },
	}
	return s
}

// Handler builds the routed, middleware-wrapped http.Handler. Exposed
// separately from Start so tests can exercise the handler with
// httptest.NewServer or httptest.NewRecorder without binding a socket.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	s.registerRoutes(router)
	handler := s.pipeline(router)
	if s.Measures != nil {
		handler = s.Measures.Middleware(handler)
	}
	return handler
}

// Start begins listening on Settings.Addr(). It returns once the listener
// is bound; serving happens on a background goroutine, matching how a
// process's "start" operation (spec §6.3) is expected to return control to
// its caller instead of blocking forever.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:    s.Settings.Addr(),
		Handler: s.Handler(),
	}
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.Logger.Error("http server exited", zap.Error(err))
		}
	}()
	return nil
}

// Run is the combined start-and-block lifecycle operation: it starts the
// listener and blocks until ctx is canceled, then drains via Stop under a
// context bounded by Settings.ShutdownTimeout — an unbounded shutdown
// context can hang forever on one stuck connection, which is exactly the
// failure mode a process's "stop" operation (spec §6.3) must bound against.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	stopCtx, cancel := context.WithTimeout(context.Background(), s.Settings.ShutdownTimeout())
	defer cancel()
	return s.Stop(stopCtx)
}

// Stop gracefully drains the process: close the listener, then the
// registry, then the transport, per spec §6.3.
func (s *Server) Stop(ctx context.Context) error {
	var firstErr error
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			firstErr = fmt.Errorf("http shutdown: %w", err)
		}
	}
	if s.Registry != nil {
		if err := s.Registry.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("registry close: %w", err)
		}
	}
	if s.Transport != nil {
		if err := s.Transport.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("transport close: %w", err)
		}
	}
	return firstErr
}

// Test starts the server on an ephemeral address for integration tests and
// returns a stop function, fulfilling spec §6.3's test(options, block)
// lifecycle hook in idiomatic Go form.
func (s *Server) Test() (addr string, stop func(), err error) {
	s.httpServer = &http.Server{
		Addr:    "127.0.0.1:0",
		Handler: s.Handler(),
	}
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return "", nil, err
	}
	go s.httpServer.Serve(ln)
	stop = func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.Stop(ctx)
	}
	return ln.Addr().String(), stop, nil
}
