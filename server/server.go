// Package server exposes the employee listings and the raw record feed over
// HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/willibrandon/hrref/auth"
	"github.com/willibrandon/hrref/core"
	"github.com/willibrandon/hrref/observability"
	"github.com/willibrandon/hrref/store"
)

// maxUpdateBody bounds POST /update payloads.
const maxUpdateBody = 1 << 20

// Options configures a Server.
type Options struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// App serves the listings. Required.
	App *core.App

	// Store backs GET /records/{category} and the store health check. Required.
	Store store.Client

	// Logger is optional (nil uses NullLogger)
	Logger observability.Logger

	// PingTimeout bounds the store health check. Defaults to 2s.
	PingTimeout time.Duration

	// RecordsToken, when set, is required on GET /records/{category} as a
	// bearer token or X-API-Key header.
	RecordsToken string
}

// Server is the HTTP API.
type Server struct {
	chi.Router

	app    *core.App
	store  store.Client
	health *observability.HealthChecker
	log    observability.Logger
	addr   string

	mu      sync.Mutex
	server  *http.Server
	stopped bool
}

// New builds the router and registers health checks.
func New(o Options) *Server {
	logger := o.Logger
	if logger == nil {
		logger = observability.NewNullLogger()
	}
	if o.PingTimeout <= 0 {
		o.PingTimeout = 2 * time.Second
	}

	s := &Server{
		Router: chi.NewMux(),
		app:    o.App,
		store:  o.Store,
		health: observability.NewHealthChecker(),
		log:    logger.ForContext("Component", "server"),
		addr:   o.Addr,
	}

	if p, ok := o.Store.(store.Pinger); ok {
		s.health.Register(observability.PingHealthCheck("store", p.Ping, o.PingTimeout))
	}
	s.health.Register(observability.WarmHealthCheck("refcache", o.App.Cache().Warm))

	s.Use(observability.HTTPServerMiddleware(observability.TracerName, routePattern))

	s.Get("/employees/cities", s.EmployeesWithCity)
	s.Get("/employees/positions", s.EmployeesWithPosition)
	s.Post("/update", s.Update)
	s.With(auth.RequireToken(o.RecordsToken)).Get("/records/{category}", s.Records)
	s.Get("/healthz", s.health.Handler())
	s.Handle("/metrics", observability.MetricsHandler())

	return s
}

// Start listens on the configured address and serves until Stop is called.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	stopped := s.stopped
	s.mu.Unlock()
	if stopped {
		return nil
	}

	addr := s.addr
	if addr == "" {
		addr = ":http"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until Stop is called. Request contexts
// carry the values of ctx but not its cancellation; Stop drains in-flight
// requests.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ln.Close()
	}
	s.server = &http.Server{
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	srv := s.server
	s.mu.Unlock()

	s.log.InfoContext(ctx, "Starting server on {Addr}", ln.Addr().String())
	err := srv.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully shuts the server down. A Start that has not begun yet
// returns immediately.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.stopped = true
	srv := s.server
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// EmployeesWithCity serves ListEmployeesWithCityName.
func (s *Server) EmployeesWithCity(w http.ResponseWriter, r *http.Request) {
	rows, err := s.app.ListEmployeesWithCityName(r.Context())
	if err != nil {
		s.writeError(w, r, http.StatusBadGateway, "unable to list employees", err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// EmployeesWithPosition serves ListEmployeesWithPositionAndDivision.
func (s *Server) EmployeesWithPosition(w http.ResponseWriter, r *http.Request) {
	rows, err := s.app.ListEmployeesWithPositionAndDivision(r.Context())
	if err != nil {
		s.writeError(w, r, http.StatusBadGateway, "unable to list employees", err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// Update rejects writes: 400 for an unknown entity, 501 otherwise.
func (s *Server) Update(w http.ResponseWriter, r *http.Request) {
	var req core.UpdateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUpdateBody))
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}

	err := s.app.Update(r.Context(), req)
	switch {
	case errors.Is(err, core.ErrInvalidEntity):
		s.writeError(w, r, http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, core.ErrNotImplemented):
		s.writeError(w, r, http.StatusNotImplemented, err.Error(), err)
	case err != nil:
		s.writeError(w, r, http.StatusInternalServerError, "update failed", err)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// Records serves every record of a category in the shape RemoteStore reads.
func (s *Server) Records(w http.ResponseWriter, r *http.Request) {
	category, err := store.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		s.writeError(w, r, http.StatusNotFound, err.Error(), err)
		return
	}

	records, err := s.store.Query(r.Context(), store.Query{Category: category, Filter: store.NoFilter()})
	if err != nil {
		s.writeError(w, r, http.StatusBadGateway, "unable to query store", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := store.EncodeRecords(w, records); err != nil {
		s.log.WarnContext(r.Context(), "Encoding {Category} records failed: {Error}", category, err)
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}
