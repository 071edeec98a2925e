package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"room-availability/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 5 * time.Second

// Server exposes /metrics, /healthz and /readyz while the scheduler runs.
type Server struct {
	addr     string
	gatherer prometheus.Gatherer
	ready    func() bool
	auth     metricsAuth
	logger   logrus.FieldLogger

	mux      *http.ServeMux
	srv      *http.Server
	listener net.Listener
}

// NewServer creates a server. ready reports whether the readiness probe
// passes; auth protects /metrics when its Type is set.
func NewServer(addr string, gatherer prometheus.Gatherer, ready func() bool, auth config.MetricsAuth, logger logrus.FieldLogger) *Server {
	s := &Server{
		addr:     addr,
		gatherer: gatherer,
		ready:    ready,
		auth:     metricsAuth{cfg: auth, logger: logger},
		logger:   logger,
		mux:      http.NewServeMux(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("Handling /healthz probe")
		s.livenessProbe(w, r)
	})
	s.mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("Handling /readyz probe")
		s.readinessProbe(w, r)
	})
	s.mux.Handle("/metrics", s.auth.wrap(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
}

// Handler returns the route multiplexer.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start listens on addr and serves in the background.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = listener
	s.srv = &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		s.logger.Infof("Server starting on %s", listener.Addr())
		if err := s.srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.WithError(err).Error("Server failed")
		}
	}()
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down gracefully.
func (s *Server) Stop() error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	s.logger.Info("Server exited gracefully")
	return nil
}

func (s *Server) livenessProbe(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		s.logger.Errorf("Failed to write liveness probe response: %v", err)
	}
}

func (s *Server) readinessProbe(w http.ResponseWriter, _ *http.Request) {
	if s.ready != nil && !s.ready() {
		s.logger.Debug("Readiness probe failed: no check pass completed yet")
		w.WriteHeader(http.StatusServiceUnavailable)
		if _, err := w.Write([]byte("NOT READY")); err != nil {
			s.logger.Errorf("Failed to write readiness probe response: %v", err)
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("READY")); err != nil {
		s.logger.Errorf("Failed to write readiness probe response: %v", err)
	}
}
