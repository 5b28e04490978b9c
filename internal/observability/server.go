// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package observability provides HTTP endpoints for metrics and health checks.
package observability

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/oops"

	"github.com/holomush/holoauth/internal/auth"
	"github.com/holomush/holoauth/internal/session"
)

// ReadinessChecker returns whether the service is ready to accept requests.
type ReadinessChecker func() bool

// Metrics contains the HoloAuth Prometheus counters. It implements
// auth.Recorder, and SessionExpired fits session.WithEvictHook.
type Metrics struct {
	LoginsTotal             *prometheus.CounterVec
	RegistrationsTotal      *prometheus.CounterVec
	PasswordResetsTotal     *prometheus.CounterVec
	PasswordUpdatesTotal    *prometheus.CounterVec
	SessionExpirationsTotal prometheus.Counter
}

// NewMetrics creates and registers the HoloAuth metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	byResult := func(name, help string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "holoauth",
			Name:      name,
			Help:      help,
		}, []string{"result"})
	}

	m := &Metrics{
		LoginsTotal:          byResult("logins_total", "Login attempts by result"),
		RegistrationsTotal:   byResult("registrations_total", "Account registrations by result"),
		PasswordResetsTotal:  byResult("password_resets_total", "Reset token requests by result"),
		PasswordUpdatesTotal: byResult("password_updates_total", "Password updates by result"),
		SessionExpirationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "holoauth",
			Name:      "session_expirations_total",
			Help:      "Sessions evicted because they expired",
		}),
	}

	reg.MustRegister(
		m.LoginsTotal,
		m.RegistrationsTotal,
		m.PasswordResetsTotal,
		m.PasswordUpdatesTotal,
		m.SessionExpirationsTotal,
	)
	return m
}

// Login counts a login outcome.
func (m *Metrics) Login(result string) { m.LoginsTotal.WithLabelValues(result).Inc() }

// Registration counts a registration outcome.
func (m *Metrics) Registration(result string) { m.RegistrationsTotal.WithLabelValues(result).Inc() }

// ResetIssued counts a reset request outcome.
func (m *Metrics) ResetIssued(result string) { m.PasswordResetsTotal.WithLabelValues(result).Inc() }

// PasswordUpdated counts a password update outcome.
func (m *Metrics) PasswordUpdated(result string) {
	m.PasswordUpdatesTotal.WithLabelValues(result).Inc()
}

// SessionExpired counts an evicted session.
func (m *Metrics) SessionExpired(session.Record) { m.SessionExpirationsTotal.Inc() }

var _ auth.Recorder = (*Metrics)(nil)

// Server provides HTTP endpoints for observability (metrics and health probes).
type Server struct {
	addr       string
	listener   net.Listener
	httpServer *http.Server
	registry   *prometheus.Registry
	metrics    *Metrics
	isReady    ReadinessChecker
	running    atomic.Bool
}

// NewServer creates a new observability server.
// addr: listen address in "host:port" format (e.g., "127.0.0.1:9100", ":9100" for all interfaces).
func NewServer(addr string, readinessChecker ReadinessChecker) *Server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	metrics := NewMetrics(registry)

	s := &Server{
		addr:     addr,
		registry: registry,
		metrics:  metrics,
		isReady:  readinessChecker,
	}

	return s
}

// Metrics returns the counters to hand to the auth service and session stack.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Start begins serving observability endpoints. The returned channel
// carries a serve failure and is closed when the server stops.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Code("OBSERVABILITY_RUNNING").Errorf("observability server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.Code("OBSERVABILITY_LISTEN_FAILED").With("addr", s.addr).Wrap(err)
	}
	s.listener = listener

	mux := http.NewServeMux()

	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))

	// Kubernetes-style health probes
	mux.HandleFunc("/healthz/liveness", s.handleLiveness)
	mux.HandleFunc("/healthz/readiness", s.handleReadiness)

	httpSrv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)

	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			slog.Error("observability server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	slog.Info("observability server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop gracefully shuts down the observability server.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.running.Store(true)
			return oops.With("operation", "shutdown_observability_server").Wrap(err)
		}
	}

	slog.Info("observability server stopped")
	return nil
}

// Addr returns the address the server is listening on.
// Returns empty string if not running.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// handleLiveness returns 200 while the process is up.
func (s *Server) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // health check write error is acceptable, client may disconnect
	w.Write([]byte("ok\n"))
}

// handleReadiness returns 200 when the readiness checker passes, else 503.
func (s *Server) handleReadiness(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if s.isReady == nil || s.isReady() {
		w.WriteHeader(http.StatusOK)
		//nolint:errcheck // health check write error is acceptable, client may disconnect
		w.Write([]byte("ok\n"))
		return
	}

	w.WriteHeader(http.StatusServiceUnavailable)
	//nolint:errcheck // health check write error is acceptable, client may disconnect
	w.Write([]byte("not ready\n"))
}
