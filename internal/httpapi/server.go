// Package httpapi is the diagnostic HTTP surface: liveness/readiness via
// internal/health, Prometheus exposition, and a read-only per-connection
// metrics endpoint. It never issues lifecycle commands — those remain
// bus-originated. Follows the same chi.Router + promhttp +
// sync.Once-guarded Shutdown shape as pkg/http_server/chi_server.Server.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eclipse-ditto-go/connectivity-core/internal/health"
	"github.com/eclipse-ditto-go/connectivity-core/internal/metrics"
	"github.com/eclipse-ditto-go/connectivity-core/internal/observability"
)

// Server is the chi-routed diagnostic HTTP surface.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	o11y       observability.Observability

	health        *health.Registry
	healthTimeout time.Duration
	metricsReg    *metrics.Registry
	shutdownOnce  sync.Once
}

// New builds a Server listening on addr, backed by healthRegistry for
// /healthz and metricsRegistry for /connections/{id}/metrics.
func New(addr string, healthRegistry *health.Registry, healthTimeout time.Duration, metricsRegistry *metrics.Registry, o11y observability.Observability) *Server {
	s := &Server{
		o11y:          o11y,
		health:        healthRegistry,
		healthTimeout: healthTimeout,
		metricsReg:    metricsRegistry,
	}

	s.router = chi.NewRouter()
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())
	s.router.Get("/connections/{id}/metrics", s.handleConnectionMetrics)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.health.Run(r.Context(), s.healthTimeout)
	w.Header().Set("Content-Type", "application/json")
	if status.Status != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(status)
}

// connectionMetricsResponse gives operators without signal-bus access a
// read-only view of one connection's source/target metrics.
type connectionMetricsResponse struct {
	ConnectionID string                           `json:"connectionId"`
	Sources      map[string]metrics.AddressMetric `json:"sourceMetrics"`
	Targets      map[string]metrics.AddressMetric `json:"targetMetrics"`
}

func (s *Server) handleConnectionMetrics(w http.ResponseWriter, r *http.Request) {
	connectionID := chi.URLParam(r, "id")
	now := time.Now()

	resp := connectionMetricsResponse{
		ConnectionID: connectionID,
		Sources:      s.metricsReg.AggregateSources(connectionID, now),
		Targets:      s.metricsReg.AggregateTargets(connectionID, now),
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.o11y.Logger().Info(ctx, "starting diagnostic HTTP server",
		observability.String("address", s.httpServer.Addr))

	serverErr := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		s.o11y.Logger().Error(ctx, "diagnostic HTTP server failed", observability.Error(err))
		return err
	case <-ctx.Done():
		s.o11y.Logger().Info(ctx, "context cancelled, shutting down diagnostic HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown gracefully stops the server. Idempotent.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.o11y.Logger().Error(ctx, "error shutting down diagnostic HTTP server", observability.Error(err))
			shutdownErr = err
		}
	})
	return shutdownErr
}
