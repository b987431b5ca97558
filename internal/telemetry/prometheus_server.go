package telemetry

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	prometheusHostEnv    = "OTEL_EXPORTER_PROMETHEUS_HOST"
	prometheusPortEnv    = "OTEL_EXPORTER_PROMETHEUS_PORT"
	defaultPrometheusHost = "0.0.0.0"
	defaultPrometheusPort = "9464"
)

// PrometheusServer exposes /metrics for scraping when
// OTEL_METRICS_EXPORTER=prometheus was selected. It runs standalone, on its
// own listener, separate from the control-plane server.
type PrometheusServer struct {
	server *http.Server
}

// NewPrometheusServer builds a server bound to
// OTEL_EXPORTER_PROMETHEUS_HOST:PORT (defaulting to 0.0.0.0:9464).
func NewPrometheusServer() *PrometheusServer {
	host := os.Getenv(prometheusHostEnv)
	if host == "" {
		host = defaultPrometheusHost
	}
	port := os.Getenv(prometheusPortEnv)
	if port == "" {
		port = defaultPrometheusPort
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &PrometheusServer{
		server: &http.Server{
			Addr:    net.JoinHostPort(host, port),
			Handler: mux,
		},
	}
}

// Start runs the server until it errors or is shut down, logging the outcome.
func (s *PrometheusServer) Start(logger *slog.Logger) {
	logger.Info("prometheus metrics server listening", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("prometheus metrics server stopped", "error", err)
	}
}

// Stop gracefully shuts the server down.
func (s *PrometheusServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
