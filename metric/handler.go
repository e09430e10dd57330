package metric

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/c360/ringbuf/errors"
	"github.com/c360/ringbuf/health"
)

// HealthPath is where Server answers health checks. The metrics path must
// differ from it.
const HealthPath = "/health"

// Server exposes a MetricsRegistry over HTTP
type Server struct {
	port     int
	path     string
	registry *MetricsRegistry
	logger   *slog.Logger

	monitor *health.Monitor
	system  string

	mu       sync.Mutex // protects server and listener
	server   *http.Server
	listener net.Listener
}

// NewServer creates a new metrics server with the provided registry.
// Port 0 picks a free port; use Address after Start to find it.
func NewServer(port int, path string, registry *MetricsRegistry, logger *slog.Logger) *Server {
	if path == "" {
		path = "/metrics"
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		port:     port,
		path:     path,
		registry: registry,
		logger:   logger,
	}
}

// SetHealthMonitor makes /health report the aggregate of monitor as JSON,
// answering 503 while it is unhealthy. Call before Start.
func (s *Server) SetHealthMonitor(monitor *health.Monitor, system string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.monitor = monitor
	s.system = system
}

// Handler returns the HTTP handler serving metrics and health.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle(s.path, promhttp.HandlerFor(
		s.registry.PrometheusRegistry(),
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		},
	))

	monitor, system := s.monitor, s.system
	mux.HandleFunc(HealthPath, func(w http.ResponseWriter, _ *http.Request) {
		if monitor == nil {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("OK"))
			return
		}

		status := monitor.AggregateHealth(system)
		w.Header().Set("Content-Type", "application/json")
		if status.IsUnhealthy() {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		if err := json.NewEncoder(w).Encode(status); err != nil {
			s.logger.Debug("Health response write failed", "error", err)
		}
	})

	return mux
}

// Start binds the listener and serves in the background. It returns once the
// port is bound so callers can rely on Address immediately.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return errors.WrapInvalid(errors.ErrAlreadyStarted, "Server", "Start",
			"start metrics server")
	}
	if s.registry == nil {
		return errors.WrapFatal(fmt.Errorf("nil registry"), "Server", "Start",
			"metrics registry not provided")
	}
	if path.Clean(s.path) == HealthPath {
		return errors.WrapInvalid(fmt.Errorf("%w: metrics path %q collides with %s",
			errors.ErrInvalidConfig, s.path, HealthPath), "Server", "Start", "check metrics path")
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return errors.WrapFatal(err, "Server", "Start",
			fmt.Sprintf("listen on port %d", s.port))
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.server = srv
	s.listener = ln

	go func() {
		if err := srv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Metrics server stopped", "error", err)
		}
	}()

	s.logger.Info("Metrics server started", "address", s.addressLocked())
	return nil
}

// Stop shuts the server down, waiting for in-flight scrapes until ctx is done
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return nil
	}

	err := s.server.Shutdown(ctx)
	s.server = nil
	s.listener = nil
	if err != nil {
		return errors.WrapTransient(err, "Server", "Stop", "shutdown HTTP server")
	}
	return nil
}

// Address returns the metrics URL, or "" when the server is not running
func (s *Server) Address() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addressLocked()
}

func (s *Server) addressLocked() string {
	if s.listener == nil {
		return ""
	}
	return fmt.Sprintf("http://%s%s", s.listener.Addr().String(), s.path)
}
