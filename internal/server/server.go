package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/FreePeak/mcp-dev-server/internal/logger"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"

	pingTimeout     = 2 * time.Second
	shutdownTimeout = 10 * time.Second
)

// Pinger is a connector whose liveness can be checked
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse is the body served on /health
type HealthResponse struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Server is the HTTP surface: health, metrics and optionally the SSE routes
type Server struct {
	addr    string
	service string
	checks  map[string]Pinger
	router  chi.Router
	now     func() time.Time
}

// New builds a server listening on addr. metrics may be nil.
func New(addr, service string, checks map[string]Pinger, metrics http.Handler) *Server {
	s := &Server{
		addr:    addr,
		service: service,
		checks:  checks,
		now:     time.Now,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}

	s.router = r
	return s
}

// Mount attaches handler under pattern
func (s *Server) Mount(pattern string, handler http.Handler) {
	s.router.Mount(pattern, handler)
}

// Handler exposes the HTTP handler for embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	logger.Info("HTTP server listening on %s", ln.Addr())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("HTTP server shutdown: %v", err)
		}
		err := <-errCh
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:    statusHealthy,
		Service:   s.service,
		Timestamp: s.now().UTC().Format(time.RFC3339),
	}

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	var failed []string
	for _, name := range names {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		err := s.checks[name].Ping(ctx)
		cancel()
		if err != nil {
			logger.Warn("Health check %s failed: %v", name, err)
			failed = append(failed, name)
			if resp.Checks == nil {
				resp.Checks = make(map[string]string, len(names))
			}
			resp.Checks[name] = err.Error()
		}
	}

	status := http.StatusOK
	if len(failed) > 0 {
		resp.Status = statusDegraded
		for _, name := range names {
			if _, bad := resp.Checks[name]; !bad {
				resp.Checks[name] = "ok"
			}
		}
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error("Failed to write health response: %v", err)
	}
}
