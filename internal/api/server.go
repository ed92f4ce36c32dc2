package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Server wraps a chi router bound to a fixed listen port, the way the
// teacher's internal/api.Server wraps one bound to a dynamically-allocated
// port; sublarr's port is operator-configured (spec §6 Environment) rather
// than discovered by a desktop host process, so Config.Port is no longer
// optional.
type Server struct {
	router chi.Router
	server *http.Server
	log    zerolog.Logger
}

type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Host:         "0.0.0.0",
		Port:         6767,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// NewServer builds the full route table over deps, mirroring the teacher's
// chi.NewRouter + middleware.RequestID/RealIP/Recoverer stack.
func NewServer(cfg Config, deps Dependencies) *Server {
	log := deps.Log.With().Str("component", "api_server").Logger()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))
	r.Use(corsMiddleware)

	mountRoutes(r, deps)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	return &Server{
		router: r,
		log:    log,
		server: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}
}

func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("binding api listener: %w", err)
	}
	s.log.Info().Str("addr", s.server.Addr).Msg("api server listening")
	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error().Err(err).Msg("api server error")
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down api server")
	return s.server.Shutdown(ctx)
}

func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(wrapped, r)
			log.Trace().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", wrapped.Status()).
				Dur("duration", time.Since(start)).
				Msg("http request")
		})
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
