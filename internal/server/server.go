// Package server exposes the bot's admin HTTP endpoint: liveness, readiness,
// status, the command table and prometheus metrics.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/ircbot/internal/commands"
	"github.com/danmuck/ircbot/internal/observability"
	"github.com/danmuck/ircbot/internal/protocol/session"
)

const shutdownTimeout = 5 * time.Second

var ErrSourceRequired = errors.New("server: status source required")

// Status is the bot-wide view served at /status.
type Status struct {
	Ready     bool              `json:"ready"`
	StartedAt time.Time         `json:"started_at"`
	Uptime    string            `json:"uptime"`
	Attempt   int               `json:"backoff_attempt"`
	Faults    int               `json:"faults"`
	Session   *session.Snapshot `json:"session,omitempty"`
}

// Source is what the admin endpoint reports on.
type Source interface {
	Status() Status
	Commands() []commands.Spec
}

type CommandInfo struct {
	Name      string `json:"name"`
	Method    string `json:"method"`
	Help      string `json:"help"`
	OwnerOnly bool   `json:"owner_only"`
}

type Config struct {
	Addr        string
	CorsOrigins []string
}

type Server struct {
	cfg    Config
	source Source
	router *gin.Engine
}

func New(cfg Config, source Source) (*Server, error) {
	if source == nil {
		return nil, ErrSourceRequired
	}
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(observability.Component("server")))
	r.Use(observability.RequestMetricsMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(cfg.CorsOrigins),
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{cfg: cfg, source: source, router: r}
	s.registerRoutes()
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s.router.GET("/ready", func(c *gin.Context) {
		status := s.source.Status()
		code := http.StatusOK
		if !status.Ready {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{"ready": status.Ready})
	})

	s.router.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.source.Status())
	})

	s.router.GET("/commands", func(c *gin.Context) {
		specs := s.source.Commands()
		out := make([]CommandInfo, 0, len(specs))
		for _, spec := range specs {
			out = append(out, CommandInfo{
				Name:      spec.Name,
				Method:    spec.Method,
				Help:      spec.Help,
				OwnerOnly: spec.OwnerOnly,
			})
		}
		c.JSON(http.StatusOK, gin.H{"commands": out})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// ListenAndServe binds cfg.Addr and serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	log.Info().Msgf("server.Server.Serve listening addr=%s", ln.Addr())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("server.Server.Serve shutdown failed")
			return err
		}
		log.Info().Msg("server.Server.Serve stopped")
		return nil
	}
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
