// Package bot wires configuration, the command stack, the session factory
// and the reconnect supervisor into one process lifecycle.
package bot

import (
	"context"
	"errors"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/danmuck/ircbot/internal/commands"
	"github.com/danmuck/ircbot/internal/config"
	"github.com/danmuck/ircbot/internal/observability"
	"github.com/danmuck/ircbot/internal/parser"
	"github.com/danmuck/ircbot/internal/protocol/session"
	"github.com/danmuck/ircbot/internal/server"
	"github.com/danmuck/ircbot/internal/supervisor"
	"github.com/danmuck/ircbot/internal/tools"
)

var ErrInvalidHeartbeatInterval = errors.New("bot: heartbeat interval must be positive")

type ServiceConfig struct {
	Bot               config.BotConfig
	Session           session.Config
	HeartbeatInterval time.Duration
	AdminListenAddr   string
	CorsOrigins       []string

	// Runner, Dial and Sleep override the defaults, mostly for tests.
	Runner tools.CommandRunner
	Dial   session.DialFunc
	Sleep  supervisor.SleepFunc
}

func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Session:           session.DefaultConfig(),
		HeartbeatInterval: 30 * time.Second,
	}
}

// Service runs the bot until a signal, a kill command, or a fatal error.
type Service struct {
	cfg       ServiceConfig
	registry  *commands.Registry
	parser    *parser.Parser
	sup       *supervisor.Supervisor
	admin     *server.Server
	logger    zerolog.Logger
	startedAt time.Time

	mu      sync.RWMutex
	current *session.Session
	cancel  context.CancelFunc
	stopped bool
}

func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.HeartbeatInterval <= 0 {
		return nil, ErrInvalidHeartbeatInterval
	}
	if err := cfg.Bot.Validate(); err != nil {
		return nil, err
	}
	cfg.Session = cfg.Session.WithDefaults()
	if err := cfg.Session.ValidateClientTransport(); err != nil {
		return nil, err
	}

	s := &Service{
		cfg:    cfg,
		logger: observability.Component("bot"),
	}
	reg, p, err := BuildCommandStack(cfg.Bot, cfg.Runner, s.Shutdown)
	if err != nil {
		return nil, err
	}
	s.registry = reg
	s.parser = p

	supLogger := observability.Component("supervisor")
	s.sup, err = supervisor.New(s.newSession, supervisor.Config{
		Backoff:        cfg.Session.Backoff,
		AuthRetryLimit: cfg.Bot.AuthRetryLimit,
		Sleep:          cfg.Sleep,
		OnBackoff:      observability.RecordBackoff,
		Logger:         &supLogger,
	})
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.AdminListenAddr) != "" {
		s.admin, err = server.New(server.Config{
			Addr:        cfg.AdminListenAddr,
			CorsOrigins: cfg.CorsOrigins,
		}, s)
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Run blocks until SIGINT/SIGTERM or another shutdown condition.
func (s *Service) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.RunContext(ctx)
}

func (s *Service) RunContext(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.cancel = cancel
	s.startedAt = time.Now().UTC()
	s.mu.Unlock()

	s.logger.Info().Msgf(
		"bot.Service.Run starting server=%s:%d channel=%s commands=%d admin=%q",
		s.cfg.Bot.IRC.Host,
		s.cfg.Bot.IRC.Port,
		s.cfg.Bot.IRC.Channel,
		s.registry.Len(),
		s.cfg.AdminListenAddr,
	)

	supErr := make(chan error, 1)
	go func() {
		supErr <- s.sup.Run(ctx)
	}()
	adminErr := make(chan error, 1)
	if s.admin != nil {
		go func() {
			adminErr <- s.admin.ListenAndServe(ctx)
		}()
	}

	ticker := time.NewTicker(s.cfg.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.sup.Stop()
			err := <-supErr
			s.logger.Info().Msg("bot.Service.Run shutdown")
			return err
		case err := <-supErr:
			if err != nil {
				s.logger.Error().Err(err).Msg("bot.Service.Run supervisor exited")
			}
			return err
		case err := <-adminErr:
			if err != nil {
				s.logger.Error().Err(err).Msg("bot.Service.Run admin endpoint failed")
				s.sup.Stop()
				<-supErr
				return err
			}
		case <-ticker.C:
			status := s.Status()
			state := session.StateDisconnected.String()
			if status.Session != nil {
				state = status.Session.State
			}
			s.logger.Info().Msgf(
				"bot.Service.heartbeat state=%s ready=%t attempt=%d faults=%d",
				state,
				status.Ready,
				status.Attempt,
				status.Faults,
			)
		}
	}
}

// Shutdown requests a graceful stop. Safe from any goroutine, including a
// command handler running inside the session loop.
func (s *Service) Shutdown() {
	s.mu.Lock()
	s.stopped = true
	cancel := s.cancel
	s.mu.Unlock()
	s.logger.Info().Msg("bot.Service.Shutdown requested")
	s.sup.Stop()
	if cancel != nil {
		cancel()
	}
}

func (s *Service) Status() server.Status {
	s.mu.RLock()
	current := s.current
	startedAt := s.startedAt
	s.mu.RUnlock()

	status := server.Status{
		StartedAt: startedAt,
		Attempt:   s.sup.Attempt(),
		Faults:    s.sup.Faults(),
	}
	if !startedAt.IsZero() {
		status.Uptime = time.Since(startedAt).Round(time.Second).String()
	}
	if current != nil {
		snap := current.Snapshot()
		status.Session = &snap
		status.Ready = snap.Ready && snap.State == session.StateReady.String()
	}
	return status
}

func (s *Service) Commands() []commands.Spec {
	return s.registry.Specs()
}

func (s *Service) Registry() *commands.Registry {
	return s.registry
}

func (s *Service) Parser() *parser.Parser {
	return s.parser
}

func (s *Service) newSession(context.Context) (supervisor.Runner, error) {
	irc := s.cfg.Bot.IRC
	logger := observability.Component("session")
	sess, err := session.New(session.Options{
		Params: session.Params{
			Server:      irc.Host,
			Port:        irc.Port,
			Username:    irc.Username,
			Password:    irc.Password,
			Channel:     irc.Channel,
			DisplayName: irc.Name,
			Hostname:    irc.Hostname,
			Owner:       s.cfg.Bot.Master,
		},
		Config:   s.cfg.Session,
		Parser:   s.parser,
		Commands: s.registry,
		Logger:   &logger,
		Observer: observability.SessionMetrics{},
		Dial:     s.cfg.Dial,
	})
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.current = sess
	s.mu.Unlock()
	return sess, nil
}
