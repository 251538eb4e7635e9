// Package supervisor keeps a session alive across transport failures.
//
// The loop is iterative: each transport fault advances one attempt counter,
// sleeps for the matching backoff delay and builds a fresh session. The
// counter is owned here and never shared with the session it supervises.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/ircbot/internal/protocol/session"
)

var ErrFactoryRequired = errors.New("supervisor: session factory required")

// Runner is one supervised connection lifetime.
type Runner interface {
	Run(ctx context.Context) error
	Stop()
}

// Factory builds a fresh Runner for each attempt. A factory error is fatal.
type Factory func(ctx context.Context) (Runner, error)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

type Config struct {
	Backoff session.BackoffConfig
	// AuthRetryLimit is how many credential rejections are retried before
	// giving up. Zero means the first rejection is final.
	AuthRetryLimit int
	Sleep          SleepFunc
	// OnBackoff runs before every sleep with the new attempt and its delay.
	OnBackoff func(attempt int, delay time.Duration)
	Logger    *zerolog.Logger
}

type Supervisor struct {
	factory Factory
	cfg     Config
	logger  zerolog.Logger

	mu           sync.Mutex
	attempt      int
	faults       int
	authFailures int
	current      Runner
	cancel       context.CancelFunc
	stopped      bool
}

func New(factory Factory, cfg Config) (*Supervisor, error) {
	if factory == nil {
		return nil, ErrFactoryRequired
	}
	if cfg.Backoff.Unit <= 0 {
		cfg.Backoff.Unit = session.DefaultBackoffConfig().Unit
	}
	if cfg.Backoff.MaxExponent <= 0 {
		cfg.Backoff.MaxExponent = session.DefaultBackoffConfig().MaxExponent
	}
	if cfg.AuthRetryLimit < 0 {
		cfg.AuthRetryLimit = 0
	}
	if cfg.Sleep == nil {
		cfg.Sleep = sleepContext
	}
	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	return &Supervisor{
		factory: factory,
		cfg:     cfg,
		logger:  logger,
	}, nil
}

// Run returns nil when stopped or cancelled. It returns the session's error
// for anything that is not retried: credential rejection past the configured
// limit, or a non-transport failure.
func (s *Supervisor) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.cancel = cancel
	s.mu.Unlock()

	for {
		if ctx.Err() != nil {
			return nil
		}

		runner, err := s.factory(ctx)
		if err != nil {
			return fmt.Errorf("supervisor: build session: %w", err)
		}
		if !s.setCurrent(runner) {
			return nil
		}
		err = runner.Run(ctx)
		s.setCurrent(nil)

		if ctx.Err() != nil {
			return nil
		}
		switch {
		case err == nil:
			s.logger.Info().Msg("supervisor.Supervisor.Run session finished")
			return nil
		case session.IsTransport(err):
			s.logger.Warn().Err(err).Msg("supervisor.Supervisor.Run transport fault")
		case errors.Is(err, session.ErrAuthenticationFailed):
			if !s.allowAuthRetry() {
				s.logger.Error().Err(err).Msgf("supervisor.Supervisor.Run giving up auth_retry_limit=%d", s.cfg.AuthRetryLimit)
				return err
			}
			s.logger.Warn().Err(err).Msgf("supervisor.Supervisor.Run retrying rejected credentials auth_retry_limit=%d", s.cfg.AuthRetryLimit)
		default:
			s.logger.Error().Err(err).Msg("supervisor.Supervisor.Run fatal session error")
			return err
		}

		attempt, delay := s.advance()
		if s.cfg.OnBackoff != nil {
			s.cfg.OnBackoff(attempt, delay)
		}
		s.logger.Info().Msgf("supervisor.Supervisor.Run reconnect attempt=%d delay=%s", attempt, delay)
		if err := s.cfg.Sleep(ctx, delay); err != nil {
			return nil
		}
	}
}

// Stop ends the loop and the session it is currently running.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	s.stopped = true
	current := s.current
	cancel := s.cancel
	s.mu.Unlock()
	if current != nil {
		current.Stop()
	}
	if cancel != nil {
		cancel()
	}
}

// Attempt is the current backoff exponent; zero until the first fault.
func (s *Supervisor) Attempt() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempt
}

// Faults counts every retried failure since Run began.
func (s *Supervisor) Faults() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.faults
}

func (s *Supervisor) setCurrent(r Runner) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r != nil && s.stopped {
		return false
	}
	s.current = r
	return true
}

func (s *Supervisor) allowAuthRetry() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authFailures++
	return s.authFailures <= s.cfg.AuthRetryLimit
}

func (s *Supervisor) advance() (int, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempt = session.NextBackoffAttempt(s.cfg.Backoff, s.attempt)
	s.faults++
	return s.attempt, session.BackoffDelay(s.cfg.Backoff, s.attempt)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
