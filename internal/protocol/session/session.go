package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/ircbot/internal/commands"
	"github.com/danmuck/ircbot/internal/parser"
	"github.com/danmuck/ircbot/internal/protocol"
)

const (
	greetingFormat = "%s has connected."
	failureFormat  = "Encountered an error while processing: `%s` _(got `%v`)_."
)

var errStopped = errors.New("session: stopped")

// LineParser turns a raw line into an optional command.
type LineParser interface {
	Parse(line string) (parser.Command, bool)
}

// Dispatcher runs a parsed command.
type Dispatcher interface {
	Invoke(ctx context.Context, inv commands.Invocation) (string, error)
}

// Observer receives loop events for metrics. Calls happen on the loop
// goroutine and must not block.
type Observer interface {
	LineReceived(kind protocol.Kind)
	CommandDispatched(name string, err error)
	StateChanged(state State)
}

type nopObserver struct{}

func (nopObserver) LineReceived(protocol.Kind)      {}
func (nopObserver) CommandDispatched(string, error) {}
func (nopObserver) StateChanged(State)              {}

type Options struct {
	Params   Params
	Config   Config
	Parser   LineParser
	Commands Dispatcher
	Logger   *zerolog.Logger
	Observer Observer
	// Dial overrides the transport, mostly for tests.
	Dial DialFunc
}

// Snapshot is a point-in-time copy of session progress.
type Snapshot struct {
	ID                 string    `json:"id"`
	State              string    `json:"state"`
	Ready              bool      `json:"ready"`
	Greeted            bool      `json:"greeted"`
	ConnectedAt        time.Time `json:"connected_at,omitempty"`
	LinesReceived      uint64    `json:"lines_received"`
	CommandsDispatched uint64    `json:"commands_dispatched"`
	LastCommand        string    `json:"last_command,omitempty"`
}

// Session is one connection lifetime: dial, handshake, join, then the
// receive/evaluate loop. It is not reusable; build a new one per attempt.
type Session struct {
	id       string
	params   Params
	cfg      Config
	parser   LineParser
	commands Dispatcher
	observer Observer
	dial     DialFunc
	logger   zerolog.Logger

	mu                 sync.Mutex
	conn               net.Conn
	state              State
	started            bool
	stopped            bool
	ready              bool
	greeted            bool
	connectedAt        time.Time
	linesReceived      uint64
	commandsDispatched uint64
	lastCommand        string
}

func New(opts Options) (*Session, error) {
	params := opts.Params.WithDefaults()
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if opts.Parser == nil {
		return nil, fmt.Errorf("%w: parser required", ErrInvalidParams)
	}
	if opts.Commands == nil {
		return nil, fmt.Errorf("%w: command dispatcher required", ErrInvalidParams)
	}
	cfg := opts.Config.WithDefaults()
	if err := cfg.ValidateClientTransport(); err != nil {
		return nil, err
	}

	s := &Session{
		id:       uuid.NewString(),
		params:   params,
		cfg:      cfg,
		parser:   opts.Parser,
		commands: opts.Commands,
		observer: opts.Observer,
		dial:     opts.Dial,
	}
	if s.observer == nil {
		s.observer = nopObserver{}
	}
	if s.dial == nil {
		s.dial = Dial
	}
	base := log.Logger
	if opts.Logger != nil {
		base = *opts.Logger
	}
	s.logger = base.With().Str("session_id", s.id).Logger()
	return s, nil
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Params() Params {
	return s.params
}

// Run drives the session until it is stopped, the server rejects the
// credentials, or the transport fails. A stopped session returns nil;
// credential rejection returns ErrAuthenticationFailed; transport failures
// come back as *TransportError.
func (s *Session) Run(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrSessionStarted
	}
	s.started = true
	stopped := s.stopped
	s.mu.Unlock()
	if stopped {
		return nil
	}

	stopWatch := context.AfterFunc(ctx, s.Stop)
	defer stopWatch()
	defer s.setState(StateTerminated)

	s.setState(StateConnecting)
	address := s.params.Address()
	s.logger.Debug().Msgf("session.Session.Run connect address=%s tls=%t", address, s.cfg.TLS.Enabled)
	conn, err := s.dial(ctx, s.cfg, address)
	if err != nil {
		if s.isStopped() {
			return nil
		}
		return &TransportError{Op: "connect", Err: err}
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		_ = conn.Close()
		return nil
	}
	s.conn = conn
	s.connectedAt = time.Now().UTC()
	s.mu.Unlock()
	defer func() {
		_ = conn.Close()
	}()
	s.logger.Info().Msgf("session.Session.Run connected address=%s", address)

	if err := s.handshake(); err != nil {
		if s.isStopped() {
			return nil
		}
		return err
	}

	reader := bufio.NewReader(conn)
	for {
		if s.isStopped() {
			s.logger.Info().Msg("session.Session.Run stopped")
			return nil
		}
		line, err := s.receive(reader)
		if err != nil {
			if s.isStopped() {
				s.logger.Info().Msg("session.Session.Run stopped")
				return nil
			}
			return &TransportError{Op: "receive", Err: err}
		}
		if err := s.handleLine(ctx, line); err != nil {
			if s.isStopped() && IsTransport(err) {
				return nil
			}
			return err
		}
	}
}

// Stop ends the loop at its next iteration and wakes a pending receive.
// Safe to call from any goroutine, any number of times.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.stopped = true
	if s.conn != nil {
		_ = s.conn.SetReadDeadline(time.Now())
	}
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:                 s.id,
		State:              s.state.String(),
		Ready:              s.ready,
		Greeted:            s.greeted,
		ConnectedAt:        s.connectedAt,
		LinesReceived:      s.linesReceived,
		CommandsDispatched: s.commandsDispatched,
		LastCommand:        s.lastCommand,
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) handshake() error {
	s.setState(StateHandshaking)
	p := s.params
	for _, line := range []string{
		protocol.UserLine(p.Nickname, p.Hostname, p.Server, p.DisplayName),
		protocol.PassLine(p.Password),
		protocol.NickLine(p.Nickname),
	} {
		if err := s.send(line); err != nil {
			return err
		}
	}

	s.setState(StateJoining)
	if err := s.send(protocol.JoinLine(p.Channel)); err != nil {
		return err
	}
	s.setState(StateAwaitingReady)
	return nil
}

func (s *Session) handleLine(ctx context.Context, line string) error {
	kind := protocol.Classify(line, s.params.Username)
	s.mu.Lock()
	s.linesReceived++
	s.mu.Unlock()
	s.observer.LineReceived(kind)

	switch kind {
	case protocol.KindPing:
		return s.send(protocol.PongLine)
	case protocol.KindAuthFailure:
		s.logger.Error().Msgf("session.Session.handleLine credentials rejected username=%s", s.params.Username)
		return ErrAuthenticationFailed
	case protocol.KindMOTDEnd:
		s.markReady()
		return s.greet()
	}

	if err := s.greet(); err != nil {
		return err
	}
	return s.evaluate(ctx, line)
}

func (s *Session) markReady() {
	s.mu.Lock()
	already := s.ready
	s.ready = true
	s.mu.Unlock()
	if !already {
		s.setState(StateReady)
		s.logger.Info().Msg("session.Session.markReady ready")
	}
}

// greet notifies the owner once per session, and only after ready.
func (s *Session) greet() error {
	s.mu.Lock()
	if !s.ready || s.greeted {
		s.mu.Unlock()
		return nil
	}
	s.greeted = true
	s.mu.Unlock()
	return s.sendOwner(fmt.Sprintf(greetingFormat, s.params.Nickname))
}

// evaluate parses and dispatches one line. Parse and handler failures are
// reported to the owner; only send failures escape.
func (s *Session) evaluate(ctx context.Context, line string) error {
	name, resp, err := s.dispatch(ctx, line)
	if name == "" && err == nil {
		return nil
	}
	if err != nil {
		s.logger.Warn().Err(err).Msgf("session.Session.evaluate command failed command=%s", name)
		return s.sendOwner(fmt.Sprintf(failureFormat, line, err))
	}
	if resp == "" {
		return nil
	}
	return s.sendOwner(resp)
}

func (s *Session) dispatch(ctx context.Context, line string) (name, resp string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			resp = ""
			err = fmt.Errorf("%w: %v", ErrEvaluationPanic, rec)
		}
	}()

	cmd, ok := s.parser.Parse(line)
	if !ok {
		return "", "", nil
	}
	name = cmd.Name
	s.logger.Debug().Msgf("session.Session.dispatch command=%s args=%q", cmd.Name, cmd.Args)
	resp, err = s.commands.Invoke(ctx, commands.Invocation{
		Name:   cmd.Name,
		Args:   cmd.Args,
		Sender: protocol.Sender(line),
	})

	s.mu.Lock()
	s.commandsDispatched++
	s.lastCommand = cmd.Name
	s.mu.Unlock()
	s.observer.CommandDispatched(cmd.Name, err)
	return name, resp, err
}

func (s *Session) sendOwner(text string) error {
	return s.send(protocol.PrivmsgLine(s.params.Channel, s.params.OwnerMention()+" "+text))
}

func (s *Session) send(line string) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return &TransportError{Op: "send", Err: net.ErrClosed}
	}
	if s.cfg.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
	if _, err := conn.Write([]byte(line)); err != nil {
		return &TransportError{Op: "send", Err: err}
	}
	return nil
}

func (s *Session) receive(reader *bufio.Reader) (string, error) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return "", errStopped
	}
	var deadline time.Time
	if s.cfg.ReadTimeout > 0 {
		deadline = time.Now().Add(s.cfg.ReadTimeout)
	}
	err := s.conn.SetReadDeadline(deadline)
	s.mu.Unlock()
	if err != nil {
		return "", err
	}

	raw, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return protocol.TrimLine(raw), nil
}

func (s *Session) isStopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	changed := s.state != state
	s.state = state
	s.mu.Unlock()
	if changed {
		s.observer.StateChanged(state)
		s.logger.Debug().Msgf("session.Session.setState state=%s", state)
	}
}
