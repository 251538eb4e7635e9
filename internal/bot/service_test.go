package bot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/danmuck/ircbot/internal/commands"
	"github.com/danmuck/ircbot/internal/config"
	"github.com/danmuck/ircbot/internal/protocol/session"
	"github.com/danmuck/ircbot/internal/testutil/linetest"
	"github.com/danmuck/ircbot/internal/testutil/testlog"
	"github.com/danmuck/ircbot/internal/tools"
)

const (
	handshakeUser = "USER bot 127.0.0.1 127.0.0.1 : bot"
	motdLine      = ":irc.local 376 bot :End of MOTD command"
)

func testServiceConfig(t *testing.T, srv *linetest.Server) ServiceConfig {
	t.Helper()
	host, port := srv.HostPort()
	cfg := DefaultServiceConfig()
	cfg.Bot = config.BotConfig{
		IRC: config.IRCConfig{
			Host:     host,
			Port:     port,
			Channel:  "#c",
			Username: "bot",
			Password: "secret",
		},
		Master: "master",
		Commands: map[string]config.CommandConfig{
			"hello":    {Method: commands.MethodSayHello, Help: "Says hello."},
			"commands": {Method: commands.MethodListCommands, Help: "Lists commands."},
			"uptime":   {Method: commands.MethodGetUptime, Help: "Uptime."},
			"kill":     {Method: commands.MethodKillClient, Help: "Stops the bot.", OwnerOnly: true},
		},
		CharacterBlacklist: []string{"*", "_"},
	}.WithDefaults()
	cfg.Session.SecurityMode = session.SecurityModeDevelopment
	cfg.Session.TLS.Enabled = false
	cfg.Session.ReadTimeout = 0
	cfg.HeartbeatInterval = 50 * time.Millisecond
	cfg.Runner = tools.FuncRunner(func(_ context.Context, name string, _ ...string) (string, error) {
		return name + " output", nil
	})
	cfg.Sleep = func(context.Context, time.Duration) error { return nil }
	return cfg
}

func startService(t *testing.T, cfg ServiceConfig) (*Service, <-chan error) {
	t.Helper()
	svc, err := NewService(cfg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	done := make(chan error, 1)
	go func() {
		done <- svc.RunContext(ctx)
	}()
	return svc, done
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(linetest.DefaultWait):
		t.Fatalf("service did not return within %v", linetest.DefaultWait)
		return nil
	}
}

func acceptReady(t *testing.T, srv *linetest.Server) *linetest.Conn {
	t.Helper()
	conn := srv.Accept(linetest.DefaultWait)
	conn.ExpectHandshake(handshakeUser, "PASS secret", "NICK bot", "JOIN #c")
	conn.Send(motdLine)
	conn.Expect("PRIVMSG #c :@master bot has connected.")
	return conn
}

func TestServiceRunsCommandsAndStopsOnKill(t *testing.T) {
	testlog.Start(t)
	srv := linetest.Listen(t)
	svc, done := startService(t, testServiceConfig(t, srv))

	conn := acceptReady(t, srv)
	conn.Send(":u!h@s PRIVMSG #c :@bot *hello_ there")
	conn.Expect("PRIVMSG #c :@master Hello,  there")
	conn.Send(":u!h@s PRIVMSG #c :@bot uptime")
	conn.Expect("PRIVMSG #c :@master uptime output")
	conn.Send(":u!h@s PRIVMSG #c :@bot commands")
	conn.Expect("PRIVMSG #c :@master Available commands are: commands, hello, kill, uptime")

	status := svc.Status()
	if !status.Ready || status.Session == nil || status.Session.CommandsDispatched != 3 {
		t.Fatalf("unexpected status %+v", status)
	}

	conn.Send(":master!h@s PRIVMSG #c :@bot kill")
	if err := waitDone(t, done); err != nil {
		t.Fatalf("expected clean exit after kill, got %v", err)
	}
	if !conn.WaitClosed(linetest.DefaultWait) {
		t.Fatalf("expected connection closed after kill")
	}
}

func TestServiceReconnectsAfterTransportFault(t *testing.T) {
	testlog.Start(t)
	srv := linetest.Listen(t)
	cfg := testServiceConfig(t, srv)

	var mu sync.Mutex
	var delays []time.Duration
	cfg.Sleep = func(_ context.Context, d time.Duration) error {
		mu.Lock()
		defer mu.Unlock()
		delays = append(delays, d)
		return nil
	}
	svc, _ := startService(t, cfg)

	first := acceptReady(t, srv)
	first.Close()

	second := acceptReady(t, srv)
	second.Send(":u!h@s PRIVMSG #c :@bot hello again")
	second.Expect("PRIVMSG #c :@master Hello,  again")

	mu.Lock()
	defer mu.Unlock()
	if len(delays) != 1 || delays[0] != 2*time.Second {
		t.Fatalf("expected one 2s backoff, got %v", delays)
	}
	if svc.Status().Faults != 1 {
		t.Fatalf("expected one fault, got %d", svc.Status().Faults)
	}
}

func TestServiceStopsOnAuthenticationFailure(t *testing.T) {
	testlog.Start(t)
	srv := linetest.Listen(t)
	_, done := startService(t, testServiceConfig(t, srv))

	conn := srv.Accept(linetest.DefaultWait)
	conn.ExpectHandshake(handshakeUser, "PASS secret", "NICK bot", "JOIN #c")
	conn.Send(":slackbot PRIVMSG bot :Invalid user name or password")

	if err := waitDone(t, done); !errors.Is(err, session.ErrAuthenticationFailed) {
		t.Fatalf("expected ErrAuthenticationFailed, got %v", err)
	}
}

func TestServiceStopsOnContextCancel(t *testing.T) {
	testlog.Start(t)
	srv := linetest.Listen(t)
	svc, err := NewService(testServiceConfig(t, srv))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.RunContext(ctx) }()

	_ = acceptReady(t, srv)
	cancel()
	if err := waitDone(t, done); err != nil {
		t.Fatalf("expected nil after cancel, got %v", err)
	}
}

func TestNewServiceRejectsBadConfig(t *testing.T) {
	testlog.Start(t)
	srv := linetest.Listen(t)

	cfg := testServiceConfig(t, srv)
	cfg.Bot.Commands = map[string]config.CommandConfig{"x": {Method: "rmRf"}}
	if _, err := NewService(cfg); !errors.Is(err, commands.ErrUnknownMethod) {
		t.Fatalf("expected ErrUnknownMethod, got %v", err)
	}

	cfg = testServiceConfig(t, srv)
	cfg.Bot.Master = ""
	if _, err := NewService(cfg); !errors.Is(err, config.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}

	cfg = testServiceConfig(t, srv)
	cfg.HeartbeatInterval = 0
	if _, err := NewService(cfg); !errors.Is(err, ErrInvalidHeartbeatInterval) {
		t.Fatalf("expected ErrInvalidHeartbeatInterval, got %v", err)
	}

	cfg = testServiceConfig(t, srv)
	cfg.Session.SecurityMode = session.SecurityModeProduction
	if _, err := NewService(cfg); !errors.Is(err, session.ErrTLSRequired) {
		t.Fatalf("expected ErrTLSRequired, got %v", err)
	}
}

func TestServiceStatusBeforeRun(t *testing.T) {
	testlog.Start(t)
	srv := linetest.Listen(t)
	svc, err := NewService(testServiceConfig(t, srv))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	status := svc.Status()
	if status.Ready || status.Session != nil || status.Uptime != "" {
		t.Fatalf("unexpected pre-run status %+v", status)
	}
	if got := len(svc.Commands()); got != 4 {
		t.Fatalf("expected 4 commands, got %d", got)
	}
}
