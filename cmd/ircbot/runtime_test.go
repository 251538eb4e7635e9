package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/ircbot/internal/bot"
	"github.com/danmuck/ircbot/internal/protocol/session"
	"github.com/danmuck/ircbot/internal/testutil/testlog"
)

func TestLoadRuntimeConfigDefaultsAndOverrides(t *testing.T) {
	testlog.Start(t)
	cfg, err := loadRuntimeConfig("ex.runtime.toml", bot.DefaultServiceConfig())
	if err != nil {
		t.Fatalf("load runtime: %v", err)
	}
	if cfg.Session.SecurityMode != session.SecurityModeDevelopment {
		t.Fatalf("unexpected security mode: %q", cfg.Session.SecurityMode)
	}
	if cfg.Session.TLS.Enabled {
		t.Fatalf("expected tls disabled")
	}
	if cfg.Session.ConnectTimeout != 5*time.Second {
		t.Fatalf("unexpected connect timeout: %v", cfg.Session.ConnectTimeout)
	}
	if cfg.Session.ReadTimeout != 5*time.Minute {
		t.Fatalf("unexpected read timeout: %v", cfg.Session.ReadTimeout)
	}
	if cfg.Session.HandshakeTimeout != session.DefaultConfig().HandshakeTimeout {
		t.Fatalf("handshake timeout should keep its default, got %v", cfg.Session.HandshakeTimeout)
	}
	if cfg.HeartbeatInterval != time.Minute {
		t.Fatalf("unexpected heartbeat: %v", cfg.HeartbeatInterval)
	}
	if cfg.AdminListenAddr != "127.0.0.1:7020" {
		t.Fatalf("unexpected admin listen: %q", cfg.AdminListenAddr)
	}
	if len(cfg.CorsOrigins) != 1 || cfg.CorsOrigins[0] != "http://localhost:3000" {
		t.Fatalf("unexpected cors origins: %v", cfg.CorsOrigins)
	}
}

func writeRuntime(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "runtime.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write runtime: %v", err)
	}
	return path
}

func TestLoadRuntimeConfigEmptyKeepsDefaults(t *testing.T) {
	testlog.Start(t)
	def := bot.DefaultServiceConfig()
	cfg, err := loadRuntimeConfig(writeRuntime(t, ""), def)
	if err != nil {
		t.Fatalf("load runtime: %v", err)
	}
	if cfg.Session != def.Session || cfg.HeartbeatInterval != def.HeartbeatInterval {
		t.Fatalf("empty overlay changed defaults: %+v", cfg)
	}
}

func TestLoadRuntimeConfigRejectsBadValues(t *testing.T) {
	testlog.Start(t)
	cases := map[string]string{
		"bad duration": `read_timeout = "forever"`,
		"unknown key":  `reconnect_forever = true`,
		"bad level":    `log_level = "loud"`,
	}
	for name, body := range cases {
		if _, err := loadRuntimeConfig(writeRuntime(t, body), bot.DefaultServiceConfig()); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestInitThenCheck(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "bot.yaml")

	root := newRootCmd()
	var out strings.Builder
	root.SetOut(&out)
	root.SetArgs([]string{"init", "--config", path})
	if err := root.Execute(); err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out.String(), "Wrote yaml config template") {
		t.Fatalf("unexpected init output %q", out.String())
	}

	root = newRootCmd()
	out.Reset()
	root.SetOut(&out)
	root.SetArgs([]string{"check", "--config", path, "--runtime", "ex.runtime.toml"})
	if err := root.Execute(); err != nil {
		t.Fatalf("check: %v", err)
	}
	if !strings.Contains(out.String(), "opsbot@irc.example.net:6697 #ops") {
		t.Fatalf("unexpected check output %q", out.String())
	}
	if !strings.Contains(out.String(), "reboot") || !strings.Contains(out.String(), "(owner only)") {
		t.Fatalf("check output missing commands: %q", out.String())
	}

	root = newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"init", "--config", path})
	if err := root.Execute(); err == nil {
		t.Fatalf("expected init to refuse overwriting")
	}
}

func TestCheckRejectsProductionWithoutTLS(t *testing.T) {
	testlog.Start(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "bot.toml")
	root := newRootCmd()
	root.SetOut(&strings.Builder{})
	root.SetArgs([]string{"init", "--config", path})
	if err := root.Execute(); err != nil {
		t.Fatalf("init: %v", err)
	}

	runtime := writeRuntime(t, "security_mode = \"production\"\ntls_enabled = false\n")
	root = newRootCmd()
	root.SetOut(&strings.Builder{})
	root.SetArgs([]string{"check", "--config", path, "--runtime", runtime})
	if err := root.Execute(); err == nil {
		t.Fatalf("expected plaintext production to be rejected")
	}
}
