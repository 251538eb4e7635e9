package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/danmuck/ircbot/internal/bot"
	"github.com/danmuck/ircbot/internal/logging"
	"github.com/danmuck/ircbot/internal/protocol/session"
)

type runtimeFile struct {
	SecurityMode          string   `toml:"security_mode"`
	TLSEnabled            bool     `toml:"tls_enabled"`
	TLSMutual             bool     `toml:"tls_mutual"`
	TLSInsecureSkipVerify bool     `toml:"tls_insecure_skip_verify"`
	TLSCAFile             string   `toml:"tls_ca_file"`
	TLSCertFile           string   `toml:"tls_cert_file"`
	TLSKeyFile            string   `toml:"tls_key_file"`
	TLSServerName         string   `toml:"tls_server_name"`
	ConnectTimeout        string   `toml:"connect_timeout"`
	HandshakeTimeout      string   `toml:"handshake_timeout"`
	ReadTimeout           string   `toml:"read_timeout"`
	WriteTimeout          string   `toml:"write_timeout"`
	BackoffUnit           string   `toml:"backoff_unit"`
	HeartbeatInterval     string   `toml:"heartbeat_interval"`
	AdminListen           string   `toml:"admin_listen"`
	CorsOrigins           []string `toml:"cors_origins"`
	LogLevel              string   `toml:"log_level"`
}

// loadRuntimeConfig overlays the keys present in path onto cfg. Absent keys
// keep their defaults.
func loadRuntimeConfig(path string, cfg bot.ServiceConfig) (bot.ServiceConfig, error) {
	var raw runtimeFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return bot.ServiceConfig{}, fmt.Errorf("load runtime config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return bot.ServiceConfig{}, fmt.Errorf("load runtime config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("security_mode") {
		cfg.Session.SecurityMode = session.NormalizeSecurityMode(session.SecurityMode(raw.SecurityMode))
	}
	if meta.IsDefined("tls_enabled") {
		cfg.Session.TLS.Enabled = raw.TLSEnabled
	}
	if meta.IsDefined("tls_mutual") {
		cfg.Session.TLS.Mutual = raw.TLSMutual
	}
	if meta.IsDefined("tls_insecure_skip_verify") {
		cfg.Session.TLS.InsecureSkipVerify = raw.TLSInsecureSkipVerify
	}
	if meta.IsDefined("tls_ca_file") {
		cfg.Session.TLS.CAFile = strings.TrimSpace(raw.TLSCAFile)
	}
	if meta.IsDefined("tls_cert_file") {
		cfg.Session.TLS.CertFile = strings.TrimSpace(raw.TLSCertFile)
	}
	if meta.IsDefined("tls_key_file") {
		cfg.Session.TLS.KeyFile = strings.TrimSpace(raw.TLSKeyFile)
	}
	if meta.IsDefined("tls_server_name") {
		cfg.Session.TLS.ServerName = strings.TrimSpace(raw.TLSServerName)
	}

	durations := []struct {
		key   string
		value string
		dst   *time.Duration
	}{
		{"connect_timeout", raw.ConnectTimeout, &cfg.Session.ConnectTimeout},
		{"handshake_timeout", raw.HandshakeTimeout, &cfg.Session.HandshakeTimeout},
		{"read_timeout", raw.ReadTimeout, &cfg.Session.ReadTimeout},
		{"write_timeout", raw.WriteTimeout, &cfg.Session.WriteTimeout},
		{"backoff_unit", raw.BackoffUnit, &cfg.Session.Backoff.Unit},
		{"heartbeat_interval", raw.HeartbeatInterval, &cfg.HeartbeatInterval},
	}
	for _, d := range durations {
		if !meta.IsDefined(d.key) {
			continue
		}
		parsed, err := time.ParseDuration(strings.TrimSpace(d.value))
		if err != nil {
			return bot.ServiceConfig{}, fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dst = parsed
	}

	if meta.IsDefined("admin_listen") {
		cfg.AdminListenAddr = strings.TrimSpace(raw.AdminListen)
	}
	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = normalizeOrigins(raw.CorsOrigins)
	}
	if meta.IsDefined("log_level") {
		if !logging.SetLevel(raw.LogLevel) {
			return bot.ServiceConfig{}, fmt.Errorf("parse log_level: unknown level %q", raw.LogLevel)
		}
	}
	return cfg, nil
}

func normalizeOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, origin := range in {
		v := strings.TrimSpace(origin)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
