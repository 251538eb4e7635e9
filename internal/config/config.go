package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	ExecModeLocal = "local"
	ExecModeSSH   = "ssh"

	DefaultPath       = "config.json"
	DefaultSSHPort    = 22
	DefaultSSHTimeout = "10s"
)

var (
	ErrInvalidConfig     = errors.New("config: invalid configuration")
	ErrUnsupportedFormat = errors.New("config: unsupported file format")
)

// BotConfig is the bot's file configuration. Every component receives the
// validated value; nothing mutates it after Load.
type BotConfig struct {
	IRC                IRCConfig                `toml:"irc" yaml:"irc" json:"irc"`
	Master             string                   `toml:"master" yaml:"master" json:"master"`
	Commands           map[string]CommandConfig `toml:"commands" yaml:"commands" json:"commands"`
	CharacterBlacklist []string                 `toml:"character_blacklist" yaml:"character_blacklist" json:"character_blacklist"`
	AuthRetryLimit     int                      `toml:"auth_retry_limit" yaml:"auth_retry_limit" json:"auth_retry_limit"`
	Exec               ExecConfig               `toml:"exec" yaml:"exec" json:"exec"`
}

type IRCConfig struct {
	Host     string `toml:"host" yaml:"host" json:"host"`
	Port     int    `toml:"port" yaml:"port" json:"port"`
	Channel  string `toml:"channel" yaml:"channel" json:"channel"`
	Username string `toml:"username" yaml:"username" json:"username"`
	Password string `toml:"password" yaml:"password" json:"password"`
	Hostname string `toml:"hostname" yaml:"hostname" json:"hostname"`
	Name     string `toml:"name" yaml:"name" json:"name"`
}

type CommandConfig struct {
	Method    string `toml:"method" yaml:"method" json:"method"`
	Help      string `toml:"help" yaml:"help" json:"help"`
	OwnerOnly bool   `toml:"owner_only" yaml:"owner_only" json:"owner_only"`
}

// ExecConfig selects where shell-backed commands run.
type ExecConfig struct {
	Mode string    `toml:"mode" yaml:"mode" json:"mode"`
	SSH  SSHConfig `toml:"ssh" yaml:"ssh" json:"ssh"`
}

type SSHConfig struct {
	Host                     string `toml:"host" yaml:"host" json:"host"`
	Port                     int    `toml:"port" yaml:"port" json:"port"`
	User                     string `toml:"user" yaml:"user" json:"user"`
	KeyPath                  string `toml:"key_path" yaml:"key_path" json:"key_path"`
	KnownHostsPath           string `toml:"known_hosts_path" yaml:"known_hosts_path" json:"known_hosts_path"`
	InsecureSkipHostKeyCheck bool   `toml:"insecure_skip_host_key_check" yaml:"insecure_skip_host_key_check" json:"insecure_skip_host_key_check"`
	Timeout                  string `toml:"timeout" yaml:"timeout" json:"timeout"`
}

// TimeoutDuration parses Timeout; Validate has already rejected bad values.
func (c SSHConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// Load reads path, choosing the decoder from its extension, then applies
// defaults and validates. Unknown keys are rejected.
func Load(path string) (BotConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return BotConfig{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	cfg, err := Parse(data, Format(path))
	if err != nil {
		return BotConfig{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return cfg, nil
}

// Format maps a file extension to "toml", "yaml" or "json"; anything else
// comes back as the bare extension.
func Format(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "yml" {
		return "yaml"
	}
	return ext
}

func Parse(data []byte, format string) (BotConfig, error) {
	var cfg BotConfig
	if err := decode(data, format, &cfg); err != nil {
		return BotConfig{}, err
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return BotConfig{}, err
	}
	return cfg, nil
}

func decode(data []byte, format string, out *BotConfig) error {
	switch format {
	case "toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return dec.Decode(out)
	case "yaml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		return dec.Decode(out)
	case "json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return dec.Decode(out)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func (c BotConfig) WithDefaults() BotConfig {
	c.IRC.Host = strings.TrimSpace(c.IRC.Host)
	c.Master = strings.TrimSpace(c.Master)
	if strings.TrimSpace(c.Exec.Mode) == "" {
		c.Exec.Mode = ExecModeLocal
	}
	c.Exec.Mode = strings.ToLower(strings.TrimSpace(c.Exec.Mode))
	if c.Exec.SSH.Port == 0 {
		c.Exec.SSH.Port = DefaultSSHPort
	}
	if strings.TrimSpace(c.Exec.SSH.Timeout) == "" {
		c.Exec.SSH.Timeout = DefaultSSHTimeout
	}
	return c
}

func (c BotConfig) Validate() error {
	if err := c.IRC.validate(); err != nil {
		return err
	}
	if c.Master == "" {
		return invalid("master is required")
	}
	if hasSpace(c.Master) {
		return invalid("master %q contains whitespace", c.Master)
	}
	if len(c.Commands) == 0 {
		return invalid("commands must define at least one command")
	}
	for name, cmd := range c.Commands {
		if name == "" || hasSpace(name) {
			return invalid("command name %q must be a single token", name)
		}
		if strings.TrimSpace(cmd.Method) == "" {
			return invalid("command %q missing method", name)
		}
	}
	if c.AuthRetryLimit < 0 {
		return invalid("auth_retry_limit must not be negative")
	}
	return c.Exec.validate()
}

func (c IRCConfig) validate() error {
	switch {
	case c.Host == "":
		return invalid("irc.host is required")
	case c.Port < 1 || c.Port > 65535:
		return invalid("irc.port %d out of range", c.Port)
	case strings.TrimSpace(c.Channel) == "":
		return invalid("irc.channel is required")
	case hasSpace(c.Channel):
		return invalid("irc.channel %q contains whitespace", c.Channel)
	case strings.TrimSpace(c.Username) == "":
		return invalid("irc.username is required")
	case hasSpace(c.Username):
		return invalid("irc.username %q contains whitespace", c.Username)
	case c.Password == "":
		return invalid("irc.password is required")
	case hasSpace(c.Hostname):
		return invalid("irc.hostname %q contains whitespace", c.Hostname)
	}
	return nil
}

func (c ExecConfig) validate() error {
	switch c.Mode {
	case ExecModeLocal:
		return nil
	case ExecModeSSH:
	default:
		return invalid("exec.mode %q must be %q or %q", c.Mode, ExecModeLocal, ExecModeSSH)
	}
	ssh := c.SSH
	switch {
	case strings.TrimSpace(ssh.Host) == "":
		return invalid("exec.ssh.host is required")
	case strings.TrimSpace(ssh.User) == "":
		return invalid("exec.ssh.user is required")
	case strings.TrimSpace(ssh.KeyPath) == "":
		return invalid("exec.ssh.key_path is required")
	case ssh.Port < 1 || ssh.Port > 65535:
		return invalid("exec.ssh.port %d out of range", ssh.Port)
	case strings.TrimSpace(ssh.KnownHostsPath) == "" && !ssh.InsecureSkipHostKeyCheck:
		return invalid("exec.ssh.known_hosts_path is required unless insecure_skip_host_key_check is set")
	}
	if d, err := time.ParseDuration(ssh.Timeout); err != nil || d <= 0 {
		return invalid("exec.ssh.timeout %q is not a positive duration", ssh.Timeout)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

func hasSpace(s string) bool {
	return strings.IndexFunc(s, unicode.IsSpace) >= 0
}
