package session

import "time"

type SecurityMode string

const (
	SecurityModeDevelopment SecurityMode = "development"
	SecurityModeProduction  SecurityMode = "production"
)

// TLSConfig configures the client side of the transport.
type TLSConfig struct {
	Enabled            bool
	Mutual             bool
	InsecureSkipVerify bool
	CAFile             string
	CertFile           string
	KeyFile            string
	ServerName         string
}

// BackoffConfig defines reconnect delay growth: Unit * 2^attempt, with the
// attempt counter wrapping back to 1 after MaxExponent.
type BackoffConfig struct {
	Unit        time.Duration
	MaxExponent int
}

// Config defines transport/session reliability defaults.
type Config struct {
	SecurityMode     SecurityMode
	TLS              TLSConfig
	ConnectTimeout   time.Duration
	HandshakeTimeout time.Duration
	// ReadTimeout bounds one receive; zero waits forever. The server's
	// keep-alive probes arrive well inside any sensible value.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Backoff      BackoffConfig
}

func DefaultConfig() Config {
	return Config{
		SecurityMode:     SecurityModeProduction,
		TLS:              TLSConfig{Enabled: true},
		ConnectTimeout:   10 * time.Second,
		HandshakeTimeout: 10 * time.Second,
		ReadTimeout:      10 * time.Minute,
		WriteTimeout:     15 * time.Second,
		Backoff:          DefaultBackoffConfig(),
	}
}

func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		Unit:        time.Second,
		MaxExponent: 8,
	}
}

// WithDefaults fills unset durations and backoff fields. ReadTimeout is left
// alone because zero is meaningful.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.SecurityMode == "" {
		c.SecurityMode = def.SecurityMode
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = def.HandshakeTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.Backoff.Unit <= 0 {
		c.Backoff.Unit = def.Backoff.Unit
	}
	if c.Backoff.MaxExponent <= 0 {
		c.Backoff.MaxExponent = def.Backoff.MaxExponent
	}
	return c
}
