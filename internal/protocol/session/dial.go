package session

import (
	"context"
	"crypto/tls"
	"net"
)

// DialFunc opens the transport for one session.
type DialFunc func(ctx context.Context, cfg Config, address string) (net.Conn, error)

// Dial connects to address with cfg's timeouts and, when enabled, completes
// the TLS client handshake before returning.
func Dial(ctx context.Context, cfg Config, address string) (net.Conn, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.ValidateClientTransport(); err != nil {
		return nil, err
	}

	dialer := net.Dialer{Timeout: cfg.ConnectTimeout}
	rawConn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, err
	}
	if !cfg.TLS.Enabled {
		return rawConn, nil
	}

	host, _, err := net.SplitHostPort(address)
	if err != nil {
		host = address
	}
	tlsCfg, err := cfg.ClientTLSConfig(host)
	if err != nil {
		_ = rawConn.Close()
		return nil, err
	}
	conn := tls.Client(rawConn, tlsCfg)
	handshakeCtx, cancel := context.WithTimeout(ctx, cfg.HandshakeTimeout)
	defer cancel()
	if err := conn.HandshakeContext(handshakeCtx); err != nil {
		_ = rawConn.Close()
		return nil, err
	}
	return conn, nil
}
