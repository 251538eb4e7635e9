// Package linetest runs a scripted line-oriented chat endpoint on loopback
// for session and service tests.
package linetest

import (
	"bufio"
	"crypto/tls"
	"errors"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

const DefaultWait = 2 * time.Second

type Server struct {
	t        testing.TB
	ln       net.Listener
	accepted chan *Conn

	mu    sync.Mutex
	conns []*Conn
}

// Listen starts a plaintext endpoint on 127.0.0.1.
func Listen(t testing.TB) *Server {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	return serve(t, ln)
}

// ListenTLS starts a TLS endpoint on 127.0.0.1 with cfg.
func ListenTLS(t testing.TB, cfg *tls.Config) *Server {
	t.Helper()
	ln, err := tls.Listen("tcp", "127.0.0.1:0", cfg)
	if err != nil {
		t.Fatalf("listen tls: %v", err)
	}
	return serve(t, ln)
}

func serve(t testing.TB, ln net.Listener) *Server {
	s := &Server{
		t:        t,
		ln:       ln,
		accepted: make(chan *Conn, 16),
	}
	go s.acceptLoop()
	t.Cleanup(s.Close)
	return s
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			continue
		}
		c := newConn(s.t, conn)
		s.mu.Lock()
		s.conns = append(s.conns, c)
		s.mu.Unlock()
		s.accepted <- c
	}
}

func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// HostPort splits the listener address for session parameters.
func (s *Server) HostPort() (string, int) {
	s.t.Helper()
	host, rawPort, err := net.SplitHostPort(s.Addr())
	if err != nil {
		s.t.Fatalf("split addr: %v", err)
	}
	port, err := strconv.Atoi(rawPort)
	if err != nil {
		s.t.Fatalf("parse port: %v", err)
	}
	return host, port
}

// Accept waits for the next client connection.
func (s *Server) Accept(wait time.Duration) *Conn {
	s.t.Helper()
	select {
	case c := <-s.accepted:
		return c
	case <-time.After(wait):
		s.t.Fatalf("no connection accepted within %v", wait)
		return nil
	}
}

func (s *Server) Close() {
	_ = s.ln.Close()
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conns {
		c.Close()
	}
}

// Conn is one accepted client. Lines written by the client are queued
// without their terminator.
type Conn struct {
	t     testing.TB
	conn  net.Conn
	lines chan string
	once  sync.Once
}

func newConn(t testing.TB, conn net.Conn) *Conn {
	c := &Conn{
		t:     t,
		conn:  conn,
		lines: make(chan string, 256),
	}
	go c.readLoop()
	return c
}

func (c *Conn) readLoop() {
	defer close(c.lines)
	reader := bufio.NewReader(c.conn)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			c.lines <- strings.TrimRight(line, "\r\n")
		}
		if err != nil {
			return
		}
	}
}

// Send writes one server line terminated by CRLF.
func (c *Conn) Send(line string) {
	c.t.Helper()
	if _, err := c.conn.Write([]byte(line + "\r\n")); err != nil {
		c.t.Fatalf("send %q: %v", line, err)
	}
}

// Next returns the next client line, or false on timeout or disconnect.
func (c *Conn) Next(wait time.Duration) (string, bool) {
	select {
	case line, ok := <-c.lines:
		return line, ok
	case <-time.After(wait):
		return "", false
	}
}

// Expect fails the test unless the next client line equals want.
func (c *Conn) Expect(want string) {
	c.t.Helper()
	got, ok := c.Next(DefaultWait)
	if !ok {
		c.t.Fatalf("expected line %q, got nothing", want)
	}
	if got != want {
		c.t.Fatalf("expected line %q, got %q", want, got)
	}
}

// ExpectHandshake consumes the USER/PASS/NICK/JOIN opening sequence.
func (c *Conn) ExpectHandshake(user, pass, nick, join string) {
	c.t.Helper()
	c.Expect(user)
	c.Expect(pass)
	c.Expect(nick)
	c.Expect(join)
}

// ExpectSilence fails the test if the client writes anything within wait.
func (c *Conn) ExpectSilence(wait time.Duration) {
	c.t.Helper()
	select {
	case line, ok := <-c.lines:
		if ok {
			c.t.Fatalf("expected no line, got %q", line)
		}
	case <-time.After(wait):
	}
}

// WaitClosed waits until the client side closes the connection.
func (c *Conn) WaitClosed(wait time.Duration) bool {
	deadline := time.After(wait)
	for {
		select {
		case _, ok := <-c.lines:
			if !ok {
				return true
			}
		case <-deadline:
			return false
		}
	}
}

func (c *Conn) Close() {
	c.once.Do(func() {
		_ = c.conn.Close()
	})
}
