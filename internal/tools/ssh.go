package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

var (
	ErrSSHHostRequired    = errors.New("tools: ssh host is required")
	ErrSSHUserRequired    = errors.New("tools: ssh user is required")
	ErrSSHKeyPathRequired = errors.New("tools: ssh key path is required")
)

// SSHRunner executes commands on a remote host so the bot can report on a
// machine other than the one it runs on.
type SSHRunner struct {
	Host                        string
	Port                        string
	User                        string
	KeyPath                     string
	Passphrase                  []byte
	KnownHostsPath              string
	InsecureSkipHostKeyChecking bool
	Timeout                     time.Duration
}

// Validate checks the fields required before any dial attempt.
func (r SSHRunner) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return ErrSSHHostRequired
	}
	if strings.TrimSpace(r.User) == "" {
		return ErrSSHUserRequired
	}
	if strings.TrimSpace(r.KeyPath) == "" {
		return ErrSSHKeyPathRequired
	}
	return nil
}

func (r SSHRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	client, err := r.dial(ctx)
	if err != nil {
		return "", err
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return "", err
	}
	defer session.Close()

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	command := joinCommand(name, args)
	done := make(chan error, 1)
	go func() {
		done <- session.Run(command)
	}()

	select {
	case <-ctx.Done():
		_ = client.Close()
		return "", ctx.Err()
	case err := <-done:
		if err == nil {
			return trimOutput(stdout.String()), nil
		}
		runErr := &RunError{
			Command:  command,
			ExitCode: 1,
			Stderr:   strings.TrimSpace(stderr.String()),
			Err:      err,
		}
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			runErr.ExitCode = exitErr.ExitStatus()
		}
		return trimOutput(stdout.String()), runErr
	}
}

func (r SSHRunner) dial(ctx context.Context) (*ssh.Client, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	address, err := r.address()
	if err != nil {
		return nil, err
	}
	config, err := r.clientConfig()
	if err != nil {
		return nil, err
	}

	dialer := net.Dialer{Timeout: r.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, err
	}

	clientConn, chans, reqs, err := ssh.NewClientConn(conn, address, config)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return ssh.NewClient(clientConn, chans, reqs), nil
}

func (r SSHRunner) address() (string, error) {
	host := strings.TrimSpace(r.Host)
	if host == "" {
		return "", ErrSSHHostRequired
	}
	if r.Port != "" {
		return net.JoinHostPort(host, r.Port), nil
	}
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host, nil
	}
	return net.JoinHostPort(host, "22"), nil
}

func (r SSHRunner) clientConfig() (*ssh.ClientConfig, error) {
	signer, err := r.signer()
	if err != nil {
		return nil, err
	}

	var hostKeyCallback ssh.HostKeyCallback
	if r.InsecureSkipHostKeyChecking {
		hostKeyCallback = ssh.InsecureIgnoreHostKey()
	} else {
		callback, err := r.knownHostsCallback()
		if err != nil {
			return nil, err
		}
		hostKeyCallback = callback
	}

	return &ssh.ClientConfig{
		User:            r.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: hostKeyCallback,
		Timeout:         r.Timeout,
	}, nil
}

func (r SSHRunner) signer() (ssh.Signer, error) {
	privateKey, err := os.ReadFile(r.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("tools: read ssh key: %w", err)
	}
	if len(r.Passphrase) > 0 {
		return ssh.ParsePrivateKeyWithPassphrase(privateKey, r.Passphrase)
	}
	return ssh.ParsePrivateKey(privateKey)
}

func (r SSHRunner) knownHostsCallback() (ssh.HostKeyCallback, error) {
	path := strings.TrimSpace(r.KnownHostsPath)
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("tools: known hosts path not set and home dir unavailable")
		}
		path = filepath.Join(home, ".ssh", "known_hosts")
	}
	return knownhosts.New(path)
}
