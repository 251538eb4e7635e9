package tools

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/danmuck/ircbot/internal/testutil/testlog"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExecRunnerTrimsOutput(t *testing.T) {
	testlog.Start(t)
	requireShell(t)
	out, err := ExecRunner{}.Run(context.Background(), "sh", "-c", "printf 'host.local\\n'")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out != "host.local" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestExecRunnerExitCode(t *testing.T) {
	testlog.Start(t)
	requireShell(t)
	_, err := ExecRunner{}.Run(context.Background(), "sh", "-c", "echo boom >&2; exit 3")
	var runErr *RunError
	if !errors.As(err, &runErr) {
		t.Fatalf("expected RunError, got %v", err)
	}
	if runErr.ExitCode != 3 {
		t.Fatalf("unexpected exit code: %d", runErr.ExitCode)
	}
	if runErr.Stderr != "boom" {
		t.Fatalf("unexpected stderr: %q", runErr.Stderr)
	}
}

func TestExecRunnerMissingBinary(t *testing.T) {
	testlog.Start(t)
	_, err := ExecRunner{}.Run(context.Background(), "ircbot-definitely-missing-binary")
	var runErr *RunError
	if !errors.As(err, &runErr) {
		t.Fatalf("expected RunError, got %v", err)
	}
	if runErr.ExitCode != 127 {
		t.Fatalf("unexpected exit code: %d", runErr.ExitCode)
	}
}

func TestJoinCommandEscapes(t *testing.T) {
	testlog.Start(t)
	if got := joinCommand("dig", []string{"+short", "it's.example"}); got != `'dig' '+short' 'it'"'"'s.example'` {
		t.Fatalf("unexpected join: %s", got)
	}
	if got := joinCommand("uptime", nil); got != "'uptime'" {
		t.Fatalf("unexpected join: %s", got)
	}
}

func TestSSHRunnerValidate(t *testing.T) {
	testlog.Start(t)
	if err := (SSHRunner{User: "ops", KeyPath: "/k"}).Validate(); !errors.Is(err, ErrSSHHostRequired) {
		t.Fatalf("expected ErrSSHHostRequired, got %v", err)
	}
	if err := (SSHRunner{Host: "h", KeyPath: "/k"}).Validate(); !errors.Is(err, ErrSSHUserRequired) {
		t.Fatalf("expected ErrSSHUserRequired, got %v", err)
	}
	if err := (SSHRunner{Host: "h", User: "ops"}).Validate(); !errors.Is(err, ErrSSHKeyPathRequired) {
		t.Fatalf("expected ErrSSHKeyPathRequired, got %v", err)
	}
	if _, err := (SSHRunner{}).Run(context.Background(), "uptime"); !errors.Is(err, ErrSSHHostRequired) {
		t.Fatalf("expected validation before dial, got %v", err)
	}
}

func TestSSHRunnerAddress(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		runner SSHRunner
		want   string
	}{
		{SSHRunner{Host: "box"}, "box:22"},
		{SSHRunner{Host: "box", Port: "2222"}, "box:2222"},
		{SSHRunner{Host: "box:2200"}, "box:2200"},
	}
	for _, tc := range cases {
		got, err := tc.runner.address()
		if err != nil {
			t.Fatalf("address: %v", err)
		}
		if got != tc.want {
			t.Fatalf("address got=%q want=%q", got, tc.want)
		}
	}
}
