package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// CommandRunner abstracts shell command execution for built-in handlers.
// Run returns trimmed stdout on success.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// RunError describes a command that could not run or exited non-zero.
type RunError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *RunError) Error() string {
	msg := fmt.Sprintf("tools: %s exited %d", e.Command, e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// ExecRunner executes commands on the local host.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return trimOutput(stdout.String()), nil
	}

	runErr := &RunError{
		Command:  joinCommand(name, args),
		ExitCode: 1,
		Stderr:   strings.TrimSpace(stderr.String()),
		Err:      err,
	}
	var exitErr *exec.ExitError
	var execErr *exec.Error
	switch {
	case errors.As(err, &exitErr):
		runErr.ExitCode = exitErr.ExitCode()
	case errors.As(err, &execErr):
		runErr.ExitCode = 127
	}
	return trimOutput(stdout.String()), runErr
}

// FuncRunner adapts a function into a CommandRunner.
type FuncRunner func(ctx context.Context, name string, args ...string) (string, error)

func (f FuncRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	return f(ctx, name, args...)
}

func trimOutput(out string) string {
	return strings.Trim(out, "\n")
}

func joinCommand(cmd string, args []string) string {
	if len(args) == 0 {
		return shellEscape(cmd)
	}

	var builder strings.Builder
	builder.WriteString(shellEscape(cmd))
	for _, arg := range args {
		builder.WriteByte(' ')
		builder.WriteString(shellEscape(arg))
	}
	return builder.String()
}

func shellEscape(value string) string {
	if value == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(value, "'", `'"'"'`) + "'"
}
