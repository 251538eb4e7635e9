package commands

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/danmuck/ircbot/internal/auth"
	"github.com/danmuck/ircbot/internal/tools"
)

// Built-in handler identifiers referenced by the "method" field of a command.
const (
	MethodSayHello     = "sayHello"
	MethodGetHelp      = "getHelp"
	MethodDomainLookup = "domainLookup"
	MethodGetHostname  = "getHostname"
	MethodDiskStatus   = "diskStatus"
	MethodGetUptime    = "getUptime"
	MethodDoReboot     = "doReboot"
	MethodUndoReboot   = "undoReboot"
	MethodListCommands = "listCommands"
	MethodKillClient   = "killClient"

	// helpCommand is the entry getHelp reports when asked about nothing in particular.
	helpCommand = "help"
)

var (
	ErrShutdownUnavailable = errors.New("commands: shutdown hook not configured")
	ErrUnexpectedOutput    = errors.New("commands: unexpected command output")
)

// Env carries the collaborators built-in handlers need.
type Env struct {
	Runner   tools.CommandRunner
	Owner    auth.Validator
	Shutdown func()
}

// Methods lists the accepted built-in handler identifiers in lexical order.
func Methods() []string {
	table := builtins(NewRegistry(nil), Env{})
	out := make([]string, 0, len(table))
	for method := range table {
		out = append(out, method)
	}
	sort.Strings(out)
	return out
}

// Build resolves every spec's method against the built-in table. A spec that
// names an unknown method fails the whole build.
func Build(specs []Spec, env Env) (*Registry, error) {
	if env.Runner == nil {
		env.Runner = tools.ExecRunner{}
	}
	reg := NewRegistry(env.Owner)
	table := builtins(reg, env)

	sorted := append([]Spec(nil), specs...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})
	for _, spec := range sorted {
		handler, ok := table[spec.Method]
		if !ok {
			return nil, fmt.Errorf("%w: command %q uses %q", ErrUnknownMethod, spec.Name, spec.Method)
		}
		if err := reg.Register(spec, handler); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func builtins(reg *Registry, env Env) map[string]Handler {
	run := func(name string, args ...string) HandlerFunc {
		return func(ctx context.Context, _ string) (string, error) {
			return env.Runner.Run(ctx, name, args...)
		}
	}
	return map[string]Handler{
		MethodSayHello: HandlerFunc(func(_ context.Context, args string) (string, error) {
			return "Hello, " + args, nil
		}),
		MethodGetHelp:      HandlerFunc(func(_ context.Context, args string) (string, error) { return getHelp(reg, args) }),
		MethodDomainLookup: HandlerFunc(func(ctx context.Context, args string) (string, error) { return domainLookup(ctx, env.Runner, args) }),
		MethodGetHostname:  run("hostname"),
		MethodDiskStatus:   HandlerFunc(func(ctx context.Context, _ string) (string, error) { return diskStatus(ctx, env.Runner) }),
		MethodGetUptime:    run("uptime"),
		MethodDoReboot: HandlerFunc(func(ctx context.Context, _ string) (string, error) {
			msg, err := env.Runner.Run(ctx, "shutdown", "-r", "+2")
			if err != nil {
				return "", err
			}
			return "Reboot scheduled in 2 minutes. " + msg, nil
		}),
		MethodUndoReboot: HandlerFunc(func(ctx context.Context, _ string) (string, error) {
			msg, err := env.Runner.Run(ctx, "shutdown", "-c")
			if err != nil {
				return "", err
			}
			return "Reboot cancelled! " + msg, nil
		}),
		MethodListCommands: HandlerFunc(func(_ context.Context, _ string) (string, error) {
			return "Available commands are: " + strings.Join(reg.Names(), ", "), nil
		}),
		MethodKillClient: HandlerFunc(func(_ context.Context, _ string) (string, error) {
			if env.Shutdown == nil {
				return "", ErrShutdownUnavailable
			}
			env.Shutdown()
			return "", nil
		}),
	}
}

func getHelp(reg *Registry, args string) (string, error) {
	if strings.IndexFunc(args, unicode.IsLetter) < 0 {
		text, ok := reg.Help(helpCommand)
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrUnknownCommand, helpCommand)
		}
		return "*" + helpCommand + "*: " + text, nil
	}
	name := strings.ReplaceAll(args, " ", "")
	if text, ok := reg.Help(name); ok {
		return "*" + name + ":* " + text, nil
	}
	return "No help information found for " + args, nil
}

func domainLookup(ctx context.Context, runner tools.CommandRunner, args string) (string, error) {
	if strings.IndexFunc(args, unicode.IsLetter) < 0 {
		return "*dig:* No domain specified.", nil
	}
	out, err := runner.Run(ctx, "dig", "+short", strings.ReplaceAll(args, " ", ""))
	if err != nil {
		return "", err
	}
	if strings.IndexFunc(out, unicode.IsDigit) >= 0 {
		return out, nil
	}
	return "No DNS records found for " + args, nil
}

func diskStatus(ctx context.Context, runner tools.CommandRunner) (string, error) {
	out, err := runner.Run(ctx, "df", "-h", "/")
	if err != nil {
		return "", err
	}
	lines := strings.Split(out, "\n")
	if len(lines) < 2 {
		return "", fmt.Errorf("%w: df printed %d line(s)", ErrUnexpectedOutput, len(lines))
	}
	return "Disk Usage _[fs size used avail % mounted]_:  " + lines[1], nil
}
