// Package console evaluates operator input through the same parser and
// command registry the chat session uses, without a server connection.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/danmuck/ircbot/internal/commands"
	"github.com/danmuck/ircbot/internal/parser"
	"github.com/danmuck/ircbot/internal/protocol/session"
)

const (
	DefaultPrompt = "ircbot> "
	consoleHost   = "console@local"
)

var ErrConsoleConfig = errors.New("console: parser, commands and nickname are required")

type Config struct {
	Parser   session.LineParser
	Commands session.Dispatcher
	Nickname string
	Channel  string
	// Sender is the identity commands run as; owner-only commands need the
	// configured master here.
	Sender string
	Prompt string
}

type Console struct {
	cfg     Config
	stopped bool
}

func New(cfg Config) (*Console, error) {
	if cfg.Parser == nil || cfg.Commands == nil || strings.TrimSpace(cfg.Nickname) == "" {
		return nil, ErrConsoleConfig
	}
	if cfg.Channel == "" {
		cfg.Channel = "#console"
	}
	if cfg.Sender == "" {
		cfg.Sender = "console"
	}
	if cfg.Prompt == "" {
		cfg.Prompt = DefaultPrompt
	}
	return &Console{cfg: cfg}, nil
}

// Line wraps operator input as a channel message. Input without a mention
// of the bot is addressed to it.
func (c *Console) Line(input string) string {
	mention := parser.MentionSigil + c.cfg.Nickname
	addressed := false
	for _, tok := range strings.Split(input, " ") {
		if tok == c.cfg.Nickname || tok == mention {
			addressed = true
			break
		}
	}
	if !addressed {
		input = mention + " " + input
	}
	return ":" + c.cfg.Sender + "!" + consoleHost + " PRIVMSG " + c.cfg.Channel + " :" + input
}

// Evaluate runs one input. ok is false when no registered command matched.
func (c *Console) Evaluate(ctx context.Context, input string) (resp string, ok bool, err error) {
	cmd, ok := c.cfg.Parser.Parse(c.Line(input))
	if !ok {
		return "", false, nil
	}
	resp, err = c.cfg.Commands.Invoke(ctx, commands.Invocation{
		Name:   cmd.Name,
		Args:   cmd.Args,
		Sender: c.cfg.Sender,
	})
	return resp, true, err
}

// Stop ends Run after the current line. The kill command uses it.
func (c *Console) Stop() {
	c.stopped = true
}

// Run reads lines until EOF, "quit", Stop or ctx cancellation.
func (c *Console) Run(ctx context.Context, in LineReader, out io.Writer) error {
	defer in.Close()
	for !c.stopped {
		if ctx.Err() != nil {
			return nil
		}
		line, err := in.GetLine(c.cfg.Prompt)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		input := strings.TrimSpace(line)
		switch input {
		case "":
			continue
		case "quit", "exit":
			return nil
		}

		resp, ok, err := c.Evaluate(ctx, input)
		switch {
		case err != nil:
			fmt.Fprintf(out, "error: %v\n", err)
		case !ok:
			fmt.Fprintln(out, "(no command matched)")
		case resp != "":
			fmt.Fprintln(out, resp)
		}
	}
	return nil
}
