package bot

import (
	"github.com/danmuck/ircbot/internal/auth"
	"github.com/danmuck/ircbot/internal/commands"
	"github.com/danmuck/ircbot/internal/config"
	"github.com/danmuck/ircbot/internal/parser"
	"github.com/danmuck/ircbot/internal/tools"
)

// BuildCommandStack resolves the configured commands and the parser that
// feeds them. A nil runner uses the one selected by the config's exec mode.
func BuildCommandStack(cfg config.BotConfig, runner tools.CommandRunner, shutdown func()) (*commands.Registry, *parser.Parser, error) {
	if runner == nil {
		runner = cfg.Runner()
	}
	reg, err := commands.Build(cfg.CommandSpecs(), commands.Env{
		Runner:   runner,
		Owner:    auth.Owner{Identity: cfg.Master},
		Shutdown: shutdown,
	})
	if err != nil {
		return nil, nil, err
	}
	p, err := parser.New(parser.Config{
		Nickname:  cfg.IRC.Username,
		Blacklist: cfg.CharacterBlacklist,
		Commands:  reg,
	})
	if err != nil {
		return nil, nil, err
	}
	return reg, p, nil
}
