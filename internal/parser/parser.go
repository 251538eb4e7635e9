// Package parser turns one raw chat line into an optional command invocation.
//
// The pipeline is fixed: strip protocol metadata, require a mention of the
// bot, strip the mention, drop blacklisted characters, then match the first
// token that names a registered command. Everything after that command name
// is handed to the handler verbatim.
package parser

import (
	"errors"
	"strings"
)

const (
	metaDelimiter = ":"
	tokenSep      = " "

	// MentionSigil prefixes the nickname when a user addresses the bot.
	MentionSigil = "@"
)

var (
	ErrNicknameRequired = errors.New("parser: nickname required")
	ErrCommandsRequired = errors.New("parser: command set required")
)

// Command is a parsed invocation. Args keeps its leading space.
type Command struct {
	Name string
	Args string
}

// CommandSet is the read-only view of registered command names.
type CommandSet interface {
	Has(name string) bool
}

type Config struct {
	Nickname  string
	Blacklist []string
	Commands  CommandSet
}

type Parser struct {
	nickname  string
	mention   string
	blacklist []string
	commands  CommandSet
}

func New(cfg Config) (*Parser, error) {
	nick := strings.TrimSpace(cfg.Nickname)
	if nick == "" {
		return nil, ErrNicknameRequired
	}
	if cfg.Commands == nil {
		return nil, ErrCommandsRequired
	}
	blacklist := make([]string, 0, len(cfg.Blacklist))
	for _, entry := range cfg.Blacklist {
		if entry == "" {
			continue
		}
		blacklist = append(blacklist, entry)
	}
	return &Parser{
		nickname:  nick,
		mention:   MentionSigil + nick,
		blacklist: blacklist,
		commands:  cfg.Commands,
	}, nil
}

func (p *Parser) Nickname() string {
	return p.nickname
}

// Parse returns false when the line does not mention the bot or names no
// registered command. Neither case is an error.
func (p *Parser) Parse(line string) (Command, bool) {
	content := StripMeta(line)
	if !p.Mentioned(content) {
		return Command{}, false
	}
	content = p.StripNick(content)
	content = p.Sanitize(content)

	name, ok := p.FindCommand(content)
	if !ok {
		return Command{}, false
	}
	return Command{Name: name, Args: StripCommand(name, content)}, true
}

// StripMeta drops everything through the first ":" and returns what follows
// the next ":". With no second delimiter the remainder is returned.
func StripMeta(line string) string {
	if i := strings.Index(line, metaDelimiter); i >= 0 {
		line = line[i+len(metaDelimiter):]
	}
	if i := strings.Index(line, metaDelimiter); i >= 0 {
		line = line[i+len(metaDelimiter):]
	}
	return line
}

// Mentioned reports whether a single-space token equals the nickname, with or
// without the sigil.
func (p *Parser) Mentioned(content string) bool {
	for _, token := range strings.Split(content, tokenSep) {
		if token == p.nickname || token == p.mention {
			return true
		}
	}
	return false
}

// StripNick drops everything through the first occurrence of the mention.
// The sigil form is preferred when present anywhere in content.
func (p *Parser) StripNick(content string) string {
	nick := p.nickname
	if strings.Contains(content, p.mention) {
		nick = p.mention
	}
	i := strings.Index(content, nick)
	if i < 0 {
		return content
	}
	return content[i+len(nick):]
}

func (p *Parser) Sanitize(content string) string {
	for _, entry := range p.blacklist {
		content = strings.ReplaceAll(content, entry, "")
	}
	return content
}

// FindCommand returns the first token that exactly matches a registered name.
func (p *Parser) FindCommand(content string) (string, bool) {
	for _, token := range strings.Split(content, tokenSep) {
		if token == "" {
			continue
		}
		if p.commands.Has(token) {
			return token, true
		}
	}
	return "", false
}

// StripCommand drops everything through the first occurrence of name.
func StripCommand(name, content string) string {
	i := strings.Index(content, name)
	if i < 0 {
		return content
	}
	return content[i+len(name):]
}
