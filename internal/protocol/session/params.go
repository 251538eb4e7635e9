package session

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/danmuck/ircbot/internal/parser"
	"github.com/danmuck/ircbot/internal/protocol"
)

// Params are the connection parameters of one session.
type Params struct {
	Server   string
	Port     int
	Username string
	Password string
	Channel  string
	// Nickname defaults to Username.
	Nickname string
	// DisplayName defaults to Nickname.
	DisplayName string
	// Hostname defaults to Server.
	Hostname string
	// Owner receives every notification. A bare name is addressed with the
	// mention sigil.
	Owner string
}

func (p Params) WithDefaults() Params {
	p.Server = strings.TrimSpace(p.Server)
	if strings.TrimSpace(p.Nickname) == "" {
		p.Nickname = p.Username
	}
	if strings.TrimSpace(p.DisplayName) == "" {
		p.DisplayName = p.Nickname
	}
	if strings.TrimSpace(p.Hostname) == "" {
		p.Hostname = p.Server
	}
	return p
}

func (p Params) Validate() error {
	for _, field := range []struct{ name, value string }{
		{"server", p.Server},
		{"username", p.Username},
		{"nickname", p.Nickname},
		{"hostname", p.Hostname},
		{"channel", p.Channel},
		{"owner", p.Owner},
	} {
		if err := protocol.ValidateToken(field.name, field.value); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidParams, err)
		}
	}
	if p.Port < 1 || p.Port > 65535 {
		return fmt.Errorf("%w: port=%d", ErrInvalidParams, p.Port)
	}
	if p.Password == "" || strings.ContainsAny(p.Password, "\r\n") {
		return fmt.Errorf("%w: password must be a non-empty single line", ErrInvalidParams)
	}
	if strings.ContainsAny(p.DisplayName, "\r\n") {
		return fmt.Errorf("%w: display name must be a single line", ErrInvalidParams)
	}
	return nil
}

func (p Params) Address() string {
	return net.JoinHostPort(p.Server, strconv.Itoa(p.Port))
}

// OwnerMention is the prefix put in front of owner-directed messages.
func (p Params) OwnerMention() string {
	if strings.HasPrefix(p.Owner, parser.MentionSigil) {
		return p.Owner
	}
	return parser.MentionSigil + p.Owner
}
