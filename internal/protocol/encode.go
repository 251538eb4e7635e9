package protocol

import (
	"fmt"
	"strings"
	"unicode"
)

// PongLine is the fixed keep-alive acknowledgment.
const PongLine = "PONG :pingis \n"

var flattenBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// UserLine builds the identity line sent first during the handshake.
func UserLine(nickname, hostname, server, displayName string) string {
	return "USER " + nickname + " " + hostname + " " + server + " : " + displayName + "\n"
}

func PassLine(password string) string {
	return "PASS " + password + "\n"
}

func NickLine(nickname string) string {
	return "NICK " + nickname + "\n"
}

func JoinLine(channel string) string {
	return "JOIN " + channel + "\n"
}

// PrivmsgLine builds a channel message. Embedded line breaks in text are
// flattened to spaces so handler output can never inject extra protocol lines.
func PrivmsgLine(target, text string) string {
	return "PRIVMSG " + target + " :" + flattenBreaks.Replace(text) + "\n"
}

// ValidateToken rejects values that would corrupt a space-delimited line.
func ValidateToken(field, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s", ErrEmptyArgument, field)
	}
	if strings.IndexFunc(value, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: %s=%q", ErrInvalidToken, field, value)
	}
	return nil
}
