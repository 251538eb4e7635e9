package protocol

import "strings"

const (
	PingMarker    = "PING :"
	MOTDEndMarker = "End of MOTD command"

	authFailurePrefix = ":slackbot PRIVMSG "
	authFailureSuffix = " :Invalid user name or password"
)

// AuthFailureMarker returns the substring the server sends when the
// credentials for username are rejected.
func AuthFailureMarker(username string) string {
	return authFailurePrefix + username + authFailureSuffix
}

// Classify matches control markers by substring. Keep-alive wins over the
// other markers, then credential rejection, then end of banner.
func Classify(line, username string) Kind {
	switch {
	case strings.Contains(line, PingMarker):
		return KindPing
	case strings.Contains(line, AuthFailureMarker(username)):
		return KindAuthFailure
	case strings.Contains(line, MOTDEndMarker):
		return KindMOTDEnd
	default:
		return KindMessage
	}
}

// TrimLine drops the trailing line terminator, if any.
func TrimLine(raw string) string {
	return strings.TrimRight(raw, "\r\n")
}

// Sender returns the nickname from a ":nick!user@host ..." prefix, or "" when
// the line carries no prefix.
func Sender(line string) string {
	if !strings.HasPrefix(line, ":") {
		return ""
	}
	prefix := line[1:]
	if i := strings.IndexByte(prefix, ' '); i >= 0 {
		prefix = prefix[:i]
	}
	if i := strings.IndexAny(prefix, "!@"); i >= 0 {
		prefix = prefix[:i]
	}
	return prefix
}
