package protocol

import (
	"errors"
	"testing"

	"github.com/danmuck/ircbot/internal/testutil/testlog"
)

func TestHandshakeLineFormats(t *testing.T) {
	testlog.Start(t)
	if got := UserLine("bot", "irc.example.net", "irc.example.net", "Bot"); got != "USER bot irc.example.net irc.example.net : Bot\n" {
		t.Fatalf("unexpected USER line: %q", got)
	}
	if got := PassLine("hunter2"); got != "PASS hunter2\n" {
		t.Fatalf("unexpected PASS line: %q", got)
	}
	if got := NickLine("bot"); got != "NICK bot\n" {
		t.Fatalf("unexpected NICK line: %q", got)
	}
	if got := JoinLine("#ops"); got != "JOIN #ops\n" {
		t.Fatalf("unexpected JOIN line: %q", got)
	}
	if PongLine != "PONG :pingis \n" {
		t.Fatalf("unexpected PONG line: %q", PongLine)
	}
}

func TestPrivmsgLineFlattensBreaks(t *testing.T) {
	testlog.Start(t)
	if got := PrivmsgLine("#c", "@master Hello,  there"); got != "PRIVMSG #c :@master Hello,  there\n" {
		t.Fatalf("unexpected PRIVMSG line: %q", got)
	}
	if got := PrivmsgLine("#c", "one\ntwo\r\nthree\r"); got != "PRIVMSG #c :one two three \n" {
		t.Fatalf("line breaks not flattened: %q", got)
	}
}

func TestClassify(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		line string
		want Kind
	}{
		{"PING :irc.example.net", KindPing},
		{":server PING :token", KindPing},
		{":slackbot PRIVMSG bot :Invalid user name or password", KindAuthFailure},
		{":slackbot PRIVMSG other :Invalid user name or password", KindMessage},
		{":irc.example.net 376 bot :End of MOTD command", KindMOTDEnd},
		{":u!h@s PRIVMSG #c :@bot hello there", KindMessage},
		{"PING without colon", KindMessage},
	}
	for _, tc := range cases {
		if got := Classify(tc.line, "bot"); got != tc.want {
			t.Fatalf("Classify(%q)=%s want %s", tc.line, got, tc.want)
		}
	}
	if !KindPing.IsControl() || KindMessage.IsControl() {
		t.Fatalf("unexpected control classification")
	}
}

func TestSenderAndTrimLine(t *testing.T) {
	testlog.Start(t)
	if got := Sender(":nick!user@host PRIVMSG #chan :hi"); got != "nick" {
		t.Fatalf("unexpected sender: %q", got)
	}
	if got := Sender(":irc.example.net 376 bot :End"); got != "irc.example.net" {
		t.Fatalf("unexpected server sender: %q", got)
	}
	if got := Sender("PING :x"); got != "" {
		t.Fatalf("expected empty sender, got %q", got)
	}
	if got := TrimLine("PING :x\r\n"); got != "PING :x" {
		t.Fatalf("unexpected trim: %q", got)
	}
}

func TestValidateToken(t *testing.T) {
	testlog.Start(t)
	if err := ValidateToken("channel", "#ops"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateToken("channel", ""); !errors.Is(err, ErrEmptyArgument) {
		t.Fatalf("expected ErrEmptyArgument, got %v", err)
	}
	if err := ValidateToken("nickname", "two words"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
