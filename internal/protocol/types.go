package protocol

// Kind classifies one inbound line for the session loop.
type Kind int

const (
	// KindMessage is any line that is not a control line and goes to the parser.
	KindMessage Kind = iota
	// KindPing is a keep-alive probe that must be answered with PongLine.
	KindPing
	// KindAuthFailure reports rejected credentials.
	KindAuthFailure
	// KindMOTDEnd marks the end of the server greeting banner.
	KindMOTDEnd
)

func (k Kind) String() string {
	switch k {
	case KindPing:
		return "ping"
	case KindAuthFailure:
		return "auth_failure"
	case KindMOTDEnd:
		return "motd_end"
	default:
		return "message"
	}
}

// IsControl reports whether the line is consumed by the session itself.
func (k Kind) IsControl() bool {
	return k != KindMessage
}
