package session

// State is the session lifecycle position.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateHandshaking
	StateJoining
	StateAwaitingReady
	StateReady
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateHandshaking:
		return "handshaking"
	case StateJoining:
		return "joining"
	case StateAwaitingReady:
		return "awaiting_ready"
	case StateReady:
		return "ready"
	case StateTerminated:
		return "terminated"
	default:
		return "disconnected"
	}
}

// AllStates lists every state in lifecycle order.
func AllStates() []State {
	return []State{
		StateDisconnected,
		StateConnecting,
		StateHandshaking,
		StateJoining,
		StateAwaitingReady,
		StateReady,
		StateTerminated,
	}
}
