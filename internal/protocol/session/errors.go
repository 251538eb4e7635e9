package session

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthenticationFailed ends a session whose credentials the server
	// rejected. It is not a transport fault: retrying with the same
	// credentials cannot succeed.
	ErrAuthenticationFailed = errors.New("session: authentication failed")
	ErrSessionStarted       = errors.New("session: already started")
	ErrInvalidParams        = errors.New("session: invalid parameters")
	ErrEvaluationPanic      = errors.New("session: evaluation panicked")
)

// TransportError is a connect, send or receive failure. Only this kind is
// retried by the supervisor's backoff loop.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("session: transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether err is, or wraps, a *TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
