// Package auth decides which chat senders may run restricted commands.
//
// It holds no credentials: sender identities come from the line prefix the
// server relays, so this is authorization, not authentication.
package auth

import (
	"crypto/subtle"
	"errors"
	"strings"
)

var ErrUnauthorized = errors.New("auth: unauthorized")

// Validator validates a sender identity.
type Validator interface {
	Validate(identity string) error
}

// Owner accepts exactly one identity. A leading mention sigil on either side
// is ignored so "@master" and "master" compare equal.
type Owner struct {
	Identity string
}

func (o Owner) Validate(identity string) error {
	want := normalize(o.Identity)
	got := normalize(identity)
	if want == "" || got == "" {
		return ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(want), []byte(got)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// FuncValidator adapts a function into a Validator.
type FuncValidator func(identity string) error

func (f FuncValidator) Validate(identity string) error {
	return f(identity)
}

// AllowAll accepts any sender, including an unknown one.
type AllowAll struct{}

func (AllowAll) Validate(string) error {
	return nil
}

func normalize(identity string) string {
	return strings.TrimPrefix(strings.TrimSpace(identity), "@")
}
