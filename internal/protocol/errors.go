package protocol

import "errors"

var (
	ErrEmptyTarget   = errors.New("protocol: empty message target")
	ErrInvalidToken  = errors.New("protocol: token contains whitespace")
	ErrEmptyArgument = errors.New("protocol: empty argument")
)
