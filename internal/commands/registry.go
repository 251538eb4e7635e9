package commands

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/danmuck/ircbot/internal/auth"
)

var (
	ErrCommandExists   = errors.New("commands: command already registered")
	ErrHandlerNil      = errors.New("commands: handler is nil")
	ErrInvalidSpec     = errors.New("commands: invalid command spec")
	ErrUnknownCommand  = errors.New("commands: unknown command")
	ErrUnknownMethod   = errors.New("commands: unknown handler method")
	ErrNotAuthorized   = errors.New("commands: sender not authorized")
	ErrHandlerPanicked = errors.New("commands: handler panicked")
)

// Handler runs one command. An empty response sends nothing.
type Handler interface {
	Handle(ctx context.Context, args string) (string, error)
}

// HandlerFunc adapts a function into a Handler.
type HandlerFunc func(ctx context.Context, args string) (string, error)

func (f HandlerFunc) Handle(ctx context.Context, args string) (string, error) {
	return f(ctx, args)
}

// Spec is the configured shape of one command.
type Spec struct {
	Name      string
	Method    string
	Help      string
	OwnerOnly bool
}

// Invocation is one parsed command with the nickname of whoever sent it.
type Invocation struct {
	Name   string
	Args   string
	Sender string
}

// HandlerError wraps a failure raised while a command ran.
type HandlerError struct {
	Command string
	Err     error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("command %s: %v", e.Command, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

type entry struct {
	spec    Spec
	handler Handler
}

// Registry maps exact command names to handlers.
type Registry struct {
	items map[string]entry
	owner auth.Validator
}

// NewRegistry creates an empty registry. Owner-only commands are checked
// against owner; a nil owner rejects every restricted invocation.
func NewRegistry(owner auth.Validator) *Registry {
	if owner == nil {
		owner = auth.FuncValidator(func(string) error { return auth.ErrUnauthorized })
	}
	return &Registry{
		items: make(map[string]entry),
		owner: owner,
	}
}

// ValidateSpec checks that a name can ever match a single message token.
func ValidateSpec(spec Spec) error {
	if spec.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidSpec)
	}
	if strings.IndexFunc(spec.Name, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: name %q contains whitespace", ErrInvalidSpec, spec.Name)
	}
	return nil
}

func (r *Registry) Register(spec Spec, handler Handler) error {
	if handler == nil {
		return ErrHandlerNil
	}
	if err := ValidateSpec(spec); err != nil {
		return err
	}
	if _, ok := r.items[spec.Name]; ok {
		return fmt.Errorf("%w: %s", ErrCommandExists, spec.Name)
	}
	r.items[spec.Name] = entry{spec: spec, handler: handler}
	return nil
}

// Has satisfies the parser's command set view.
func (r *Registry) Has(name string) bool {
	_, ok := r.items[name]
	return ok
}

func (r *Registry) Lookup(name string) (Handler, bool) {
	e, ok := r.items[name]
	if !ok {
		return nil, false
	}
	return e.handler, true
}

func (r *Registry) Spec(name string) (Spec, bool) {
	e, ok := r.items[name]
	return e.spec, ok
}

func (r *Registry) Help(name string) (string, bool) {
	e, ok := r.items[name]
	if !ok {
		return "", false
	}
	return e.spec.Help, true
}

// Names returns registered names in lexical order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.items))
	for name := range r.items {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Specs returns registered specs in lexical name order.
func (r *Registry) Specs() []Spec {
	names := r.Names()
	out := make([]Spec, 0, len(names))
	for _, name := range names {
		out = append(out, r.items[name].spec)
	}
	return out
}

func (r *Registry) Len() int {
	return len(r.items)
}

// Invoke runs the named handler. Every failure, including a panic inside the
// handler, comes back as a *HandlerError.
func (r *Registry) Invoke(ctx context.Context, inv Invocation) (resp string, err error) {
	e, ok := r.items[inv.Name]
	if !ok {
		return "", &HandlerError{Command: inv.Name, Err: ErrUnknownCommand}
	}
	if e.spec.OwnerOnly {
		if authErr := r.owner.Validate(inv.Sender); authErr != nil {
			return "", &HandlerError{Command: inv.Name, Err: fmt.Errorf("%w: %q", ErrNotAuthorized, inv.Sender)}
		}
	}

	defer func() {
		if rec := recover(); rec != nil {
			resp = ""
			err = &HandlerError{Command: inv.Name, Err: fmt.Errorf("%w: %v", ErrHandlerPanicked, rec)}
		}
	}()

	resp, err = e.handler.Handle(ctx, inv.Args)
	if err != nil {
		return "", &HandlerError{Command: inv.Name, Err: err}
	}
	return resp, nil
}
