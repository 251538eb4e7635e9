// Package commands owns the command registry consumed by the session loop.
//
// Ownership boundary:
// - command name -> handler mapping, built once at startup
// - help text and name listing pass-through
// - built-in handlers and their method identifiers
//
// The registry is read-only after Build; handlers run synchronously on the
// session goroutine.
package commands
