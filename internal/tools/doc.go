// Package tools provides host command execution for built-in command handlers.
//
// Ownership boundary:
// - local command execution
//
// - remote command execution over SSH
package tools
