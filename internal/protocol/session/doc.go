// Package session owns one connection to the chat server.
//
// Ownership boundary:
// - transport dialing (TCP + TLS) and transport security validation
// - handshake, channel join, keep-alive replies
// - the read/evaluate loop and owner notifications
// - reconnect backoff policy (the supervisor owns the attempt counter)
//
// A Session is single-use: build a new one for every connection attempt.
// Lines are processed strictly in arrival order on the goroutine that calls
// Run; Stop and Snapshot are the only methods safe to call concurrently.
package session
