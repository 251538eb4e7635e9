// Package protocol owns the line-oriented chat wire contract.
//
// Ownership boundary:
// - outbound line builders (identification, join, message, keep-alive reply)
// - inbound control-line classification
// - prefix inspection helpers
//
// Every outbound line is terminated by a single "\n".
package protocol
