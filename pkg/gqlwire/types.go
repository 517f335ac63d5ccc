// ABOUTME: Public type surface of the client
// ABOUTME: Re-exports wire and builder types plus the client's own error kinds
package gqlwire

import (
	"fmt"

	"github.com/gqlwire/gqlwire-go/internal/payload"
	"github.com/gqlwire/gqlwire-go/internal/protocol"
	"github.com/gqlwire/gqlwire-go/internal/subscription"
)

// Envelope is a GraphQL execution result: optional data plus an optional
// error list, both always materialized.
type Envelope = protocol.Envelope

// GraphQLError is one server-reported execution error.
type GraphQLError = protocol.GraphQLError

// ExecutionError wraps execution-level errors when the caller opted into
// raising them.
type ExecutionError = protocol.ExecutionError

// HandshakeError is a fatal protocol violation during subscription setup.
type HandshakeError = subscription.HandshakeError

// Field selects one output field, optionally nested.
type Field = payload.Field

// Fields builds a flat selection set.
func Fields(names ...string) []Field {
	return payload.Fields(names...)
}

// Handler consumes one execution result per subscription frame; returning
// true ends the subscription.
type Handler func(*Envelope) bool

// UsageError reports a call that failed before any I/O, such as subscribing
// to an operation the schema does not declare.
type UsageError struct {
	Op     string
	Reason string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}
