// Package errors defines typed errors with categories for user-friendly reporting.
// It provides a structured approach to error handling with machine-readable error kinds
// and human-friendly messages, so transport, protocol, and timeout failures can be
// told apart without string matching.
//
// The package supports wrapping underlying errors while maintaining error kind information,
// making it easier to handle different types of failures appropriately.
package errors

import "fmt"

// Kind is a machine-readable error category.
type Kind string

const (
	// ChildStartFailed indicates the stdio child process failed to start.
	ChildStartFailed Kind = "child_start_failed"
	// HandshakeFailed indicates the initial ping over the child transport failed.
	HandshakeFailed Kind = "handshake_failed"
	// HeartbeatFailed indicates a health-check ping failed after startup.
	HeartbeatFailed Kind = "heartbeat_failed"
	// RequestTimeout indicates no response arrived within the deadline.
	RequestTimeout Kind = "request_timeout"
	// TransportClosed indicates the child transport went away with requests in flight.
	TransportClosed Kind = "transport_closed"
	// ProtocolError indicates a structured error response from the child.
	ProtocolError Kind = "protocol_error"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *E) Unwrap() error { return e.Err }

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// Is reports whether err carries the given kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*E); ok && e.Kind == kind {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
