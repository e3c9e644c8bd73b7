// Copyright (c) 2025 pgbridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package bridge defines interfaces and implementations for bridging between
// synchronous callers and the stdio child tool server. It provides an
// abstraction over the transport so the HTTP boundary never touches the
// child's byte channels directly, and so tests can substitute an in-memory
// duplex stream for a real process.
package bridge

import (
	"context"
	"time"

	"pgbridge/cli/internal/bridge/model"
	"pgbridge/cli/internal/bridge/stdioclient"
	"pgbridge/cli/internal/wire"
)

// Bridge represents a session with the child tool server. Many CallTool
// invocations may be in flight concurrently; each carries its own request id
// and deadline, and responses are matched by id, never by arrival order.
type Bridge interface {
	// Start launches the transport and performs the ping handshake.
	Start(ctx context.Context) error
	// CallTool submits one invocation and returns the matched response
	// envelope, or an error for transport-level failures and timeouts.
	CallTool(ctx context.Context, call model.ToolCall) (*wire.Message, error)
	// Ping performs a health-check roundtrip to the child.
	Ping(ctx context.Context) error
	// Stats reports session counters.
	Stats() model.Stats
	// Close rejects all pending completions and tears down the child.
	Close(ctx context.Context) error
}

// New creates a bridge over the given transport with a per-request timeout.
func New(t stdioclient.Transport, timeout time.Duration) Bridge {
	return stdioclient.NewClient(t, timeout)
}

// NewChild creates a bridge that spawns command args... as the child process.
func NewChild(timeout time.Duration, command string, args ...string) Bridge {
	return stdioclient.NewClient(stdioclient.NewChildProcess(command, args...), timeout)
}
