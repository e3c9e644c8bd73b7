// Copyright (c) 2025 pgbridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package stdioclient implements the Bridge interface over a line-framed
// stdio transport. The client multiplexes many concurrent logical requests
// onto one bidirectional byte stream: every request line carries a unique id,
// a correlation table tracks one pending completion per id with a deadline,
// and the read loop matches response lines back by exact id.
//
// The package manages session lifecycle, the read loop, and framing; the
// transport owns the child process itself.
package stdioclient

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"pgbridge/cli/internal/bridge/model"
	"pgbridge/cli/internal/correlate"
	"pgbridge/cli/internal/errors"
	"pgbridge/cli/internal/wire"
)

// readBufSize is the chunk size of the read loop. Delivery boundaries are
// arbitrary; the framer reassembles lines.
const readBufSize = 4096

// Client implements bridge.Bridge over a Transport.
type Client struct {
	transport Transport
	table     *correlate.Table
	timeout   time.Duration

	// session identifies this transport session in logs.
	session string

	writeMu sync.Mutex
	started atomic.Bool
	closed  atomic.Bool
	done    chan struct{}

	sent      atomic.Int64
	received  atomic.Int64
	malformed atomic.Int64

	// Logf receives read-loop diagnostics. Defaults to log.Printf.
	Logf func(format string, args ...any)
}

// NewClient creates a client over t with the given per-request timeout.
func NewClient(t Transport, timeout time.Duration) *Client {
	return &Client{
		transport: t,
		table:     correlate.New(),
		timeout:   timeout,
		session:   uuid.NewString(),
		done:      make(chan struct{}),
		Logf:      log.Printf,
	}
}

// Session returns the session id assigned at construction.
func (c *Client) Session() string { return c.session }

// Start brings up the transport, starts the read loop, and performs the ping
// handshake so a broken child is detected before any caller traffic.
func (c *Client) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return errors.New(errors.ChildStartFailed, "bridge already started")
	}
	if err := c.transport.Start(ctx); err != nil {
		return err
	}
	go c.readLoop()

	if err := c.Ping(ctx); err != nil {
		_ = c.Close(ctx)
		return errors.Wrap(errors.HandshakeFailed, "initial ping", err)
	}
	c.Logf("bridge session %s established", c.session)
	return nil
}

// CallTool submits one tool invocation and awaits the matched response
// envelope. Responses arriving out of submission order are fine; the id is
// the only thing that matters. Transport failures and deadline expiry
// surface as errors; protocol errors from the child come back inside the
// envelope for the caller to inspect.
func (c *Client) CallTool(ctx context.Context, call model.ToolCall) (*wire.Message, error) {
	return c.roundTrip(ctx, func(id string) *wire.Message {
		return wire.NewRequest(id, call.Name, call.Arguments)
	})
}

// Ping performs a health-check roundtrip.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.roundTrip(ctx, func(id string) *wire.Message {
		return &wire.Message{JSONRPC: wire.JSONRPCVersion, ID: id, Method: wire.MethodPing}
	})
	if err != nil {
		return err
	}
	if resp.Error != nil {
		return errors.Wrap(errors.HeartbeatFailed, "ping rejected", resp.Error)
	}
	return nil
}

// Stats reports session counters.
func (c *Client) Stats() model.Stats {
	return model.Stats{
		Sent:      c.sent.Load(),
		Received:  c.received.Load(),
		Malformed: c.malformed.Load(),
	}
}

// roundTrip registers a pending completion, writes one framed request line,
// and awaits resolution, rejection, timeout, or caller cancellation.
func (c *Client) roundTrip(ctx context.Context, build func(id string) *wire.Message) (*wire.Message, error) {
	id, outcome := c.table.Begin(c.timeout)

	line, err := wire.Encode(build(id))
	if err != nil {
		c.table.Reject(id, err)
		<-outcome
		return nil, err
	}

	c.writeMu.Lock()
	_, werr := c.transport.Writer().Write(line)
	c.writeMu.Unlock()
	if werr != nil {
		c.table.Reject(id, errors.Wrap(errors.TransportClosed, "writing request", werr))
		out := <-outcome
		return nil, out.Err
	}
	c.sent.Add(1)

	select {
	case out := <-outcome:
		if out.Err != nil {
			return nil, out.Err
		}
		return wire.Decode(out.Result)
	case <-ctx.Done():
		// The pending completion stays registered until its own deadline
		// evicts it; a response arriving in between is discarded as a no-op.
		return nil, ctx.Err()
	}
}

// readLoop drains the transport's output channel: feed the framer, decode
// each complete line, and resolve the matching pending completion with the
// raw response bytes. A malformed line is counted and logged, and processing
// continues - it must never disturb other pending completions.
func (c *Client) readLoop() {
	defer close(c.done)
	var framer wire.Framer
	buf := make([]byte, readBufSize)

	for {
		n, rerr := c.transport.Reader().Read(buf)
		for _, line := range framer.Feed(buf[:n]) {
			if len(line) == 0 {
				continue
			}
			msg, err := wire.Decode(line)
			if err != nil {
				c.malformed.Add(1)
				c.Logf("bridge session %s: dropping malformed line: %v", c.session, err)
				continue
			}
			if !msg.IsResponse() {
				c.Logf("bridge session %s: unexpected non-response message (method %q)", c.session, msg.Method)
				continue
			}
			c.received.Add(1)
			// Late or unknown ids are no-ops inside the table.
			c.table.Resolve(msg.ID, append([]byte(nil), line...))
		}
		if rerr != nil {
			if !c.closed.Load() {
				c.Logf("bridge session %s: transport closed: %v", c.session, rerr)
			}
			c.table.FailAll(errors.Wrap(errors.TransportClosed, "connection closed", rerr))
			return
		}
	}
}

// Close sends the shutdown notification, tears down the transport, and
// rejects every outstanding completion with a connection-closed error.
func (c *Client) Close(ctx context.Context) error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	if line, err := wire.Encode(&wire.Message{JSONRPC: wire.JSONRPCVersion, Method: wire.MethodShutdown}); err == nil {
		c.writeMu.Lock()
		_, _ = c.transport.Writer().Write(line)
		c.writeMu.Unlock()
	}
	err := c.transport.Close()
	c.table.FailAll(errors.New(errors.TransportClosed, "bridge closed"))

	select {
	case <-c.done:
	case <-time.After(childWaitTimeout):
	case <-ctx.Done():
	}
	return err
}
