// Copyright (c) 2025 pgbridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package tools

import (
	"context"
	"io"
	"log"

	"pgbridge/cli/internal/wire"
)

// Server is the child-side request loop: newline-framed JSON-RPC requests in,
// one framed response line per request out. Requests run one at a time in
// submission order; callers that want concurrency keep several requests in
// flight and correlate by id on their side.
type Server struct {
	reg *Registry
	in  io.Reader
	out io.Writer

	// Logf receives diagnostics; it must never write to out, which carries
	// only wire messages. Defaults to log.Printf (stderr).
	Logf func(format string, args ...any)
}

// NewServer creates a Server reading requests from in and writing responses to out.
func NewServer(reg *Registry, in io.Reader, out io.Writer) *Server {
	return &Server{reg: reg, in: in, out: out, Logf: log.Printf}
}

// Run processes requests until in reaches EOF, a shutdown notification
// arrives, or ctx is canceled. A malformed line produces a parse-error
// response and processing continues with the next line; it never tears down
// the loop or other in-flight work on the caller side.
func (s *Server) Run(ctx context.Context) error {
	var framer wire.Framer
	buf := make([]byte, 4096)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, rerr := s.in.Read(buf)
		for _, line := range framer.Feed(buf[:n]) {
			if len(line) == 0 {
				continue
			}
			if done := s.handleLine(ctx, line); done {
				return nil
			}
		}
		if rerr != nil {
			if rerr == io.EOF {
				return nil
			}
			return rerr
		}
	}
}

// handleLine processes one framed line and reports whether the loop should stop.
func (s *Server) handleLine(ctx context.Context, line []byte) bool {
	msg, err := wire.Decode(line)
	if err != nil {
		s.Logf("malformed request line: %v", err)
		s.write(wire.NewErrorResponse("", wire.CodeParseError, "parse error: "+err.Error()))
		return false
	}

	switch msg.Method {
	case wire.MethodPing:
		resp, _ := wire.NewResponse(msg.ID, map[string]any{})
		s.write(resp)
	case wire.MethodShutdown:
		// Notification: no response, exit the loop.
		return true
	case wire.MethodCallTool:
		result, protoErr := s.reg.Dispatch(ctx, msg.Params)
		if protoErr != nil {
			s.write(&wire.Message{JSONRPC: wire.JSONRPCVersion, ID: msg.ID, Error: protoErr})
			break
		}
		resp, merr := wire.NewResponse(msg.ID, result)
		if merr != nil {
			s.write(wire.NewErrorResponse(msg.ID, wire.CodeInternalError, merr.Error()))
			break
		}
		s.write(resp)
	default:
		s.write(wire.NewErrorResponse(msg.ID, wire.CodeMethodNotFound, "unknown method "+msg.Method))
	}
	return false
}

func (s *Server) write(m *wire.Message) {
	line, err := wire.Encode(m)
	if err != nil {
		s.Logf("encoding response: %v", err)
		return
	}
	if _, err := s.out.Write(line); err != nil {
		s.Logf("writing response: %v", err)
	}
}
