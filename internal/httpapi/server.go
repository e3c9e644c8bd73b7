// Copyright (c) 2025 pgbridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package httpapi exposes the bridge to synchronous HTTP callers: one POST
// endpoint accepting the tool-call envelope (id assigned internally), a
// health check that roundtrips to the child, and a generated documentation
// page. The routing surface is a single mux on the standard library; the
// interesting work lives behind the bridge.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"pgbridge/cli/internal/bridge"
	"pgbridge/cli/internal/bridge/model"
	"pgbridge/cli/internal/errors"
	"pgbridge/cli/internal/wire"
)

// DefaultTimeout bounds a tool call when the config does not set one.
const DefaultTimeout = 30 * time.Second

// maxBodyBytes caps request bodies; tool arguments are small.
const maxBodyBytes = 1 << 20

// Server handles the HTTP boundary in front of a bridge session.
type Server struct {
	Bridge  bridge.Bridge
	Timeout time.Duration
}

// New creates a Server over br. A zero timeout falls back to DefaultTimeout.
func New(br bridge.Bridge, timeout time.Duration) *Server {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Server{Bridge: br, Timeout: timeout}
}

// Handler returns the routing surface.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/call", s.handleCall)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/", s.handleDocs)
	return withCORS(mux)
}

// withCORS applies a permissive CORS policy and answers preflights. The
// bridge itself is unauthenticated by design; deployments gate access in
// front of it.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// callRequest is the accepted POST body: either the wire envelope minus id,
// or the bare tool call.
type callRequest struct {
	Method string           `json:"method"`
	Params *wire.CallParams `json:"params"`

	// Bare form.
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// toolCall normalizes both accepted body shapes.
func (c *callRequest) toolCall() (model.ToolCall, error) {
	if c.Params != nil {
		if c.Method != "" && c.Method != wire.MethodCallTool {
			return model.ToolCall{}, fmt.Errorf("unsupported method %q", c.Method)
		}
		return model.ToolCall{Name: c.Params.Name, Arguments: c.Params.Arguments}, nil
	}
	if c.Name == "" {
		return model.ToolCall{}, fmt.Errorf("missing tool name")
	}
	return model.ToolCall{Name: c.Name, Arguments: c.Arguments}, nil
}

func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeEnvelope(w, http.StatusMethodNotAllowed,
			wire.NewErrorResponse("", wire.CodeInvalidParams, "method not allowed"))
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeEnvelope(w, http.StatusBadRequest,
			wire.NewErrorResponse("", wire.CodeParseError, "reading body: "+err.Error()))
		return
	}
	var req callRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeEnvelope(w, http.StatusBadRequest,
			wire.NewErrorResponse("", wire.CodeParseError, "parse error: "+err.Error()))
		return
	}
	call, err := req.toolCall()
	if err != nil {
		writeEnvelope(w, http.StatusBadRequest,
			wire.NewErrorResponse("", wire.CodeInvalidParams, err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.Timeout)
	defer cancel()

	resp, err := s.Bridge.CallTool(ctx, call)
	if err != nil {
		// Synthetic envelope for transport-level failures; callers always
		// receive the response shape they would get from the child.
		switch {
		case errors.Is(err, errors.RequestTimeout) || ctx.Err() != nil:
			writeEnvelope(w, http.StatusGatewayTimeout,
				wire.NewErrorResponse("", wire.CodeInternalError, "request timed out"))
		default:
			writeEnvelope(w, http.StatusBadGateway,
				wire.NewErrorResponse("", wire.CodeInternalError, err.Error()))
		}
		return
	}
	// The matched response envelope passes through verbatim, protocol errors
	// included.
	writeEnvelope(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.Timeout)
	defer cancel()

	status := http.StatusOK
	body := map[string]any{"status": "ok"}
	if err := s.Bridge.Ping(ctx); err != nil {
		status = http.StatusServiceUnavailable
		body = map[string]any{"status": "unavailable", "error": err.Error()}
	} else {
		st := s.Bridge.Stats()
		body["sent"] = st.Sent
		body["received"] = st.Received
		body["malformed"] = st.Malformed
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeEnvelope(w http.ResponseWriter, status int, m *wire.Message) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(m)
}

