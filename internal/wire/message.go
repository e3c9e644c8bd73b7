// Copyright (c) 2025 pgbridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package wire defines the line-oriented JSON-RPC envelope exchanged between
// the bridge and the stdio child, plus the framer that reassembles messages
// from arbitrary byte chunks.
//
// Every message is a single UTF-8 JSON object terminated by '\n'. A request
// carries method+params+id; a response echoes the request id and carries
// exactly one of result or error. Ids are opaque strings: the sender encodes
// them, the responder echoes them back verbatim, and matching is exact string
// equality, never numeric coercion.
package wire

import (
	"encoding/json"
	"fmt"
)

// JSONRPCVersion is the protocol version stamped on every message.
const JSONRPCVersion = "2.0"

// Methods understood by the stdio child.
const (
	MethodCallTool = "callTool"
	MethodPing     = "ping"
	MethodShutdown = "shutdown" // notification; no id, no response
)

// JSON-RPC error codes used on the wire.
const (
	CodeParseError     = -32700
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32000
)

// Message is the wire envelope for both requests and responses.
type Message struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  *CallParams     `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ErrorObject    `json:"error,omitempty"`
}

// CallParams names the tool to invoke and its arguments.
type CallParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// ErrorObject is a protocol-level error on a response.
type ErrorObject struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *ErrorObject) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// ToolResult is the payload of a successful callTool response. Execution
// failures inside a handler are reported here with IsError set, not as a
// protocol error: the tool ran and the operation failed, which callers treat
// as recoverable.
type ToolResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// ContentBlock is one element of a tool result payload.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// TextResult wraps a JSON-encoded payload string into a single-block result.
func TextResult(text string) *ToolResult {
	return &ToolResult{Content: []ContentBlock{{Type: "text", Text: text}}}
}

// ErrorResult wraps an execution failure message into an isError result.
func ErrorResult(text string) *ToolResult {
	return &ToolResult{Content: []ContentBlock{{Type: "text", Text: text}}, IsError: true}
}

// NewRequest builds a callTool request envelope.
func NewRequest(id, tool string, args map[string]any) *Message {
	return &Message{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Method:  MethodCallTool,
		Params:  &CallParams{Name: tool, Arguments: args},
	}
}

// NewResponse builds a success response echoing id.
func NewResponse(id string, result any) (*Message, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return &Message{JSONRPC: JSONRPCVersion, ID: id, Result: raw}, nil
}

// NewErrorResponse builds a protocol error response echoing id. The id may be
// empty when the request id could not be recovered (parse errors).
func NewErrorResponse(id string, code int, msg string) *Message {
	return &Message{JSONRPC: JSONRPCVersion, ID: id, Error: &ErrorObject{Code: code, Message: msg}}
}

// Encode serializes a message and appends the line terminator.
func Encode(m *Message) ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// Decode parses one framed line into a message and validates the envelope.
func Decode(line []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(line, &m); err != nil {
		return nil, fmt.Errorf("malformed message: %w", err)
	}
	if m.JSONRPC != JSONRPCVersion {
		return nil, fmt.Errorf("malformed message: jsonrpc version %q", m.JSONRPC)
	}
	if m.Method == "" && m.Result != nil && m.Error != nil {
		return nil, fmt.Errorf("malformed message: response carries both result and error")
	}
	return &m, nil
}

// IsResponse reports whether the message is a response envelope.
func (m *Message) IsResponse() bool {
	return m.Method == "" && (m.Result != nil || m.Error != nil)
}
