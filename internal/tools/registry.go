// Copyright (c) 2025 pgbridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package tools implements the tool dispatcher and the database tool
// handlers that run inside the stdio child.
//
// The dispatcher separates two failure classes that callers branch on: a
// malformed invocation (unknown tool, missing required argument) is a
// protocol-level error and never touches the executor, while a handler that
// ran and failed (constraint violation, bad SQL) comes back as a successful
// envelope with isError set, preserving the executor's message verbatim.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"pgbridge/cli/internal/wire"
)

// Handler executes one tool call. A returned error is an execution failure,
// reported inline as an isError result, never as a protocol error.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Arg documents one tool argument for validation and the docs page.
type Arg struct {
	Name        string
	Required    bool
	Description string
}

// Tool is a named, schema-validated operation exposed to callers.
type Tool struct {
	Name        string
	Description string
	Args        []Arg
	Handler     Handler
}

// Registry maps tool names to handlers.
type Registry struct {
	tools map[string]*Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Tool)}
}

// Register adds a tool; registering a duplicate name panics, since tool sets
// are wired at startup and a collision is a programming error.
func (r *Registry) Register(t *Tool) {
	if _, dup := r.tools[t.Name]; dup {
		panic(fmt.Sprintf("tools: duplicate registration of %q", t.Name))
	}
	r.tools[t.Name] = t
}

// List returns all tools sorted by name, for the documentation page.
func (r *Registry) List() []*Tool {
	out := make([]*Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Dispatch validates and runs one tool call. The second return value is a
// protocol-level error; when it is nil the first is always a usable result,
// possibly flagged isError.
func (r *Registry) Dispatch(ctx context.Context, call *wire.CallParams) (*wire.ToolResult, *wire.ErrorObject) {
	if call == nil || call.Name == "" {
		return nil, &wire.ErrorObject{Code: wire.CodeInvalidParams, Message: "missing tool name"}
	}
	t, ok := r.tools[call.Name]
	if !ok {
		return nil, &wire.ErrorObject{Code: wire.CodeMethodNotFound, Message: fmt.Sprintf("unknown tool %q", call.Name)}
	}

	for _, a := range t.Args {
		if !a.Required {
			continue
		}
		if _, present := call.Arguments[a.Name]; !present {
			return nil, &wire.ErrorObject{
				Code:    wire.CodeInvalidParams,
				Message: fmt.Sprintf("%s: missing required argument %q", t.Name, a.Name),
			}
		}
	}

	payload, err := t.Handler(ctx, call.Arguments)
	if err != nil {
		return wire.ErrorResult(err.Error()), nil
	}

	text, merr := json.Marshal(payload)
	if merr != nil {
		return nil, &wire.ErrorObject{Code: wire.CodeInternalError, Message: "encoding tool result: " + merr.Error()}
	}
	return wire.TextResult(string(text)), nil
}

// Argument extraction helpers. Absent or mistyped optional arguments fall
// back to zero values; required presence is enforced by Dispatch.

func stringArg(args map[string]any, key string) string {
	if s, ok := args[key].(string); ok {
		return s
	}
	return ""
}

func mapArg(args map[string]any, key string) map[string]any {
	if m, ok := args[key].(map[string]any); ok {
		return m
	}
	return nil
}

func stringListArg(args map[string]any, key string) []string {
	var out []string
	if list, ok := args[key].([]any); ok {
		for _, v := range list {
			if s, ok := v.(string); ok && s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func listArg(args map[string]any, key string) []any {
	if list, ok := args[key].([]any); ok {
		return list
	}
	return nil
}
