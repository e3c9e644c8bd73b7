// Copyright (c) 2025 pgbridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package model defines shared data structures for bridge communication.
// It provides type definitions for tool invocations and session statistics
// that are exchanged between the HTTP boundary and the bridge implementation.
//
// The types in this package are transport-agnostic and provide a stable
// interface regardless of how the child tool server is reached.
package model

// ToolCall models one tool invocation submitted by a caller.
type ToolCall struct {
	Name      string
	Arguments map[string]any
}

// Stats reports counters for one bridge session.
type Stats struct {
	// Sent is the number of request lines written to the child.
	Sent int64
	// Received is the number of well-formed response lines read back.
	Received int64
	// Malformed counts lines that failed envelope parsing. They are logged
	// and dropped without disturbing other in-flight requests.
	Malformed int64
}
