// Copyright (c) 2025 pgbridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package wire

import (
	"strings"
	"testing"
)

func TestEncodeDecodeRequest(t *testing.T) {
	req := NewRequest("7", "insert_record", map[string]any{
		"table": "users",
		"data":  map[string]any{"name": "x"},
	})
	line, err := Encode(req)
	if err != nil {
		t.Fatal(err)
	}
	if line[len(line)-1] != '\n' {
		t.Error("encoded line missing terminator")
	}
	if strings.Count(string(line), "\n") != 1 {
		t.Error("encoded line contains embedded newlines")
	}

	got, err := Decode(line[:len(line)-1])
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "7" || got.Method != MethodCallTool {
		t.Errorf("decoded id=%q method=%q", got.ID, got.Method)
	}
	if got.Params == nil || got.Params.Name != "insert_record" {
		t.Errorf("decoded params = %+v", got.Params)
	}
	if got.IsResponse() {
		t.Error("request classified as response")
	}
}

func TestDecodeRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"not json", "{nope"},
		{"wrong version", `{"jsonrpc":"1.0","id":"1","result":{}}`},
		{"result and error", `{"jsonrpc":"2.0","id":"1","result":{},"error":{"code":-32000,"message":"x"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode([]byte(tt.line)); err == nil {
				t.Errorf("Decode(%q) succeeded, want error", tt.line)
			}
		})
	}
}

func TestErrorResponseRoundTrip(t *testing.T) {
	line, err := Encode(NewErrorResponse("42", CodeMethodNotFound, "unknown tool"))
	if err != nil {
		t.Fatal(err)
	}
	m, err := Decode(line[:len(line)-1])
	if err != nil {
		t.Fatal(err)
	}
	if !m.IsResponse() {
		t.Fatal("error envelope not classified as response")
	}
	if m.Error == nil || m.Error.Code != CodeMethodNotFound {
		t.Errorf("error = %+v", m.Error)
	}
	// The id must survive bit-for-bit; correlation matches it exactly.
	if m.ID != "42" {
		t.Errorf("id = %q, want %q", m.ID, "42")
	}
}
