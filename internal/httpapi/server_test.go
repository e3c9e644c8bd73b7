// Copyright (c) 2025 pgbridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pgbridge/cli/internal/bridge/model"
	"pgbridge/cli/internal/errors"
	"pgbridge/cli/internal/wire"
)

// stubBridge scripts CallTool/Ping outcomes.
type stubBridge struct {
	calls    []model.ToolCall
	resp     *wire.Message
	callErr  error
	pingErr  error
	callWait time.Duration
}

func (s *stubBridge) Start(context.Context) error { return nil }
func (s *stubBridge) CallTool(ctx context.Context, call model.ToolCall) (*wire.Message, error) {
	s.calls = append(s.calls, call)
	if s.callWait > 0 {
		select {
		case <-time.After(s.callWait):
		case <-ctx.Done():
			return nil, errors.Wrap(errors.RequestTimeout, "canceled", ctx.Err())
		}
	}
	return s.resp, s.callErr
}
func (s *stubBridge) Ping(context.Context) error { return s.pingErr }
func (s *stubBridge) Stats() model.Stats         { return model.Stats{Sent: 1, Received: 1} }
func (s *stubBridge) Close(context.Context) error { return nil }

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/call", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCallReturnsEnvelopeVerbatim(t *testing.T) {
	resp, _ := wire.NewResponse("3", wire.TextResult(`{"tables":["users"]}`))
	sb := &stubBridge{resp: resp}
	h := New(sb, time.Second).Handler()

	rec := post(t, h, `{"jsonrpc":"2.0","method":"callTool","params":{"name":"get_tables","arguments":{"schema":"public"}}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if len(sb.calls) != 1 || sb.calls[0].Name != "get_tables" {
		t.Fatalf("bridge calls = %+v", sb.calls)
	}

	var m wire.Message
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatal(err)
	}
	if m.ID != "3" || m.Result == nil {
		t.Errorf("envelope = %s", rec.Body)
	}
}

func TestCallAcceptsBareForm(t *testing.T) {
	resp, _ := wire.NewResponse("1", wire.TextResult(`{}`))
	sb := &stubBridge{resp: resp}
	h := New(sb, time.Second).Handler()

	rec := post(t, h, `{"name":"get_tables","arguments":{"schema":"app"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if sb.calls[0].Arguments["schema"] != "app" {
		t.Errorf("arguments = %v", sb.calls[0].Arguments)
	}
}

func TestCallRejectsBadBodies(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{"invalid json", "{nope", wire.CodeParseError},
		{"missing name", `{"arguments":{}}`, wire.CodeInvalidParams},
		{"wrong method", `{"method":"listTools","params":{"name":"x"}}`, wire.CodeInvalidParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sb := &stubBridge{}
			rec := post(t, New(sb, time.Second).Handler(), tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d", rec.Code)
			}
			var m wire.Message
			if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
				t.Fatal(err)
			}
			if m.Error == nil || m.Error.Code != tt.code {
				t.Errorf("error = %+v, want code %d", m.Error, tt.code)
			}
			if len(sb.calls) != 0 {
				t.Error("bridge reached for malformed body")
			}
		})
	}
}

func TestCallTimeoutYieldsSyntheticEnvelope(t *testing.T) {
	sb := &stubBridge{callErr: errors.New(errors.RequestTimeout, "request 5 timed out")}
	rec := post(t, New(sb, 10*time.Millisecond).Handler(), `{"name":"query","arguments":{"sql":"SELECT pg_sleep(60)"}}`)

	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("status = %d", rec.Code)
	}
	var m wire.Message
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatal(err)
	}
	if m.Error == nil || m.Error.Code != wire.CodeInternalError {
		t.Errorf("error = %+v", m.Error)
	}
}

func TestCallTransportFailureIsBadGateway(t *testing.T) {
	sb := &stubBridge{callErr: errors.New(errors.TransportClosed, "child exited")}
	rec := post(t, New(sb, time.Second).Handler(), `{"name":"query","arguments":{"sql":"SELECT 1"}}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := New(&stubBridge{}, time.Second).Handler()
	req := httptest.NewRequest(http.MethodOptions, "/api/call", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
}

func TestHealthz(t *testing.T) {
	h := New(&stubBridge{}, time.Second).Handler()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	sb := &stubBridge{pingErr: errors.New(errors.HeartbeatFailed, "no pong")}
	rec = httptest.NewRecorder()
	New(sb, time.Second).Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("unhealthy status = %d", rec.Code)
	}
}

func TestDocsPageListsTools(t *testing.T) {
	h := New(&stubBridge{}, time.Second).Handler()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, name := range []string{"query", "get_tables", "get_table_schema", "insert_record", "update_record", "delete_record"} {
		if !strings.Contains(body, name) {
			t.Errorf("docs page missing tool %q", name)
		}
	}
	if !strings.Contains(body, "Trust boundary") {
		t.Error("docs page missing trust-boundary warning")
	}
}

func TestGetOnCallEndpointRejected(t *testing.T) {
	h := New(&stubBridge{}, time.Second).Handler()
	req := httptest.NewRequest(http.MethodGet, "/api/call", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rec.Code)
	}
}
