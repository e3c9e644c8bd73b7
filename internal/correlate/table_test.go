// Copyright (c) 2025 pgbridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package correlate

import (
	"testing"
	"time"

	"pgbridge/cli/internal/errors"
)

func TestResolveCompletesMatchingCompletionOnly(t *testing.T) {
	tbl := New()

	id1, ch1 := tbl.Begin(time.Second)
	id2, ch2 := tbl.Begin(time.Second)
	if id1 == id2 {
		t.Fatalf("ids collide: %q", id1)
	}

	tbl.Resolve(id2, []byte(`"second"`))

	select {
	case out := <-ch2:
		if out.Err != nil || string(out.Result) != `"second"` {
			t.Errorf("ch2 outcome = %+v", out)
		}
	case <-time.After(time.Second):
		t.Fatal("ch2 never resolved")
	}

	select {
	case out := <-ch1:
		t.Fatalf("ch1 resolved spuriously: %+v", out)
	default:
	}

	tbl.Resolve(id1, []byte(`"first"`))
	if out := <-ch1; string(out.Result) != `"first"` {
		t.Errorf("ch1 outcome = %+v", out)
	}
	if n := tbl.Outstanding(); n != 0 {
		t.Errorf("outstanding = %d, want 0", n)
	}
}

func TestIdsAreMonotonicDecimalStrings(t *testing.T) {
	tbl := New()
	id1, _ := tbl.Begin(time.Second)
	id2, _ := tbl.Begin(time.Second)
	id3, _ := tbl.Begin(time.Second)
	if id1 != "1" || id2 != "2" || id3 != "3" {
		t.Errorf("ids = %q, %q, %q", id1, id2, id3)
	}
}

func TestExactIDMatch(t *testing.T) {
	tbl := New()
	id, ch := tbl.Begin(time.Second)
	if id != "1" {
		t.Fatalf("id = %q", id)
	}

	// "01" is numerically equal but must not match.
	tbl.Resolve("01", []byte(`{}`))
	select {
	case out := <-ch:
		t.Fatalf("resolved by non-identical id: %+v", out)
	default:
	}
	tbl.Resolve("1", []byte(`{}`))
	<-ch
}

func TestTimeoutEvictsAndLateResolveIsNoOp(t *testing.T) {
	tbl := New()
	id, ch := tbl.Begin(10 * time.Millisecond)

	select {
	case out := <-ch:
		if out.Err == nil {
			t.Fatalf("expected timeout error, got result %q", out.Result)
		}
		if !errors.Is(out.Err, errors.RequestTimeout) {
			t.Errorf("error kind = %v, want request_timeout", out.Err)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout never fired")
	}

	// Late responses after eviction must be silently ignored.
	tbl.Resolve(id, []byte(`{}`))
	tbl.Reject(id, errors.New(errors.ProtocolError, "late"))
	select {
	case out := <-ch:
		t.Fatalf("evicted completion resurrected: %+v", out)
	default:
	}
}

func TestResolveBeatsTimer(t *testing.T) {
	tbl := New()
	id, ch := tbl.Begin(20 * time.Millisecond)
	tbl.Resolve(id, []byte(`{}`))

	out := <-ch
	if out.Err != nil {
		t.Fatalf("resolve lost to timer: %v", out.Err)
	}
	// Give the stopped timer a chance to misfire; the channel is buffered for
	// one outcome, so a second delivery would be observable.
	time.Sleep(40 * time.Millisecond)
	select {
	case out := <-ch:
		t.Fatalf("second outcome delivered: %+v", out)
	default:
	}
}

func TestFailAllRejectsOutstandingAndClosesTable(t *testing.T) {
	tbl := New()
	_, ch1 := tbl.Begin(time.Minute)
	_, ch2 := tbl.Begin(time.Minute)

	tbl.FailAll(errors.New(errors.TransportClosed, "child exited"))

	for i, ch := range []<-chan Outcome{ch1, ch2} {
		select {
		case out := <-ch:
			if !errors.Is(out.Err, errors.TransportClosed) {
				t.Errorf("ch%d error = %v, want transport_closed", i+1, out.Err)
			}
		case <-time.After(time.Second):
			t.Fatalf("ch%d never rejected", i+1)
		}
	}

	// Begin after close fails immediately.
	_, ch := tbl.Begin(time.Minute)
	out := <-ch
	if !errors.Is(out.Err, errors.TransportClosed) {
		t.Errorf("post-close Begin error = %v", out.Err)
	}
}

func TestRejectDeliversError(t *testing.T) {
	tbl := New()
	id, ch := tbl.Begin(time.Second)
	tbl.Reject(id, errors.New(errors.ProtocolError, "unknown tool"))

	out := <-ch
	if !errors.Is(out.Err, errors.ProtocolError) {
		t.Errorf("error = %v, want protocol_error", out.Err)
	}
	// Duplicate reject is a no-op.
	tbl.Reject(id, errors.New(errors.ProtocolError, "again"))
}
