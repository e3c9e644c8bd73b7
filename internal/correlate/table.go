// Copyright (c) 2025 pgbridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package correlate matches asynchronous responses to the requests that
// triggered them. Each in-flight request owns a pending completion keyed by
// an opaque string id; responses may arrive in any order and are matched by
// exact id equality.
package correlate

import (
	"strconv"
	"sync"
	"time"

	"pgbridge/cli/internal/errors"
)

// Outcome is the single terminal result of a pending completion: exactly one
// of Result or Err is set.
type Outcome struct {
	Result []byte
	Err    error
}

type pending struct {
	ch    chan Outcome
	timer *time.Timer
}

// Table tracks one pending completion per request id with a deadline.
// The zero value is not usable; call New. A Table is created per transport
// session and torn down with FailAll when the transport closes.
type Table struct {
	mu     sync.Mutex
	next   uint64
	inline map[string]*pending
	closed bool
}

// New creates an empty correlation table.
func New() *Table {
	return &Table{inline: make(map[string]*pending)}
}

// Begin allocates the next request id, registers a pending completion with
// the given timeout, and returns a channel that yields exactly one Outcome:
// the matching Resolve or Reject, a timeout, or the FailAll error.
//
// Ids come from a monotonic counter encoded as a decimal string and are never
// reused while an earlier completion is outstanding; wraparound is not a
// concern at expected volumes.
func (t *Table) Begin(timeout time.Duration) (string, <-chan Outcome) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.next++
	id := strconv.FormatUint(t.next, 10)
	p := &pending{ch: make(chan Outcome, 1)}

	if t.closed {
		p.ch <- Outcome{Err: errors.New(errors.TransportClosed, "transport closed")}
		return id, p.ch
	}

	p.timer = time.AfterFunc(timeout, func() {
		// Races with Resolve/Reject; remove-if-present decides the winner.
		if q := t.take(id); q != nil {
			q.ch <- Outcome{Err: errors.New(errors.RequestTimeout, "request "+id+" timed out after "+timeout.String())}
		}
	})
	t.inline[id] = p
	return id, p.ch
}

// Resolve completes the pending completion for id with a result. A late or
// duplicate resolve for an id no longer present is a no-op; it must never
// resurrect a stale slot or complete a reused one.
func (t *Table) Resolve(id string, result []byte) {
	if p := t.take(id); p != nil {
		p.ch <- Outcome{Result: result}
	}
}

// Reject completes the pending completion for id with an error. Absent ids
// are a no-op, same as Resolve.
func (t *Table) Reject(id string, err error) {
	if p := t.take(id); p != nil {
		p.ch <- Outcome{Err: err}
	}
}

// FailAll rejects every outstanding completion and marks the table closed.
// Subsequent Begin calls fail immediately; late responses become no-ops.
func (t *Table) FailAll(err error) {
	t.mu.Lock()
	evicted := t.inline
	t.inline = make(map[string]*pending)
	t.closed = true
	t.mu.Unlock()

	for _, p := range evicted {
		if p.timer != nil {
			p.timer.Stop()
		}
		p.ch <- Outcome{Err: err}
	}
}

// Outstanding returns the number of in-flight completions.
func (t *Table) Outstanding() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inline)
}

// take removes and returns the pending completion for id, or nil if absent.
// Remove-if-present is the atomic unit all three completion paths share;
// whichever caller gets the entry owns delivery of the outcome.
func (t *Table) take(id string) *pending {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.inline[id]
	if !ok {
		return nil
	}
	delete(t.inline, id)
	if p.timer != nil {
		p.timer.Stop()
	}
	return p
}
