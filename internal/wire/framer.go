// Copyright (c) 2025 pgbridge
// Licensed under the MIT License. See LICENSE file in the project root for details.

package wire

import "bytes"

// Framer splits an incoming byte stream into newline-terminated messages.
// It retains partial data between calls, so callers may feed chunks of any
// size: a terminator arriving mid-chunk and several complete lines arriving
// in one chunk are both handled. A Framer must not be shared across
// goroutines without external locking; the read loop that owns the stream is
// its only consumer.
type Framer struct {
	buf []byte
}

// Feed appends chunk to the internal buffer and returns every complete line
// now available, terminator stripped. The remainder stays buffered for the
// next call. Returned slices are copies; the caller owns them.
func (f *Framer) Feed(chunk []byte) [][]byte {
	f.buf = append(f.buf, chunk...)

	var lines [][]byte
	for {
		i := bytes.IndexByte(f.buf, '\n')
		if i < 0 {
			break
		}
		line := make([]byte, i)
		copy(line, f.buf[:i])
		f.buf = f.buf[i+1:]
		lines = append(lines, line)
	}
	if len(f.buf) == 0 {
		f.buf = nil
	}
	return lines
}

// Pending returns the number of buffered bytes awaiting a terminator.
func (f *Framer) Pending() int { return len(f.buf) }
