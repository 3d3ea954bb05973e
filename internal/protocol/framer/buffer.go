package framer

import (
	"bufio"
	"fmt"
	"io"

	"github.com/danmuck/edgewire/internal/protocol"
	"github.com/danmuck/edgewire/internal/protocol/frame"
)

// Buffer accumulates transport bytes and hands out frames one at a time,
// discarding consumed bytes itself. A Buffer must not be used from more
// than one goroutine at a time.
type Buffer struct {
	parser Parser
	buf    []byte
	off    int
}

func NewBuffer(limits frame.Limits) *Buffer {
	return &Buffer{parser: NewParser(limits)}
}

// Write appends transport bytes. It never fails. Payloads returned by Next
// before this call are invalidated.
func (b *Buffer) Write(p []byte) (int, error) {
	if b.off > 0 {
		if b.off == len(b.buf) {
			b.buf = b.buf[:0]
		} else {
			b.buf = b.buf[:copy(b.buf, b.buf[b.off:])]
		}
		b.off = 0
	}
	b.buf = append(b.buf, p...)
	return len(p), nil
}

// Fill performs one Read from r into chunk and buffers what arrived.
func (b *Buffer) Fill(r io.Reader, chunk []byte) (int, error) {
	n, err := r.Read(chunk)
	if n > 0 {
		_, _ = b.Write(chunk[:n])
	}
	return n, err
}

// Len is the number of buffered, unconsumed bytes.
func (b *Buffer) Len() int { return len(b.buf) - b.off }

// Next returns the next Failed or Succeeded result and discards its bytes.
// ok is false when the buffer holds only an incomplete frame.
func (b *Buffer) Next() (res Result, ok bool) {
	res = b.parser.Feed(b.buf[b.off:])
	if res.Status == Incomplete {
		return res, false
	}
	b.off += res.Consumed
	return res, true
}

// Reset drops everything buffered.
func (b *Buffer) Reset() {
	b.buf = b.buf[:0]
	b.off = 0
}

// Split is a bufio.SplitFunc yielding whole frames (header and payload).
// Failed frames are skipped after being passed to onDrop, which may be nil.
// Leftover bytes at EOF are reported as ErrTruncated.
func Split(limits frame.Limits, onDrop func(Result)) bufio.SplitFunc {
	p := NewParser(limits)
	return func(data []byte, atEOF bool) (int, []byte, error) {
		res := p.Feed(data)
		switch res.Status {
		case Succeeded:
			return res.Consumed, data[:res.Consumed], nil
		case Failed:
			if onDrop != nil {
				onDrop(res)
			}
			return res.Consumed, nil, nil
		}
		if atEOF && len(data) > 0 {
			return 0, nil, fmt.Errorf("%w: %d bytes left at end of stream", protocol.ErrTruncated, len(data))
		}
		return 0, nil, nil
	}
}

// NewScanner returns a bufio.Scanner over r that yields whole frames and can
// hold the largest frame limits allow.
func NewScanner(r io.Reader, limits frame.Limits, onDrop func(Result)) *bufio.Scanner {
	s := bufio.NewScanner(r)
	payload := limits.MaxPayloadBytes
	if payload == 0 {
		payload = frame.DefaultLimits().MaxPayloadBytes
	}
	s.Buffer(make([]byte, 0, 4096), frame.HeaderSize+int(payload))
	s.Split(Split(limits, onDrop))
	return s
}
