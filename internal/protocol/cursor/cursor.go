// Package cursor provides the three stream roles used by the codec: a write
// cursor over a pre-sized buffer, a read cursor, and a length counter with no
// backing memory. Write and length share the Sink interface so one encode
// routine drives both.
package cursor

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/danmuck/edgewire/internal/protocol"
)

// Order is the wire byte order.
var Order = binary.LittleEndian

// Sink receives encoded bytes.
type Sink interface {
	// Reserve advances the sink by n bytes and returns the region to fill.
	// Counting sinks return a nil region.
	Reserve(n int) ([]byte, error)
}

// Writer tracks a write position into a caller-owned buffer.
type Writer struct {
	buf []byte
	pos int
}

func NewWriter(buf []byte) *Writer {
	return &Writer{buf: buf}
}

func (w *Writer) Reserve(n int) ([]byte, error) {
	if n < 0 || n > len(w.buf)-w.pos {
		return nil, fmt.Errorf("%w: write %d bytes at offset %d of %d", protocol.ErrBufferOverrun, n, w.pos, len(w.buf))
	}
	b := w.buf[w.pos : w.pos+n : w.pos+n]
	w.pos += n
	return b, nil
}

// Len is the number of bytes written so far.
func (w *Writer) Len() int { return w.pos }

// Remaining is the unwritten capacity.
func (w *Writer) Remaining() int { return len(w.buf) - w.pos }

// Bytes returns the written prefix of the buffer.
func (w *Writer) Bytes() []byte { return w.buf[:w.pos] }

// Reader tracks a read position into a buffer.
type Reader struct {
	buf []byte
	pos int
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Next returns the next n bytes and advances past them. The returned slice
// aliases the underlying buffer.
func (r *Reader) Next(n int) ([]byte, error) {
	if n < 0 || n > len(r.buf)-r.pos {
		return nil, fmt.Errorf("%w: read %d bytes at offset %d of %d", protocol.ErrBufferOverrun, n, r.pos, len(r.buf))
	}
	b := r.buf[r.pos : r.pos+n : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *Reader) Offset() int { return r.pos }

func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

// Counter measures encoded length without touching memory.
type Counter struct {
	n uint64
}

// Reserve counts n bytes and returns a nil region.
func (c *Counter) Reserve(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative reservation %d", protocol.ErrInvalidLength, n)
	}
	c.n += uint64(n)
	return nil, nil
}

// Add counts a precomputed length.
func (c *Counter) Add(n int) {
	if n > 0 {
		c.n += uint64(n)
	}
}

// Len returns the running total.
func (c *Counter) Len() int {
	if c.n > math.MaxInt {
		return math.MaxInt
	}
	return int(c.n)
}

// Total returns the running total without clamping.
func (c *Counter) Total() uint64 { return c.n }
