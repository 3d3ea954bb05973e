package cursor

import (
	"bytes"
	"errors"
	"testing"

	"github.com/danmuck/edgewire/internal/protocol"
	"github.com/danmuck/edgewire/internal/testutil/testlog"
)

func TestWriterReaderSymmetry(t *testing.T) {
	testlog.Start(t)
	buf := make([]byte, 1+2+4+8+4+8+3)
	w := NewWriter(buf)
	steps := []error{
		PutUint8(w, 0xAB),
		PutUint16(w, 0x1234),
		PutUint32(w, 0xDEADBEEF),
		PutUint64(w, 0x0102030405060708),
		PutFloat32(w, -2.345),
		PutFloat64(w, 3.14),
		PutBytes(w, []byte("xyz")),
	}
	for i, err := range steps {
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if w.Remaining() != 0 || w.Len() != len(buf) {
		t.Fatalf("writer not full: len=%d remaining=%d", w.Len(), w.Remaining())
	}
	if !bytes.Equal(buf[1:3], []byte{0x34, 0x12}) {
		t.Fatalf("uint16 not little-endian: % x", buf[1:3])
	}

	r := NewReader(buf)
	if v, _ := r.Uint8(); v != 0xAB {
		t.Fatalf("uint8 got=%#x", v)
	}
	if v, _ := r.Uint16(); v != 0x1234 {
		t.Fatalf("uint16 got=%#x", v)
	}
	if v, _ := r.Uint32(); v != 0xDEADBEEF {
		t.Fatalf("uint32 got=%#x", v)
	}
	if v, _ := r.Uint64(); v != 0x0102030405060708 {
		t.Fatalf("uint64 got=%#x", v)
	}
	if v, _ := r.Float32(); v != float32(-2.345) {
		t.Fatalf("float32 got=%v", v)
	}
	if v, _ := r.Float64(); v != 3.14 {
		t.Fatalf("float64 got=%v", v)
	}
	tail, err := r.Next(3)
	if err != nil || string(tail) != "xyz" {
		t.Fatalf("tail got=%q err=%v", tail, err)
	}
	if r.Remaining() != 0 || r.Offset() != len(buf) {
		t.Fatalf("reader not drained: offset=%d", r.Offset())
	}
}

func TestWriterOverrun(t *testing.T) {
	testlog.Start(t)
	w := NewWriter(make([]byte, 3))
	if err := PutUint32(w, 1); !errors.Is(err, protocol.ErrBufferOverrun) {
		t.Fatalf("expected ErrBufferOverrun, got %v", err)
	}
	if w.Len() != 0 {
		t.Fatalf("failed reserve moved position to %d", w.Len())
	}
}

func TestReaderOverrun(t *testing.T) {
	testlog.Start(t)
	r := NewReader([]byte{1, 2})
	if _, err := r.Uint32(); !errors.Is(err, protocol.ErrBufferOverrun) {
		t.Fatalf("expected ErrBufferOverrun, got %v", err)
	}
	if _, err := r.Next(-1); !errors.Is(err, protocol.ErrBufferOverrun) {
		t.Fatalf("expected ErrBufferOverrun for negative read, got %v", err)
	}
}

func TestCounterMatchesWriter(t *testing.T) {
	testlog.Start(t)
	var c Counter
	for _, err := range []error{
		PutUint8(&c, 1),
		PutUint16(&c, 2),
		PutFloat64(&c, 3),
		PutBytes(&c, []byte("hello")),
	} {
		if err != nil {
			t.Fatalf("counter: %v", err)
		}
	}
	c.Add(4)
	if c.Len() != 1+2+8+5+4 {
		t.Fatalf("counter len=%d", c.Len())
	}
	if _, err := c.Reserve(-1); !errors.Is(err, protocol.ErrInvalidLength) {
		t.Fatalf("expected ErrInvalidLength, got %v", err)
	}
}
