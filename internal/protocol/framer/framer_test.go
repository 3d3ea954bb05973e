package framer

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/danmuck/edgewire/internal/protocol"
	"github.com/danmuck/edgewire/internal/protocol/codec"
	"github.com/danmuck/edgewire/internal/protocol/frame"
	"github.com/danmuck/edgewire/internal/testutil/testlog"
)

var stateType = codec.CompositeOf(
	codec.Named("enable_state", codec.Int32Type),
	codec.Named("wheel_error_msg", codec.TextType),
)

func stateFrame(t *testing.T, state int32, msg string) []byte {
	t.Helper()
	b, err := frame.Encode(&frame.Record{
		ID:     frame.TagOf("A3"),
		Schema: stateType,
		Value:  []codec.Value{state, msg},
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return b
}

func TestFeedWholeFrame(t *testing.T) {
	testlog.Start(t)
	b := stateFrame(t, 1, "ok")
	res := Feed(b)
	if res.Status != Succeeded {
		t.Fatalf("status=%s err=%v", res.Status, res.Err)
	}
	if res.Consumed != len(b) {
		t.Fatalf("consumed=%d want=%d", res.Consumed, len(b))
	}
	if !bytes.Equal(res.Frame(b), b) {
		t.Fatalf("frame slice mismatch")
	}
	out := &frame.Record{ID: frame.TagOf("A3"), Schema: stateType}
	if err := frame.DecodePayload(res.Payload, out); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if diff := cmp.Diff([]codec.Value{int32(1), "ok"}, out.Value); diff != "" {
		t.Fatalf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestFeedPartialDelivery(t *testing.T) {
	testlog.Start(t)
	b := stateFrame(t, 2, "left wheel stalled")
	if res := Feed(b[:5]); res.Status != Incomplete || res.Consumed != 0 {
		t.Fatalf("5 bytes: %+v", res)
	}
	if res := Feed(b[:frame.HeaderSize+3]); res.Status != Incomplete || res.Consumed != 0 {
		t.Fatalf("header plus partial payload: %+v", res)
	}
	res := Feed(b)
	if res.Status != Succeeded || res.Consumed != len(b) {
		t.Fatalf("complete: %+v", res)
	}
}

func TestFeedCorruptionConsumesWholeFrame(t *testing.T) {
	testlog.Start(t)
	b := stateFrame(t, 2, "stalled")
	b[frame.HeaderSize+1] ^= 0x01
	res := Feed(b)
	if res.Status != Failed {
		t.Fatalf("status=%s", res.Status)
	}
	if res.Consumed != len(b) {
		t.Fatalf("consumed=%d want=%d", res.Consumed, len(b))
	}
	if !errors.Is(res.Err, protocol.ErrChecksumMismatch) {
		t.Fatalf("expected ErrChecksumMismatch, got %v", res.Err)
	}
}

func TestFeedOversizeFailsFast(t *testing.T) {
	testlog.Start(t)
	h := frame.EncodeHeader(frame.Header{Tag: frame.TagOf("A3"), Length: 1 << 30})
	res := NewParser(frame.Limits{MaxPayloadBytes: 1024}).Feed(h)
	if res.Status != Failed || res.Consumed != frame.HeaderSize {
		t.Fatalf("oversize: %+v", res)
	}
	if !errors.Is(res.Err, protocol.ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", res.Err)
	}
	if res := (Parser{}).Feed(h); res.Status != Incomplete {
		t.Fatalf("unlimited parser should wait, got %s", res.Status)
	}
}

func TestFeedEmptyPayload(t *testing.T) {
	testlog.Start(t)
	b, err := frame.Encode(&frame.Record{ID: frame.TagOf("E0"), Schema: codec.CompositeOf(), Value: []codec.Value{}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	res := Feed(b)
	if res.Status != Succeeded || res.Consumed != frame.HeaderSize || len(res.Payload) != 0 {
		t.Fatalf("empty payload: %+v", res)
	}
}

func TestBufferResynchronizesAcrossChunks(t *testing.T) {
	testlog.Start(t)
	good1 := stateFrame(t, 1, "first")
	bad := stateFrame(t, 2, "corrupted")
	bad[len(bad)-1] ^= 0xFF
	good2 := stateFrame(t, 0, "")
	stream := append(append(append([]byte{}, good1...), bad...), good2...)

	for _, chunk := range []int{1, 3, 7, len(stream)} {
		buf := NewBuffer(frame.DefaultLimits())
		var statuses []Status
		var messages []string
		for off := 0; off < len(stream); off += chunk {
			end := min(off+chunk, len(stream))
			_, _ = buf.Write(stream[off:end])
			for {
				res, ok := buf.Next()
				if !ok {
					break
				}
				statuses = append(statuses, res.Status)
				if res.Status == Succeeded {
					out := &frame.Record{ID: frame.TagOf("A3"), Schema: stateType}
					if err := frame.DecodePayload(res.Payload, out); err != nil {
						t.Fatalf("chunk=%d decode: %v", chunk, err)
					}
					messages = append(messages, out.Value.([]codec.Value)[1].(string))
				}
			}
		}
		if diff := cmp.Diff([]Status{Succeeded, Failed, Succeeded}, statuses); diff != "" {
			t.Fatalf("chunk=%d statuses (-want +got):\n%s", chunk, diff)
		}
		if diff := cmp.Diff([]string{"first", ""}, messages); diff != "" {
			t.Fatalf("chunk=%d messages (-want +got):\n%s", chunk, diff)
		}
		if buf.Len() != 0 {
			t.Fatalf("chunk=%d leftover=%d", chunk, buf.Len())
		}
	}
}

func TestBufferFillAndReset(t *testing.T) {
	testlog.Start(t)
	b := stateFrame(t, 1, "fill")
	buf := NewBuffer(frame.DefaultLimits())
	n, err := buf.Fill(bytes.NewReader(b[:4]), make([]byte, 64))
	if err != nil || n != 4 {
		t.Fatalf("fill: n=%d err=%v", n, err)
	}
	if _, ok := buf.Next(); ok {
		t.Fatalf("expected incomplete after 4 bytes")
	}
	buf.Reset()
	if buf.Len() != 0 {
		t.Fatalf("reset left %d bytes", buf.Len())
	}
}

func TestScannerYieldsFramesAndReportsDrops(t *testing.T) {
	testlog.Start(t)
	good := stateFrame(t, 1, "scan")
	bad := stateFrame(t, 1, "drop")
	bad[frame.HeaderSize] ^= 0x80
	stream := append(append(append([]byte{}, bad...), good...), good...)

	var drops []Result
	s := NewScanner(bytes.NewReader(stream), frame.DefaultLimits(), func(r Result) { drops = append(drops, r) })
	count := 0
	for s.Scan() {
		if !bytes.Equal(s.Bytes(), good) {
			t.Fatalf("token % x", s.Bytes())
		}
		count++
	}
	if err := s.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if count != 2 || len(drops) != 1 || drops[0].Consumed != len(bad) {
		t.Fatalf("count=%d drops=%d", count, len(drops))
	}
}

func TestScannerTruncatedTail(t *testing.T) {
	testlog.Start(t)
	good := stateFrame(t, 1, "tail")
	s := NewScanner(bytes.NewReader(append(bytes.Clone(good), good[:5]...)), frame.DefaultLimits(), nil)
	for s.Scan() {
	}
	if !errors.Is(s.Err(), protocol.ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", s.Err())
	}
}
