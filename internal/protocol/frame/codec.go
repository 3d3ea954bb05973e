package frame

import (
	"fmt"
	"math"
	"slices"

	"github.com/danmuck/edgewire/internal/protocol"
	"github.com/danmuck/edgewire/internal/protocol/codec"
	"github.com/danmuck/edgewire/internal/protocol/crc"
	"github.com/danmuck/edgewire/internal/protocol/cursor"
)

// Encode frames m into a new buffer.
func Encode(m Message) ([]byte, error) {
	return Append(nil, m)
}

// Append frames m onto dst, so several frames can be batched into one
// write. On error dst is returned unchanged.
func Append(dst []byte, m Message) ([]byte, error) {
	t, v := m.WireType(), m.WireValue()
	n, err := codec.Length(t, v)
	if err != nil {
		return dst, fmt.Errorf("frame %s: %w", m.Tag(), err)
	}
	if uint64(n) > math.MaxUint32 {
		return dst, fmt.Errorf("frame %s: %w: %d bytes", m.Tag(), protocol.ErrPayloadTooLarge, n)
	}

	start := len(dst)
	out := slices.Grow(dst, HeaderSize+n)[:start+HeaderSize+n]
	payload := out[start+HeaderSize:]
	w := cursor.NewWriter(payload)
	if err := codec.Write(w, t, v); err != nil {
		return dst, fmt.Errorf("frame %s: %w", m.Tag(), err)
	}
	if w.Remaining() != 0 {
		return dst, fmt.Errorf("frame %s: %w: measured %d, wrote %d", m.Tag(), protocol.ErrBufferOverrun, n, w.Len())
	}

	h := Header{Tag: m.Tag(), Length: uint32(n), Checksum: crc.Checksum(payload)}
	if err := PutHeader(cursor.NewWriter(out[start:start+HeaderSize]), h); err != nil {
		return dst, err
	}
	return out, nil
}

// Unwrap validates the frame at the start of b against expected and returns
// its header and payload. Checks run in order: tag, header length, payload
// length, checksum. Bytes after the frame are ignored.
func Unwrap(b []byte, expected Tag) (Header, []byte, error) {
	tag, ok := PeekTag(b)
	if !ok {
		return Header{}, nil, fmt.Errorf("%w: %d bytes, no tag", protocol.ErrTruncated, len(b))
	}
	if tag != expected {
		return Header{}, nil, fmt.Errorf("%w: got %s, want %s", protocol.ErrTagMismatch, tag, expected)
	}
	h, err := DecodeHeader(b)
	if err != nil {
		return Header{}, nil, err
	}
	if uint64(len(b)) < h.Size() {
		return Header{}, nil, fmt.Errorf("%w: frame %s declares %d payload bytes, have %d",
			protocol.ErrTruncated, tag, h.Length, len(b)-HeaderSize)
	}
	payload := b[HeaderSize:h.Size()]
	if sum := crc.Checksum(payload); sum != h.Checksum {
		return Header{}, nil, fmt.Errorf("%w: frame %s declared %#04x, computed %#04x",
			protocol.ErrChecksumMismatch, tag, h.Checksum, sum)
	}
	return h, payload, nil
}

// DecodeValue unwraps the frame in b and decodes its payload as t.
func DecodeValue(b []byte, expected Tag, t *codec.Type) (codec.Value, error) {
	_, payload, err := Unwrap(b, expected)
	if err != nil {
		return nil, err
	}
	v, err := codec.Decode(payload, t)
	if err != nil {
		return nil, fmt.Errorf("frame %s: %w", expected, err)
	}
	return v, nil
}

// Decode unwraps the frame in b against m's tag and populates m. m is only
// modified when every check and the payload decode succeed.
func Decode(b []byte, m Unmarshaler) error {
	v, err := DecodeValue(b, m.Tag(), m.WireType())
	if err != nil {
		return err
	}
	if err := m.SetWireValue(v); err != nil {
		return fmt.Errorf("frame %s: %w", m.Tag(), err)
	}
	return nil
}

// DecodePayload decodes an already validated payload, as handed out by the
// stream framer.
func DecodePayload(payload []byte, m Unmarshaler) error {
	v, err := codec.Decode(payload, m.WireType())
	if err != nil {
		return fmt.Errorf("frame %s: %w", m.Tag(), err)
	}
	if err := m.SetWireValue(v); err != nil {
		return fmt.Errorf("frame %s: %w", m.Tag(), err)
	}
	return nil
}
