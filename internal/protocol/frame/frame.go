// Package frame wraps one encoded message in the fixed 8-byte header
//
//	offset 0: tag[2]
//	offset 2: payload length (uint32)
//	offset 6: checksum of payload bytes (uint16)
//	offset 8: payload
//
// and unwraps/validates it on the way back.
package frame

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/danmuck/edgewire/internal/protocol"
	"github.com/danmuck/edgewire/internal/protocol/crc"
	"github.com/danmuck/edgewire/internal/protocol/cursor"
)

const (
	HeaderSize = 8
	TagSize    = 2

	lengthOffset   = 2
	checksumOffset = 6
)

// Tag identifies the message kind carried by a frame.
type Tag [TagSize]byte

// TagOf builds a tag from a two-character string such as "AB".
func TagOf(s string) Tag {
	if len(s) != TagSize {
		panic(fmt.Sprintf("frame: tag %q must be %d bytes", s, TagSize))
	}
	return Tag{s[0], s[1]}
}

func (t Tag) String() string {
	for _, b := range t {
		if b < 0x21 || b > 0x7e {
			return "0x" + hex.EncodeToString(t[:])
		}
	}
	return string(t[:])
}

// Header is the fixed wire header.
type Header struct {
	Tag      Tag
	Length   uint32
	Checksum uint16
}

// Size is the full frame length the header describes.
func (h Header) Size() uint64 { return HeaderSize + uint64(h.Length) }

// Frame is one complete wire message with its raw payload.
type Frame struct {
	Header  Header
	Payload []byte
}

// Limits constrains frame decode/encode memory use.
type Limits struct {
	MaxPayloadBytes uint32
}

func DefaultLimits() Limits {
	return Limits{MaxPayloadBytes: 1 << 20}
}

// PutHeader writes h field by field at the fixed offsets.
func PutHeader(s cursor.Sink, h Header) error {
	if err := cursor.PutBytes(s, h.Tag[:]); err != nil {
		return err
	}
	if err := cursor.PutUint32(s, h.Length); err != nil {
		return err
	}
	return cursor.PutUint16(s, h.Checksum)
}

// ReadHeader reads the next HeaderSize bytes of r as a header.
func ReadHeader(r *cursor.Reader) (Header, error) {
	var h Header
	tag, err := r.Next(TagSize)
	if err != nil {
		return Header{}, err
	}
	copy(h.Tag[:], tag)
	if h.Length, err = r.Uint32(); err != nil {
		return Header{}, err
	}
	if h.Checksum, err = r.Uint16(); err != nil {
		return Header{}, err
	}
	return h, nil
}

func EncodeHeader(h Header) []byte {
	buf := make([]byte, HeaderSize)
	// cannot overrun: buf is exactly HeaderSize
	_ = PutHeader(cursor.NewWriter(buf), h)
	return buf
}

func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("%w: header needs %d bytes, have %d", protocol.ErrTruncated, HeaderSize, len(b))
	}
	return ReadHeader(cursor.NewReader(b[:HeaderSize]))
}

// PeekTag returns the tag of a buffered frame without validating it.
func PeekTag(b []byte) (Tag, bool) {
	if len(b) < TagSize {
		return Tag{}, false
	}
	return Tag{b[0], b[1]}, true
}

// ReadFrame blocks on r until one whole frame has arrived and verifies its
// checksum. It suits transports that deliver a clean frame boundary; use
// framer.Buffer for arbitrary chunking with resynchronization.
func ReadFrame(r io.Reader, limits Limits) (Frame, error) {
	var fixed [HeaderSize]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Frame{}, fmt.Errorf("%w: short header", protocol.ErrTruncated)
		}
		return Frame{}, err
	}
	h, err := DecodeHeader(fixed[:])
	if err != nil {
		return Frame{}, err
	}
	if limits.MaxPayloadBytes > 0 && h.Length > limits.MaxPayloadBytes {
		return Frame{}, fmt.Errorf("%w: declared %d, limit %d", protocol.ErrPayloadTooLarge, h.Length, limits.MaxPayloadBytes)
	}
	payload := make([]byte, h.Length)
	if h.Length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return Frame{}, fmt.Errorf("%w: short payload", protocol.ErrTruncated)
			}
			return Frame{}, err
		}
	}
	if sum := crc.Checksum(payload); sum != h.Checksum {
		return Frame{}, fmt.Errorf("%w: declared %#04x, computed %#04x", protocol.ErrChecksumMismatch, h.Checksum, sum)
	}
	return Frame{Header: h, Payload: payload}, nil
}

// WriteFrame writes tag and payload with a freshly computed header.
func WriteFrame(w io.Writer, tag Tag, payload []byte, limits Limits) error {
	if uint64(len(payload)) > uint64(^uint32(0)) ||
		(limits.MaxPayloadBytes > 0 && uint64(len(payload)) > uint64(limits.MaxPayloadBytes)) {
		return fmt.Errorf("%w: %d bytes", protocol.ErrPayloadTooLarge, len(payload))
	}
	h := Header{Tag: tag, Length: uint32(len(payload)), Checksum: crc.Checksum(payload)}
	if _, err := w.Write(EncodeHeader(h)); err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	_, err := w.Write(payload)
	return err
}
