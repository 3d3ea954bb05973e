// Package framer extracts complete, checksum-valid frames from a byte
// buffer that a streaming transport fills in arbitrary chunks.
//
// Feed is stateless: everything it knows comes from the buffer it is handed.
// The caller discards Result.Consumed bytes after each Failed or Succeeded
// result and waits for more transport data after Incomplete.
package framer

import (
	"fmt"

	"github.com/danmuck/edgewire/internal/protocol"
	"github.com/danmuck/edgewire/internal/protocol/crc"
	"github.com/danmuck/edgewire/internal/protocol/frame"
)

type Status int

const (
	// Incomplete means the header or payload has not fully arrived; nothing
	// is consumed.
	Incomplete Status = iota
	// Failed means a frame was delimited but is unusable. The frame is lost.
	Failed
	// Succeeded means Payload holds a checksum-valid frame body.
	Succeeded
)

func (s Status) String() string {
	switch s {
	case Incomplete:
		return "incomplete"
	case Failed:
		return "failed"
	case Succeeded:
		return "succeeded"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result is the outcome of one Feed call.
type Result struct {
	Status   Status
	Consumed int
	Header   frame.Header
	// Payload aliases the fed buffer.
	Payload []byte
	// Err says why a frame Failed.
	Err error
}

// Frame returns the delimited frame bytes (header and payload).
func (r Result) Frame(buf []byte) []byte {
	return buf[:r.Consumed]
}

// Parser is the configured, stateless frame scanner.
type Parser struct {
	Limits frame.Limits
}

func NewParser(limits frame.Limits) Parser {
	return Parser{Limits: limits}
}

// Feed parses with the default limits.
func Feed(buf []byte) Result {
	return NewParser(frame.DefaultLimits()).Feed(buf)
}

// Feed inspects the front of buf for one frame.
//
// A declared length above Limits.MaxPayloadBytes fails immediately and
// consumes only the header, since the frame would never be accepted and
// waiting for it could stall the stream indefinitely.
func (p Parser) Feed(buf []byte) Result {
	if len(buf) < frame.HeaderSize {
		return Result{Status: Incomplete}
	}
	h, err := frame.DecodeHeader(buf)
	if err != nil {
		return Result{Status: Incomplete}
	}
	if limit := p.Limits.MaxPayloadBytes; limit > 0 && h.Length > limit {
		return Result{
			Status:   Failed,
			Consumed: frame.HeaderSize,
			Header:   h,
			Err:      fmt.Errorf("%w: frame %s declares %d bytes, limit %d", protocol.ErrPayloadTooLarge, h.Tag, h.Length, limit),
		}
	}
	if uint64(len(buf)) < h.Size() {
		return Result{Status: Incomplete, Header: h}
	}

	size := int(h.Size())
	payload := buf[frame.HeaderSize:size:size]
	if sum := crc.Checksum(payload); sum != h.Checksum {
		return Result{
			Status:   Failed,
			Consumed: size,
			Header:   h,
			Err:      fmt.Errorf("%w: frame %s declared %#04x, computed %#04x", protocol.ErrChecksumMismatch, h.Tag, h.Checksum, sum),
		}
	}
	return Result{Status: Succeeded, Consumed: size, Header: h, Payload: payload}
}
