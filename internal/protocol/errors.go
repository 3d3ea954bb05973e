package protocol

import "errors"

var (
	// ErrBufferOverrun means a cursor was advanced past its capacity. On the
	// write side this is a length/write symmetry defect, not an input error.
	ErrBufferOverrun    = errors.New("protocol: buffer overrun")
	ErrTagMismatch      = errors.New("protocol: tag mismatch")
	ErrTruncated        = errors.New("protocol: truncated data")
	ErrChecksumMismatch = errors.New("protocol: checksum mismatch")
	ErrPayloadTooLarge  = errors.New("protocol: payload too large")
	ErrInvalidLength    = errors.New("protocol: invalid length")
	ErrValueType        = errors.New("protocol: value does not match field type")
	ErrTrailingBytes    = errors.New("protocol: trailing bytes after message")
)
