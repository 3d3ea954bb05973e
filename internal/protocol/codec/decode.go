package codec

import (
	"fmt"

	"github.com/danmuck/edgewire/internal/protocol"
	"github.com/danmuck/edgewire/internal/protocol/cursor"
)

// preallocCap bounds the up-front slice allocation for lists whose elements
// may encode to zero bytes.
const preallocCap = 1024

// MaxZeroWidthCount caps the declared count of a sequence whose elements
// encode to zero bytes. Such a count costs no payload bytes, so it is the
// only bound on the memory a decode can be made to allocate.
const MaxZeroWidthCount = 1 << 16

// Read decodes one value of type t from r.
func Read(r *cursor.Reader, t *Type) (Value, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil type", ErrInvalidType)
	}
	switch t.Kind {
	case KindBool:
		b, err := r.Uint8()
		return b != 0, err
	case KindInt8:
		b, err := r.Uint8()
		return int8(b), err
	case KindUint8:
		return r.Uint8()
	case KindInt16:
		x, err := r.Uint16()
		return int16(x), err
	case KindUint16:
		return r.Uint16()
	case KindInt32:
		x, err := r.Uint32()
		return int32(x), err
	case KindUint32:
		return r.Uint32()
	case KindInt64:
		x, err := r.Uint64()
		return int64(x), err
	case KindUint64:
		return r.Uint64()
	case KindFloat32:
		return r.Float32()
	case KindFloat64:
		return r.Float64()
	case KindText:
		n, err := r.Uint32()
		if err != nil {
			return nil, err
		}
		b, err := r.Next(int(n))
		if err != nil {
			return nil, err
		}
		return string(b), nil
	case KindTimestamp:
		sec, nsec, err := readPair(r)
		return Timestamp{Sec: sec, Nsec: nsec}, err
	case KindDuration:
		sec, nsec, err := readPair(r)
		return Duration{Sec: sec, Nsec: nsec}, err
	case KindSequence:
		n, err := r.Uint32()
		if err != nil {
			return nil, err
		}
		if t.Elem != nil && minSize(t.Elem) == 0 && n > MaxZeroWidthCount {
			return nil, fmt.Errorf("%w: %d zero-width %s elements exceeds %d",
				protocol.ErrInvalidLength, n, t.Elem, MaxZeroWidthCount)
		}
		return readElems(r, t.Elem, int(n))
	case KindArray:
		return readElems(r, t.Elem, t.Len)
	case KindComposite:
		out := make([]Value, len(t.Fields))
		for i, f := range t.Fields {
			v, err := Read(r, f.Type)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", f.Name, err)
			}
			out[i] = v
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: kind %s", ErrInvalidType, t.Kind)
	}
}

// Decode reads exactly one value of t from b. Bytes left over after the
// value are reported as ErrTrailingBytes.
func Decode(b []byte, t *Type) (Value, error) {
	r := cursor.NewReader(b)
	v, err := Read(r, t)
	if err != nil {
		return nil, err
	}
	if r.Remaining() != 0 {
		return nil, fmt.Errorf("%w: %d bytes after %s", protocol.ErrTrailingBytes, r.Remaining(), t)
	}
	return v, nil
}

func readPair(r *cursor.Reader) (uint32, uint32, error) {
	a, err := r.Uint32()
	if err != nil {
		return 0, 0, err
	}
	b, err := r.Uint32()
	return a, b, err
}

func readElems(r *cursor.Reader, elem *Type, n int) (Value, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: %d elements", protocol.ErrBufferOverrun, n)
	}
	if elem == nil {
		return nil, fmt.Errorf("%w: nil element type", ErrInvalidType)
	}
	if BulkEligible(elem) {
		return readBulk(r, elem.Kind, n)
	}
	// a declared count the remaining bytes cannot hold fails before allocating
	least := minSize(elem)
	if least > 0 && uint64(n)*uint64(least) > uint64(r.Remaining()) {
		return nil, fmt.Errorf("%w: %d x %s needs at least %d bytes, %d remain",
			protocol.ErrBufferOverrun, n, elem, uint64(n)*uint64(least), r.Remaining())
	}
	capHint := n
	if least == 0 && capHint > preallocCap {
		capHint = preallocCap
	}
	out := make([]Value, 0, capHint)
	for i := 0; i < n; i++ {
		v, err := Read(r, elem)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}
