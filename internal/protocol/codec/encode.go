package codec

import (
	"fmt"
	"math"

	"github.com/danmuck/edgewire/internal/protocol"
	"github.com/danmuck/edgewire/internal/protocol/cursor"
)

// Write encodes v as t into s. With a *cursor.Writer this produces bytes;
// with a *cursor.Counter it only measures.
func Write(s cursor.Sink, t *Type, v Value) error {
	if t == nil {
		return fmt.Errorf("%w: nil type", ErrInvalidType)
	}
	switch t.Kind {
	case KindBool:
		x, ok := v.(bool)
		if !ok {
			return mismatch(t, v)
		}
		var b uint8
		if x {
			b = 1
		}
		return cursor.PutUint8(s, b)
	case KindInt8:
		x, ok := v.(int8)
		if !ok {
			return mismatch(t, v)
		}
		return cursor.PutUint8(s, uint8(x))
	case KindUint8:
		x, ok := v.(uint8)
		if !ok {
			return mismatch(t, v)
		}
		return cursor.PutUint8(s, x)
	case KindInt16:
		x, ok := v.(int16)
		if !ok {
			return mismatch(t, v)
		}
		return cursor.PutUint16(s, uint16(x))
	case KindUint16:
		x, ok := v.(uint16)
		if !ok {
			return mismatch(t, v)
		}
		return cursor.PutUint16(s, x)
	case KindInt32:
		x, ok := v.(int32)
		if !ok {
			return mismatch(t, v)
		}
		return cursor.PutUint32(s, uint32(x))
	case KindUint32:
		x, ok := v.(uint32)
		if !ok {
			return mismatch(t, v)
		}
		return cursor.PutUint32(s, x)
	case KindInt64:
		x, ok := v.(int64)
		if !ok {
			return mismatch(t, v)
		}
		return cursor.PutUint64(s, uint64(x))
	case KindUint64:
		x, ok := v.(uint64)
		if !ok {
			return mismatch(t, v)
		}
		return cursor.PutUint64(s, x)
	case KindFloat32:
		x, ok := v.(float32)
		if !ok {
			return mismatch(t, v)
		}
		return cursor.PutFloat32(s, x)
	case KindFloat64:
		x, ok := v.(float64)
		if !ok {
			return mismatch(t, v)
		}
		return cursor.PutFloat64(s, x)
	case KindText:
		x, ok := v.(string)
		if !ok {
			return mismatch(t, v)
		}
		if err := putCount(s, len(x)); err != nil {
			return err
		}
		b, err := s.Reserve(len(x))
		if err == nil && b != nil {
			copy(b, x)
		}
		return err
	case KindTimestamp:
		x, ok := v.(Timestamp)
		if !ok {
			return mismatch(t, v)
		}
		return putPair(s, x.Sec, x.Nsec)
	case KindDuration:
		x, ok := v.(Duration)
		if !ok {
			return mismatch(t, v)
		}
		return putPair(s, x.Sec, x.Nsec)
	case KindSequence:
		n, err := listLen(t, v)
		if err != nil {
			return err
		}
		if err := putCount(s, n); err != nil {
			return err
		}
		return writeElems(s, t.Elem, v, n)
	case KindArray:
		n, err := listLen(t, v)
		if err != nil {
			return err
		}
		if n != t.Len {
			return fmt.Errorf("%w: %s holds %d elements", protocol.ErrInvalidLength, t, n)
		}
		return writeElems(s, t.Elem, v, n)
	case KindComposite:
		fs, ok := v.([]Value)
		if !ok {
			return mismatch(t, v)
		}
		if len(fs) != len(t.Fields) {
			return fmt.Errorf("%w: composite has %d fields, want %d", protocol.ErrValueType, len(fs), len(t.Fields))
		}
		for i, f := range t.Fields {
			if err := Write(s, f.Type, fs[i]); err != nil {
				return fmt.Errorf("field %s: %w", f.Name, err)
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: kind %s", ErrInvalidType, t.Kind)
	}
}

// Length is the number of bytes Write produces for v.
func Length(t *Type, v Value) (int, error) {
	var c cursor.Counter
	if err := Write(&c, t, v); err != nil {
		return 0, err
	}
	return c.Len(), nil
}

// Encode allocates exactly Length(t, v) bytes and writes v into them.
func Encode(t *Type, v Value) ([]byte, error) {
	n, err := Length(t, v)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	w := cursor.NewWriter(buf)
	if err := Write(w, t, v); err != nil {
		return nil, err
	}
	if w.Remaining() != 0 {
		return nil, fmt.Errorf("%w: length pass measured %d, write produced %d", protocol.ErrBufferOverrun, n, w.Len())
	}
	return buf, nil
}

func putCount(s cursor.Sink, n int) error {
	if n < 0 || uint64(n) > math.MaxUint32 {
		return fmt.Errorf("%w: %d does not fit a 32-bit prefix", protocol.ErrInvalidLength, n)
	}
	return cursor.PutUint32(s, uint32(n))
}

func putPair(s cursor.Sink, a, b uint32) error {
	if err := cursor.PutUint32(s, a); err != nil {
		return err
	}
	return cursor.PutUint32(s, b)
}

func listLen(t *Type, v Value) (int, error) {
	if t.Elem == nil {
		return 0, fmt.Errorf("%w: %s without element type", ErrInvalidType, t.Kind)
	}
	if k, n, ok := bulkKind(v); ok {
		if k != t.Elem.Kind {
			return 0, mismatch(t, v)
		}
		return n, nil
	}
	xs, ok := v.([]Value)
	if !ok {
		return 0, mismatch(t, v)
	}
	return len(xs), nil
}

// writeElems takes the block path for typed numeric slices and the
// element-wise path for []Value. Both produce the same bytes.
func writeElems(s cursor.Sink, elem *Type, v Value, n int) error {
	if _, _, ok := bulkKind(v); ok {
		return putBulk(s, elem.Kind, v, n)
	}
	xs := v.([]Value)
	for i, x := range xs {
		if err := Write(s, elem, x); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

func mismatch(t *Type, v Value) error {
	return fmt.Errorf("%w: %s got %T", protocol.ErrValueType, t, v)
}
