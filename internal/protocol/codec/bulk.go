package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/danmuck/edgewire/internal/protocol"
	"github.com/danmuck/edgewire/internal/protocol/cursor"
)

// bulkKind maps a typed numeric slice to its element kind.
func bulkKind(v Value) (Kind, int, bool) {
	switch x := v.(type) {
	case []int8:
		return KindInt8, len(x), true
	case []uint8:
		return KindUint8, len(x), true
	case []int16:
		return KindInt16, len(x), true
	case []uint16:
		return KindUint16, len(x), true
	case []int32:
		return KindInt32, len(x), true
	case []uint32:
		return KindUint32, len(x), true
	case []int64:
		return KindInt64, len(x), true
	case []uint64:
		return KindUint64, len(x), true
	case []float32:
		return KindFloat32, len(x), true
	case []float64:
		return KindFloat64, len(x), true
	default:
		return KindInvalid, 0, false
	}
}

func makeBulk(k Kind, n int) Value {
	switch k {
	case KindInt8:
		return make([]int8, n)
	case KindUint8:
		return make([]uint8, n)
	case KindInt16:
		return make([]int16, n)
	case KindUint16:
		return make([]uint16, n)
	case KindInt32:
		return make([]int32, n)
	case KindUint32:
		return make([]uint32, n)
	case KindInt64:
		return make([]int64, n)
	case KindUint64:
		return make([]uint64, n)
	case KindFloat32:
		return make([]float32, n)
	case KindFloat64:
		return make([]float64, n)
	default:
		return nil
	}
}

// putBulk writes a typed slice as one block. A counting sink only sees the
// reservation.
func putBulk(s cursor.Sink, elem Kind, v Value, n int) error {
	b, err := s.Reserve(n * elem.Width())
	if err != nil || b == nil || n == 0 {
		return err
	}
	if _, err := binary.Encode(b, cursor.Order, v); err != nil {
		return fmt.Errorf("%w: bulk %s: %v", protocol.ErrBufferOverrun, elem, err)
	}
	return nil
}

func readBulk(r *cursor.Reader, elem Kind, n int) (Value, error) {
	b, err := r.Next(n * elem.Width())
	if err != nil {
		return nil, err
	}
	out := makeBulk(elem, n)
	if n == 0 {
		return out, nil
	}
	if _, err := binary.Decode(b, cursor.Order, out); err != nil {
		return nil, fmt.Errorf("%w: bulk %s: %v", protocol.ErrBufferOverrun, elem, err)
	}
	return out, nil
}
