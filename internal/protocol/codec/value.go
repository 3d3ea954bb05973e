package codec

import (
	"fmt"
	"math"
	"time"

	"github.com/danmuck/edgewire/internal/protocol"
)

// Value holds one decoded field.
//
// Scalars use the matching Go type (bool, int8 ... float64), Text is a
// string, Timestamp and Duration use the types below. Sequences and arrays of
// non-boolean scalars are typed slices ([]float32, []uint16, ...); every other
// sequence or array, and every composite, is a []Value in declared order.
type Value = any

const nsecPerSec = 1_000_000_000

// Timestamp is wall time as two unsigned 32-bit words. The codec does not
// normalize Nsec.
type Timestamp struct {
	Sec  uint32
	Nsec uint32
}

// TimestampFromTime converts t. Times outside the unsigned 32-bit second
// range are rejected.
func TimestampFromTime(t time.Time) (Timestamp, error) {
	sec := t.Unix()
	if sec < 0 || sec > math.MaxUint32 {
		return Timestamp{}, fmt.Errorf("codec: time %s out of dual 32-bit range", t.UTC().Format(time.RFC3339))
	}
	return Timestamp{Sec: uint32(sec), Nsec: uint32(t.Nanosecond())}, nil
}

// TimestampFromSeconds converts fractional seconds, carrying a rounded
// nanosecond overflow into Sec.
func TimestampFromSeconds(s float64) (Timestamp, error) {
	whole := math.Floor(s)
	if whole < 0 || whole > math.MaxUint32 {
		return Timestamp{}, fmt.Errorf("codec: %v seconds out of dual 32-bit range", s)
	}
	sec := uint64(whole)
	nsec := uint64(math.Round((s - whole) * nsecPerSec))
	sec += nsec / nsecPerSec
	nsec %= nsecPerSec
	if sec > math.MaxUint32 {
		return Timestamp{}, fmt.Errorf("codec: %v seconds out of dual 32-bit range", s)
	}
	return Timestamp{Sec: uint32(sec), Nsec: uint32(nsec)}, nil
}

func (ts Timestamp) Time() time.Time {
	return time.Unix(int64(ts.Sec), int64(ts.Nsec))
}

func (ts Timestamp) Seconds() float64 {
	return float64(ts.Sec) + float64(ts.Nsec)/nsecPerSec
}

func (ts Timestamp) IsZero() bool { return ts.Sec == 0 && ts.Nsec == 0 }

// Duration is an elapsed span with the same wire shape as Timestamp.
type Duration struct {
	Sec  uint32
	Nsec uint32
}

// DurationFrom converts d; negative or oversize spans are rejected.
func DurationFrom(d time.Duration) (Duration, error) {
	if d < 0 {
		return Duration{}, fmt.Errorf("codec: negative duration %s", d)
	}
	sec := int64(d / time.Second)
	if sec > math.MaxUint32 {
		return Duration{}, fmt.Errorf("codec: duration %s out of 32-bit range", d)
	}
	return Duration{Sec: uint32(sec), Nsec: uint32(d % time.Second)}, nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d.Sec)*time.Second + time.Duration(d.Nsec)
}

// As asserts v to T, reporting ErrValueType on mismatch.
func As[T any](v Value) (T, error) {
	out, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: want %T, got %T", protocol.ErrValueType, zero, v)
	}
	return out, nil
}

// Fields unpacks a composite value with exactly n members.
func Fields(v Value, n int) ([]Value, error) {
	fs, ok := v.([]Value)
	if !ok {
		return nil, fmt.Errorf("%w: want composite, got %T", protocol.ErrValueType, v)
	}
	if len(fs) != n {
		return nil, fmt.Errorf("%w: composite has %d fields, want %d", protocol.ErrValueType, len(fs), n)
	}
	return fs, nil
}

// Zero returns the value a freshly decoded empty instance of t would hold.
func Zero(t *Type) Value {
	switch t.Kind {
	case KindBool:
		return false
	case KindInt8:
		return int8(0)
	case KindUint8:
		return uint8(0)
	case KindInt16:
		return int16(0)
	case KindUint16:
		return uint16(0)
	case KindInt32:
		return int32(0)
	case KindUint32:
		return uint32(0)
	case KindInt64:
		return int64(0)
	case KindUint64:
		return uint64(0)
	case KindFloat32:
		return float32(0)
	case KindFloat64:
		return float64(0)
	case KindText:
		return ""
	case KindTimestamp:
		return Timestamp{}
	case KindDuration:
		return Duration{}
	case KindSequence:
		if BulkEligible(t.Elem) {
			return makeBulk(t.Elem.Kind, 0)
		}
		return []Value{}
	case KindArray:
		if BulkEligible(t.Elem) {
			return makeBulk(t.Elem.Kind, t.Len)
		}
		out := make([]Value, t.Len)
		for i := range out {
			out[i] = Zero(t.Elem)
		}
		return out
	case KindComposite:
		out := make([]Value, len(t.Fields))
		for i, f := range t.Fields {
			out[i] = Zero(f.Type)
		}
		return out
	default:
		return nil
	}
}
