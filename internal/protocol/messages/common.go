package messages

import (
	"github.com/danmuck/edgewire/internal/protocol/codec"
)

// Header is the sequence/stamp/frame prefix shared by stamped records.
type Header struct {
	Seq     uint32
	Stamp   codec.Timestamp
	FrameID string
}

var HeaderType = codec.CompositeOf(
	codec.Named("seq", codec.Uint32Type),
	codec.Named("stamp", codec.TimestampType),
	codec.Named("frame_id", codec.TextType),
)

func (h Header) WireValue() codec.Value {
	return []codec.Value{h.Seq, h.Stamp, h.FrameID}
}

func HeaderFromWire(v codec.Value) (Header, error) {
	u := unpack("header", v, 3)
	h := Header{
		Seq:     next[uint32](u),
		Stamp:   next[codec.Timestamp](u),
		FrameID: next[string](u),
	}
	return h, u.err
}

type Vector3 struct {
	X, Y, Z float64
}

var Vector3Type = codec.CompositeOf(
	codec.Named("x", codec.Float64Type),
	codec.Named("y", codec.Float64Type),
	codec.Named("z", codec.Float64Type),
)

func (v Vector3) WireValue() codec.Value {
	return []codec.Value{v.X, v.Y, v.Z}
}

func Vector3FromWire(v codec.Value) (Vector3, error) {
	u := unpack("vector3", v, 3)
	out := Vector3{
		X: next[float64](u),
		Y: next[float64](u),
		Z: next[float64](u),
	}
	return out, u.err
}
