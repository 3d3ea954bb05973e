package messages

import (
	"github.com/rs/zerolog"

	"github.com/danmuck/edgewire/internal/protocol/codec"
	"github.com/danmuck/edgewire/internal/protocol/frame"
)

var OdomTag = frame.TagOf("AB")

var OdomType = codec.CompositeOf(
	codec.Named("stamp", codec.TimestampType),
	codec.Named("twist_linear_x", codec.Float32Type),
	codec.Named("twist_linear_y", codec.Float32Type),
	codec.Named("twist_angular", codec.Float32Type),
)

// Odom is the base velocity estimate.
type Odom struct {
	Stamp   codec.Timestamp
	LinearX float32
	LinearY float32
	Angular float32
}

func (*Odom) Tag() frame.Tag        { return OdomTag }
func (*Odom) WireType() *codec.Type { return OdomType }

func (m *Odom) WireValue() codec.Value {
	return []codec.Value{m.Stamp, m.LinearX, m.LinearY, m.Angular}
}

func (m *Odom) SetWireValue(v codec.Value) error {
	u := unpack("odom", v, 4)
	out := Odom{
		Stamp:   next[codec.Timestamp](u),
		LinearX: next[float32](u),
		LinearY: next[float32](u),
		Angular: next[float32](u),
	}
	if u.err != nil {
		return u.err
	}
	*m = out
	return nil
}

func (m *Odom) MarshalZerologObject(e *zerolog.Event) {
	e.Time("stamp", m.Stamp.Time()).
		Float32("linear_x", m.LinearX).
		Float32("linear_y", m.LinearY).
		Float32("angular", m.Angular)
}
