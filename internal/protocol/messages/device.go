package messages

import (
	"github.com/rs/zerolog"

	"github.com/danmuck/edgewire/internal/protocol/codec"
	"github.com/danmuck/edgewire/internal/protocol/frame"
)

var DeviceStateTag = frame.TagOf("DS")

// DriveSide is one motor controller's raw telemetry in controller units.
type DriveSide struct {
	Voltage     uint16
	Current     uint16
	Temperature uint16
	Code        uint16
}

var DeviceStateType = codec.CompositeOf(
	codec.Named("left_voltage", codec.Uint16Type),
	codec.Named("left_current", codec.Uint16Type),
	codec.Named("left_temperature", codec.Uint16Type),
	codec.Named("left_code", codec.Uint16Type),
	codec.Named("right_voltage", codec.Uint16Type),
	codec.Named("right_current", codec.Uint16Type),
	codec.Named("right_temperature", codec.Uint16Type),
	codec.Named("right_code", codec.Uint16Type),
)

type DeviceState struct {
	Left  DriveSide
	Right DriveSide
}

func (*DeviceState) Tag() frame.Tag        { return DeviceStateTag }
func (*DeviceState) WireType() *codec.Type { return DeviceStateType }

func (m *DeviceState) WireValue() codec.Value {
	return []codec.Value{
		m.Left.Voltage, m.Left.Current, m.Left.Temperature, m.Left.Code,
		m.Right.Voltage, m.Right.Current, m.Right.Temperature, m.Right.Code,
	}
}

func (m *DeviceState) SetWireValue(v codec.Value) error {
	u := unpack("device_state", v, 8)
	side := func() DriveSide {
		return DriveSide{
			Voltage:     next[uint16](u),
			Current:     next[uint16](u),
			Temperature: next[uint16](u),
			Code:        next[uint16](u),
		}
	}
	out := DeviceState{}
	out.Left = side()
	out.Right = side()
	if u.err != nil {
		return u.err
	}
	*m = out
	return nil
}

func (m *DeviceState) MarshalZerologObject(e *zerolog.Event) {
	e.Dict("left", zerolog.Dict().
		Uint16("voltage", m.Left.Voltage).
		Uint16("current", m.Left.Current).
		Uint16("temperature", m.Left.Temperature).
		Uint16("code", m.Left.Code))
	e.Dict("right", zerolog.Dict().
		Uint16("voltage", m.Right.Voltage).
		Uint16("current", m.Right.Current).
		Uint16("temperature", m.Right.Temperature).
		Uint16("code", m.Right.Code))
}
