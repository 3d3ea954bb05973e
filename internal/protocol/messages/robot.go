package messages

import (
	"github.com/rs/zerolog"

	"github.com/danmuck/edgewire/internal/protocol/codec"
	"github.com/danmuck/edgewire/internal/protocol/frame"
)

var RobotControlTag = frame.Tag{0xBA, 0xE1}

var RobotControlType = codec.CompositeOf(
	codec.Named("enable_wheels", codec.BoolType),
)

// RobotControl asks the base to enable or release the wheel drives.
type RobotControl struct {
	EnableWheels bool
}

func (*RobotControl) Tag() frame.Tag           { return RobotControlTag }
func (*RobotControl) WireType() *codec.Type    { return RobotControlType }
func (m *RobotControl) WireValue() codec.Value { return []codec.Value{m.EnableWheels} }

func (m *RobotControl) SetWireValue(v codec.Value) error {
	u := unpack("robot_control", v, 1)
	out := RobotControl{EnableWheels: next[bool](u)}
	if u.err != nil {
		return u.err
	}
	*m = out
	return nil
}

func (m *RobotControl) MarshalZerologObject(e *zerolog.Event) {
	e.Bool("enable_wheels", m.EnableWheels)
}

var RobotStateTag = frame.Tag{0xAB, 0xD0}

var RobotStateType = codec.CompositeOf(
	codec.Named("wheels_enabled", codec.BoolType),
	codec.Named("battery_percent", codec.Uint8Type),
	codec.Named("is_charge", codec.BoolType),
)

type RobotState struct {
	WheelsEnabled  bool
	BatteryPercent uint8
	Charging       bool
}

func (*RobotState) Tag() frame.Tag        { return RobotStateTag }
func (*RobotState) WireType() *codec.Type { return RobotStateType }

func (m *RobotState) WireValue() codec.Value {
	return []codec.Value{m.WheelsEnabled, m.BatteryPercent, m.Charging}
}

func (m *RobotState) SetWireValue(v codec.Value) error {
	u := unpack("robot_state", v, 3)
	out := RobotState{
		WheelsEnabled:  next[bool](u),
		BatteryPercent: next[uint8](u),
		Charging:       next[bool](u),
	}
	if u.err != nil {
		return u.err
	}
	*m = out
	return nil
}

func (m *RobotState) MarshalZerologObject(e *zerolog.Event) {
	e.Bool("wheels_enabled", m.WheelsEnabled).
		Uint8("battery_percent", m.BatteryPercent).
		Bool("charging", m.Charging)
}
