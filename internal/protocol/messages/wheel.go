package messages

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/danmuck/edgewire/internal/protocol/codec"
	"github.com/danmuck/edgewire/internal/protocol/frame"
)

type WheelEnableState int32

const (
	WheelUnknown WheelEnableState = iota
	WheelEnabled
	WheelDisabled
)

func (s WheelEnableState) String() string {
	switch s {
	case WheelUnknown:
		return "UNKNOWN"
	case WheelEnabled:
		return "ENABLED"
	case WheelDisabled:
		return "DISABLED"
	default:
		return fmt.Sprintf("WheelEnableState(%d)", int32(s))
	}
}

var WheelStateTag = frame.TagOf("A3")

var WheelStateType = codec.CompositeOf(
	codec.Named("enable_state", codec.Int32Type),
	codec.Named("wheel_error_msg", codec.TextType),
)

// WheelState reports drive enablement and the last controller fault text.
type WheelState struct {
	Enable   WheelEnableState
	ErrorMsg string
}

func (*WheelState) Tag() frame.Tag        { return WheelStateTag }
func (*WheelState) WireType() *codec.Type { return WheelStateType }

func (m *WheelState) WireValue() codec.Value {
	return []codec.Value{int32(m.Enable), m.ErrorMsg}
}

// SetWireValue keeps enable values outside the known set; the controller
// firmware may be newer than this table.
func (m *WheelState) SetWireValue(v codec.Value) error {
	u := unpack("wheel_state", v, 2)
	out := WheelState{
		Enable:   WheelEnableState(next[int32](u)),
		ErrorMsg: next[string](u),
	}
	if u.err != nil {
		return u.err
	}
	*m = out
	return nil
}

func (m *WheelState) MarshalZerologObject(e *zerolog.Event) {
	e.Stringer("enable", m.Enable).Str("error", m.ErrorMsg)
}
