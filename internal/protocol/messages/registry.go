package messages

import (
	"slices"
	"strings"

	"github.com/danmuck/edgewire/internal/protocol/frame"
)

var registry = map[frame.Tag]func() frame.Unmarshaler{
	OdomTag:           func() frame.Unmarshaler { return &Odom{} },
	WheelStateTag:     func() frame.Unmarshaler { return &WheelState{} },
	DeviceStateTag:    func() frame.Unmarshaler { return &DeviceState{} },
	CustomMsgArrayTag: func() frame.Unmarshaler { return &CustomMsgArray{} },
	RobotControlTag:   func() frame.Unmarshaler { return &RobotControl{} },
	RobotStateTag:     func() frame.Unmarshaler { return &RobotState{} },
}

// Lookup returns a fresh zero message for tag.
func Lookup(tag frame.Tag) (frame.Unmarshaler, bool) {
	mk, ok := registry[tag]
	if !ok {
		return nil, false
	}
	return mk(), true
}

// Tags lists every known tag in byte order.
func Tags() []frame.Tag {
	out := make([]frame.Tag, 0, len(registry))
	for tag := range registry {
		out = append(out, tag)
	}
	slices.SortFunc(out, func(a, b frame.Tag) int {
		return strings.Compare(string(a[:]), string(b[:]))
	})
	return out
}

// DecodePayload resolves the message for tag and fills it from a payload
// that has already passed framing checks.
func DecodePayload(tag frame.Tag, payload []byte) (frame.Unmarshaler, bool, error) {
	m, ok := Lookup(tag)
	if !ok {
		return nil, false, nil
	}
	if err := frame.DecodePayload(payload, m); err != nil {
		return nil, true, err
	}
	return m, true, nil
}
