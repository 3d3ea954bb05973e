package messages

import (
	"github.com/rs/zerolog"

	"github.com/danmuck/edgewire/internal/protocol/codec"
	"github.com/danmuck/edgewire/internal/protocol/frame"
)

var CustomMsgArrayTag = frame.TagOf("B2")

// CustomMsg is a named velocity command.
type CustomMsg struct {
	Name    string
	LinearX float32
	LinearY float32
	Angular float32
}

var CustomMsgType = codec.CompositeOf(
	codec.Named("name", codec.TextType),
	codec.Named("linear_velocity_x", codec.Float32Type),
	codec.Named("linear_velocity_y", codec.Float32Type),
	codec.Named("angular_velocity", codec.Float32Type),
)

func (c CustomMsg) WireValue() codec.Value {
	return []codec.Value{c.Name, c.LinearX, c.LinearY, c.Angular}
}

func CustomMsgFromWire(v codec.Value) (CustomMsg, error) {
	u := unpack("custom_msg", v, 4)
	out := CustomMsg{
		Name:    next[string](u),
		LinearX: next[float32](u),
		LinearY: next[float32](u),
		Angular: next[float32](u),
	}
	return out, u.err
}

const CustomMsgPairLen = 2

var CustomMsgArrayType = codec.CompositeOf(
	codec.Named("msgs", codec.ArrayOf(CustomMsgType, CustomMsgPairLen)),
	codec.Named("msgs_vector", codec.SequenceOf(CustomMsgType)),
)

// CustomMsgArray carries a fixed pair plus a variable list of commands.
type CustomMsgArray struct {
	Msgs   [CustomMsgPairLen]CustomMsg
	Vector []CustomMsg
}

func (*CustomMsgArray) Tag() frame.Tag        { return CustomMsgArrayTag }
func (*CustomMsgArray) WireType() *codec.Type { return CustomMsgArrayType }

func (m *CustomMsgArray) WireValue() codec.Value {
	pair := make([]codec.Value, len(m.Msgs))
	for i, c := range m.Msgs {
		pair[i] = c.WireValue()
	}
	list := make([]codec.Value, len(m.Vector))
	for i, c := range m.Vector {
		list[i] = c.WireValue()
	}
	return []codec.Value{pair, list}
}

func (m *CustomMsgArray) SetWireValue(v codec.Value) error {
	u := unpack("custom_msg_array", v, 2)
	pair := next[[]codec.Value](u)
	list := next[[]codec.Value](u)
	if u.err != nil {
		return u.err
	}

	out := CustomMsgArray{}
	items := unpack("custom_msg_array.msgs", pair, CustomMsgPairLen)
	for i := range out.Msgs {
		out.Msgs[i] = nested(items, CustomMsgFromWire)
	}
	if items.err != nil {
		return items.err
	}
	if len(list) > 0 {
		rest := unpack("custom_msg_array.msgs_vector", list, len(list))
		out.Vector = make([]CustomMsg, len(list))
		for i := range out.Vector {
			out.Vector[i] = nested(rest, CustomMsgFromWire)
		}
		if rest.err != nil {
			return rest.err
		}
	}
	*m = out
	return nil
}

func (m *CustomMsgArray) MarshalZerologObject(e *zerolog.Event) {
	names := make([]string, 0, len(m.Msgs)+len(m.Vector))
	for _, c := range m.Msgs {
		names = append(names, c.Name)
	}
	for _, c := range m.Vector {
		names = append(names, c.Name)
	}
	e.Strs("names", names).Int("vector_len", len(m.Vector))
}
