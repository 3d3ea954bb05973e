package messages

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/danmuck/edgewire/internal/protocol"
	"github.com/danmuck/edgewire/internal/protocol/codec"
	"github.com/danmuck/edgewire/internal/protocol/frame"
	"github.com/danmuck/edgewire/internal/protocol/framer"
	"github.com/danmuck/edgewire/internal/testutil/testlog"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}

func TestWireBytes(t *testing.T) {
	testlog.Start(t)

	cases := []struct {
		name string
		msg  frame.Message
		want string
	}{
		{
			name: "odom",
			msg: &Odom{
				Stamp:   codec.Timestamp{Sec: 1701769169, Nsec: 123400000},
				LinearX: 1.123,
				LinearY: -2.345,
				Angular: 3.14,
			},
			want: "414214000000" + "5dd0" + "d1ef6e6540ef5a0777be8f3f7b1416c0c3f54840",
		},
		{
			name: "wheel_state",
			msg:  &WheelState{Enable: WheelDisabled, ErrorMsg: "stall"},
			want: "41330d000000593102000000050000007374616c6c",
		},
		{
			name: "robot_state",
			msg:  &RobotState{WheelsEnabled: true, BatteryPercent: 87},
			want: "abd0030000001e30015700",
		},
		{
			name: "robot_control",
			msg:  &RobotControl{EnableWheels: true},
			want: "bae1010000007e8001",
		},
		{
			name: "device_state",
			msg: &DeviceState{
				Left:  DriveSide{Voltage: 240, Current: 15, Temperature: 31},
				Right: DriveSide{Voltage: 241, Current: 16, Temperature: 33, Code: 7},
			},
			want: "445310000000e444f0000f001f000000f100100021000700",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := frame.Encode(tc.msg)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			if hex.EncodeToString(got) != tc.want {
				t.Fatalf("wire mismatch\n got %x\nwant %s", got, tc.want)
			}
		})
	}
}

func TestRoundTripThroughFrames(t *testing.T) {
	testlog.Start(t)

	msgs := []frame.Unmarshaler{
		&Odom{Stamp: codec.Timestamp{Sec: 10, Nsec: 20}, LinearX: 0.5, Angular: -1},
		&WheelState{Enable: WheelEnabled},
		&DeviceState{Left: DriveSide{Code: 3}, Right: DriveSide{Voltage: 1}},
		&CustomMsgArray{
			Msgs: [2]CustomMsg{
				{Name: "left", LinearX: 1},
				{Name: "right", LinearY: 2},
			},
			Vector: []CustomMsg{
				{Name: "a", Angular: 0.25},
				{Name: "", LinearX: -3},
				{Name: "c"},
			},
		},
		&RobotControl{},
		&RobotState{BatteryPercent: 100, Charging: true},
	}
	for _, in := range msgs {
		b, err := frame.Encode(in)
		if err != nil {
			t.Fatalf("%s encode: %v", in.Tag(), err)
		}
		out, ok := Lookup(in.Tag())
		if !ok {
			t.Fatalf("%s not registered", in.Tag())
		}
		if err := frame.Decode(b, out); err != nil {
			t.Fatalf("%s decode: %v", in.Tag(), err)
		}
		if diff := cmp.Diff(in, out); diff != "" {
			t.Fatalf("%s round trip (-want +got):\n%s", in.Tag(), diff)
		}
	}
}

func TestCustomMsgArrayEmptyVector(t *testing.T) {
	testlog.Start(t)

	in := &CustomMsgArray{Msgs: [2]CustomMsg{{Name: "x"}, {Name: "y"}}}
	b, err := frame.Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	// two composites of (4+1+12) bytes plus an empty count
	if got, want := len(b), frame.HeaderSize+2*17+4; got != want {
		t.Fatalf("frame size=%d want %d", got, want)
	}
	var out CustomMsgArray
	if err := frame.Decode(b, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Vector != nil || out.Msgs[1].Name != "y" {
		t.Fatalf("unexpected decode: %+v", out)
	}
}

func TestUnknownWheelStateKept(t *testing.T) {
	testlog.Start(t)

	var m WheelState
	if err := m.SetWireValue([]codec.Value{int32(9), "fw"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if m.Enable != 9 || m.Enable.String() != "WheelEnableState(9)" {
		t.Fatalf("enable=%v", m.Enable)
	}
	if WheelEnabled.String() != "ENABLED" {
		t.Fatalf("enabled string=%q", WheelEnabled.String())
	}
}

func TestSetWireValueRejectsWithoutMutation(t *testing.T) {
	testlog.Start(t)

	orig := Odom{LinearX: 7}
	m := orig
	err := m.SetWireValue([]codec.Value{codec.Timestamp{}, float32(1), "bad", float32(2)})
	if !errors.Is(err, protocol.ErrValueType) {
		t.Fatalf("want ErrValueType, got %v", err)
	}
	if m != orig {
		t.Fatalf("receiver mutated: %+v", m)
	}

	arr := CustomMsgArray{Vector: []CustomMsg{{Name: "keep"}}}
	bad := []codec.Value{
		[]codec.Value{CustomMsg{}.WireValue()},
		[]codec.Value{},
	}
	if err := arr.SetWireValue(bad); !errors.Is(err, protocol.ErrValueType) {
		t.Fatalf("want ErrValueType for short pair, got %v", err)
	}
	if len(arr.Vector) != 1 || arr.Vector[0].Name != "keep" {
		t.Fatalf("array mutated: %+v", arr)
	}
}

func TestRegistry(t *testing.T) {
	testlog.Start(t)

	a, ok := Lookup(OdomTag)
	if !ok {
		t.Fatalf("odom missing")
	}
	b, _ := Lookup(OdomTag)
	if a == b {
		t.Fatalf("lookup must return fresh instances")
	}
	if _, ok := Lookup(frame.TagOf("ZZ")); ok {
		t.Fatalf("unknown tag resolved")
	}

	tags := Tags()
	want := []frame.Tag{
		frame.TagOf("A3"), frame.TagOf("AB"), frame.TagOf("B2"), frame.TagOf("DS"),
		RobotStateTag, RobotControlTag,
	}
	if diff := cmp.Diff(want, tags); diff != "" {
		t.Fatalf("tags (-want +got):\n%s", diff)
	}

	if _, known, err := DecodePayload(frame.TagOf("ZZ"), nil); known || err != nil {
		t.Fatalf("unknown payload: known=%v err=%v", known, err)
	}
	if _, known, err := DecodePayload(RobotControlTag, []byte{1, 2}); !known || !errors.Is(err, protocol.ErrTrailingBytes) {
		t.Fatalf("trailing payload: known=%v err=%v", known, err)
	}
}

func TestMixedStreamDecodes(t *testing.T) {
	testlog.Start(t)

	var stream []byte
	var err error
	in := []frame.Message{
		&RobotState{WheelsEnabled: true, BatteryPercent: 50},
		&WheelState{Enable: WheelEnabled, ErrorMsg: "ok"},
		&Odom{LinearX: 1},
	}
	for i, m := range in {
		if stream, err = frame.Append(stream, m); err != nil {
			t.Fatalf("append: %v", err)
		}
		if i == 0 {
			// a corrupted frame in the middle is consumed and skipped
			bad := mustHex(t, "bae1010000007e8001")
			bad[len(bad)-1] ^= 0x02
			stream = append(stream, bad...)
		}
	}

	buf := framer.NewBuffer(frame.DefaultLimits())
	buf.Write(stream)
	var got []frame.Tag
	for {
		res, ok := buf.Next()
		if !ok {
			break
		}
		if res.Status != framer.Succeeded {
			continue
		}
		m, known, err := DecodePayload(res.Header.Tag, res.Payload)
		if !known || err != nil {
			t.Fatalf("decode %s: known=%v err=%v", res.Header.Tag, known, err)
		}
		got = append(got, m.Tag())
	}
	want := []frame.Tag{RobotStateTag, WheelStateTag, OdomTag}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("stream tags (-want +got):\n%s", diff)
	}
}

func TestNestedHeaderAndVector(t *testing.T) {
	testlog.Start(t)

	h := Header{Seq: 4, Stamp: codec.Timestamp{Sec: 1, Nsec: 2}, FrameID: "base_link"}
	b, err := codec.Encode(HeaderType, h.WireValue())
	if err != nil {
		t.Fatalf("encode header: %v", err)
	}
	if len(b) != 4+8+4+len("base_link") {
		t.Fatalf("header size=%d", len(b))
	}
	v, err := codec.Decode(b, HeaderType)
	if err != nil {
		t.Fatalf("decode header: %v", err)
	}
	gotH, err := HeaderFromWire(v)
	if err != nil || gotH != h {
		t.Fatalf("header=%+v err=%v", gotH, err)
	}

	vec := Vector3{X: 1.5, Y: -2, Z: 1e-9}
	if n, ok := codec.FixedSize(Vector3Type); !ok || n != 24 {
		t.Fatalf("vector3 fixed size=%d ok=%v", n, ok)
	}
	b, err = codec.Encode(Vector3Type, vec.WireValue())
	if err != nil {
		t.Fatalf("encode vector: %v", err)
	}
	v, err = codec.Decode(b, Vector3Type)
	if err != nil {
		t.Fatalf("decode vector: %v", err)
	}
	gotV, err := Vector3FromWire(v)
	if err != nil || gotV != vec {
		t.Fatalf("vector=%+v err=%v", gotV, err)
	}
}
