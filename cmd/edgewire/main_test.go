package main

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/edgewire/internal/clock"
	"github.com/danmuck/edgewire/internal/protocol/codec"
	"github.com/danmuck/edgewire/internal/protocol/frame"
	"github.com/danmuck/edgewire/internal/protocol/messages"
	"github.com/danmuck/edgewire/internal/testutil/testlog"
)

const odomFrameHex = "4142140000005dd0d1ef6e6540ef5a0777be8f3f7b1416c0c3f54840"

func executeCommand(a *app, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	root := newRootCmd(a)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestDecodeCommand(t *testing.T) {
	testlog.Start(t)
	out, err := executeCommand(newApp(), "decode", "0x"+odomFrameHex)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	for _, want := range []string{"AB\tlen=20 crc=0xd05d", "LinearX:1.123", "Sec:1701769169", "frames: 1 ok, 0 dropped"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got: %s", want, out)
		}
	}
}

func TestDecodeCommandReportsDropsAndTail(t *testing.T) {
	testlog.Start(t)
	corrupt := odomFrameHex[:len(odomFrameHex)-2] + "41"
	out, err := executeCommand(newApp(), "decode", corrupt, "bae1010000007e8001", "4142")
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	for _, want := range []string{"AB\tdropped 28 bytes", "0xbae1\tlen=1", "EnableWheels:true", "incomplete: 2 trailing bytes", "frames: 1 ok, 1 dropped"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got: %s", want, out)
		}
	}
}

func TestDecodeCommandRejectsBadHex(t *testing.T) {
	testlog.Start(t)
	if _, err := executeCommand(newApp(), "decode", "zz"); err == nil {
		t.Fatalf("expected hex parse error")
	}
}

func TestConfigInitValidateShow(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "link.toml")

	out, err := executeCommand(newApp(), "config", "init", path)
	if err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if !strings.Contains(out, "wrote "+path) {
		t.Errorf("unexpected init output: %s", out)
	}
	if _, err := executeCommand(newApp(), "config", "init", path); err == nil {
		t.Fatalf("init should refuse to overwrite without --force")
	}

	out, err = executeCommand(newApp(), "config", "validate", path)
	if err != nil {
		t.Fatalf("config validate failed: %v", err)
	}
	if !strings.Contains(out, "ok: dial link \"edgewire\"") {
		t.Errorf("unexpected validate output: %s", out)
	}

	out, err = executeCommand(newApp(), "--config", path, "--addr", "10.0.0.2:9100", "config", "show")
	if err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	if !strings.Contains(out, "10.0.0.2:9100") || !strings.Contains(out, "[link]") {
		t.Errorf("unexpected show output: %s", out)
	}

	bad := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(bad, []byte("mode = \"smoke-signal\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := executeCommand(newApp(), "config", "validate", bad); err == nil {
		t.Fatalf("expected invalid mode error")
	}
}

func TestInvalidModeFlag(t *testing.T) {
	testlog.Start(t)
	if _, err := executeCommand(newApp(), "--mode", "pigeon", "config", "show"); err == nil {
		t.Fatalf("expected invalid mode error")
	}
}

func TestSendOdomStampsFromClock(t *testing.T) {
	testlog.Start(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	frames := make(chan []frame.Frame, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		var got []frame.Frame
		for i := 0; i < 2; i++ {
			f, err := frame.ReadFrame(conn, frame.DefaultLimits())
			if err != nil {
				break
			}
			got = append(got, f)
		}
		frames <- got
	}()

	a := newApp()
	a.clock = clock.NewMockClock(time.Unix(1701769169, 123400000))
	out, err := executeCommand(a, "--addr", ln.Addr().String(),
		"send", "odom", "--linear-x", "1.123", "--angular", "3.14", "--count", "2", "--interval", "0s")
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if !strings.Contains(out, "sent 2 frame(s)") {
		t.Errorf("unexpected output: %s", out)
	}

	var got []frame.Frame
	select {
	case got = <-frames:
	case <-time.After(2 * time.Second):
		t.Fatal("peer never received frames")
	}
	if len(got) != 2 {
		t.Fatalf("received %d frames, want 2", len(got))
	}
	for _, f := range got {
		var m messages.Odom
		if err := frame.DecodePayload(f.Payload, &m); err != nil {
			t.Fatalf("decode: %v", err)
		}
		want := messages.Odom{
			Stamp:   codec.Timestamp{Sec: 1701769169, Nsec: 123400000},
			LinearX: 1.123,
			Angular: 3.14,
		}
		if m != want {
			t.Fatalf("odom=%+v want %+v", m, want)
		}
	}
}

func TestPrintFrame(t *testing.T) {
	testlog.Start(t)
	var buf bytes.Buffer
	h := printFrame("test-link", &buf)

	b, err := frame.Encode(&messages.RobotState{BatteryPercent: 42})
	if err != nil {
		t.Fatal(err)
	}
	f, err := frame.ReadFrame(bytes.NewReader(b), frame.DefaultLimits())
	if err != nil {
		t.Fatal(err)
	}
	if err := h(context.Background(), f); err != nil {
		t.Fatalf("handler: %v", err)
	}
	unknown := frame.Frame{Header: frame.Header{Tag: frame.TagOf("ZZ")}, Payload: []byte{0xAA}}
	if err := h(context.Background(), unknown); err != nil {
		t.Fatalf("unknown tag should not fail: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "BatteryPercent:42") || !strings.Contains(out, "ZZ\taa") {
		t.Errorf("unexpected output: %s", out)
	}
}
