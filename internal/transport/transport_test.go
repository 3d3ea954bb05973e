package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"

	"github.com/danmuck/edgewire/internal/testutil/testlog"
)

func TestPortOptionsNormalizeDefaults(t *testing.T) {
	testlog.Start(t)
	got, err := PortOptions{}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, PortOptions{BaudRate: DefaultBaudRate, DataBits: 8, StopBits: 1, Parity: "N"}, got)
}

func TestPortOptionsNormalizeRejects(t *testing.T) {
	testlog.Start(t)
	cases := map[string]PortOptions{
		"data bits": {DataBits: 9},
		"stop bits": {StopBits: 3},
		"parity":    {Parity: "mark"},
	}
	for name, opts := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := opts.Normalize()
			assert.Error(t, err)
		})
	}
}

func TestPortOptionsEqual(t *testing.T) {
	testlog.Start(t)
	assert.True(t, PortOptions{Parity: "none"}.Equal(PortOptions{BaudRate: DefaultBaudRate, Parity: "N"}))
	assert.False(t, PortOptions{Parity: "E"}.Equal(PortOptions{Parity: "O"}))
	assert.False(t, PortOptions{DataBits: 9}.Equal(PortOptions{DataBits: 9}))
}

func TestPortOptionsSerialMode(t *testing.T) {
	testlog.Start(t)
	mode, err := PortOptions{BaudRate: 9600, DataBits: 7, StopBits: 2, Parity: "even"}.SerialMode()
	require.NoError(t, err)
	assert.Equal(t, 9600, mode.BaudRate)
	assert.Equal(t, 7, mode.DataBits)
	assert.Equal(t, serial.TwoStopBits, mode.StopBits)
	assert.Equal(t, serial.EvenParity, mode.Parity)

	mode, err = PortOptions{}.SerialMode()
	require.NoError(t, err)
	assert.Equal(t, serial.OneStopBit, mode.StopBits)
	assert.Equal(t, serial.NoParity, mode.Parity)

	_, err = PortOptions{Parity: "X"}.SerialMode()
	assert.Error(t, err)
}

func TestSerialDialerHonorsCanceledContext(t *testing.T) {
	testlog.Start(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := SerialDialer("/dev/null-port", PortOptions{})(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDialAndAcceptTCP(t *testing.T) {
	testlog.Start(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	accepted := make(chan io.ReadWriteCloser, 1)
	go func() {
		conn, err := AcceptDialer(ln)(ctx)
		if err == nil {
			accepted <- conn
		}
	}()

	client, err := TCPDialer(ln.Addr().String(), time.Second)(ctx)
	require.NoError(t, err)
	defer client.Close()

	var server io.ReadWriteCloser
	select {
	case server = <-accepted:
	case <-ctx.Done():
		t.Fatal("accept did not return")
	}
	defer server.Close()

	_, err = client.Write([]byte("AB"))
	require.NoError(t, err)
	buf := make([]byte, 2)
	_, err = io.ReadFull(server, buf)
	require.NoError(t, err)
	assert.Equal(t, "AB", string(buf))
}

func TestAcceptStopsOnCancel(t *testing.T) {
	testlog.Start(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err = Accept(ctx, ln)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
}

func TestDialTCPRefused(t *testing.T) {
	testlog.Start(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = DialTCP(context.Background(), addr, 500*time.Millisecond)
	assert.Error(t, err)
}
