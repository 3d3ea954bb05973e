package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/edgewire/internal/protocol/session"
)

// DialTCP connects to addr, giving up after timeout or when ctx is done.
func DialTCP(ctx context.Context, addr string, timeout time.Duration) (net.Conn, error) {
	d := net.Dialer{Timeout: timeout, KeepAlive: 15 * time.Second}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", addr, err)
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		// frames are small and latency sensitive
		_ = tcp.SetNoDelay(true)
	}
	return conn, nil
}

func TCPDialer(addr string, timeout time.Duration) session.Dialer {
	return func(ctx context.Context) (io.ReadWriteCloser, error) {
		return DialTCP(ctx, addr, timeout)
	}
}

type deadlineListener interface {
	SetDeadline(time.Time) error
}

// Accept waits for the next connection on ln until ctx is done.
func Accept(ctx context.Context, ln net.Listener) (net.Conn, error) {
	dl, ok := ln.(deadlineListener)
	if ok {
		stop := context.AfterFunc(ctx, func() { _ = dl.SetDeadline(time.Now()) })
		defer func() {
			stop()
			_ = dl.SetDeadline(time.Time{})
		}()
	}
	conn, err := ln.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("transport: accept on %s: %w", ln.Addr(), err)
	}
	log.Info().Str("local", conn.LocalAddr().String()).Str("remote", conn.RemoteAddr().String()).Msg("peer connected")
	return conn, nil
}

// AcceptDialer serves one peer at a time: each "dial" waits for the next
// inbound connection.
func AcceptDialer(ln net.Listener) session.Dialer {
	return func(ctx context.Context) (io.ReadWriteCloser, error) {
		conn, err := Accept(ctx, ln)
		if errors.Is(err, net.ErrClosed) {
			return nil, fmt.Errorf("transport: listener closed: %w", err)
		}
		return conn, err
	}
}
