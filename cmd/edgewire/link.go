package main

import (
	"context"
	"fmt"
	"io"
	"net"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/edgewire/internal/config"
	"github.com/danmuck/edgewire/internal/protocol/session"
	"github.com/danmuck/edgewire/internal/transport"
)

// dialer resolves the configured transport. The cleanup func releases a
// listener opened for listen mode.
func (a *app) dialer() (session.Dialer, func(), error) {
	if a.cfg.Mode != config.ModeListen {
		dial, err := a.cfg.Dialer()
		return dial, func() {}, err
	}
	ln, err := net.Listen("tcp", a.cfg.Addr)
	if err != nil {
		return nil, func() {}, fmt.Errorf("listen on %s: %w", a.cfg.Addr, err)
	}
	log.Info().Str("addr", ln.Addr().String()).Msg("waiting for controller")
	return transport.AcceptDialer(ln), func() { _ = ln.Close() }, nil
}

// connect opens a single transport connection without retries.
func (a *app) connect(ctx context.Context) (io.ReadWriteCloser, func(), error) {
	dial, cleanup, err := a.dialer()
	if err != nil {
		return nil, cleanup, err
	}
	conn, err := dial(ctx)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	return conn, cleanup, nil
}
