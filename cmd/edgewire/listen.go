package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/danmuck/edgewire/internal/observability"
	"github.com/danmuck/edgewire/internal/protocol/frame"
	"github.com/danmuck/edgewire/internal/protocol/messages"
	"github.com/danmuck/edgewire/internal/protocol/session"
)

func newListenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Print every frame received from the controller",
		Long: `listen keeps a link to the controller open, reconnecting with backoff,
and prints each decoded frame. Corrupted frames are logged and skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.listen(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func (a *app) listen(ctx context.Context, out io.Writer) error {
	observability.RegisterMetrics()
	if a.cfg.MetricsAddr != "" {
		stop := serveMetrics(a.cfg.MetricsAddr)
		defer stop()
	}

	dial, cleanup, err := a.dialer()
	if err != nil {
		return err
	}
	defer cleanup()

	sup := session.NewSupervisor(dial, a.cfg.Session, func(l *session.Link) {
		l.HandleDefault(printFrame(l.ID(), out))
	})
	err = sup.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func printFrame(linkID string, out io.Writer) session.HandlerFunc {
	return func(_ context.Context, f frame.Frame) error {
		m, known, err := messages.DecodePayload(f.Header.Tag, f.Payload)
		if err != nil {
			return err
		}
		if !known {
			log.Debug().Str("link", linkID).Stringer("tag", f.Header.Tag).Msg("unknown message tag")
			fmt.Fprintf(out, "%s\t%s\n", f.Header.Tag, hex.EncodeToString(f.Payload))
			return nil
		}
		if obj, ok := m.(zerolog.LogObjectMarshaler); ok {
			log.Info().Str("link", linkID).Stringer("tag", f.Header.Tag).EmbedObject(obj).Msg("frame")
		}
		fmt.Fprintf(out, "%s\t%+v\n", f.Header.Tag, m)
		return nil
	}
}

func serveMetrics(addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", addr).Msg("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server stopped")
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
