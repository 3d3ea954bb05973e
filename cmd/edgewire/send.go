package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/danmuck/edgewire/internal/clock"
	"github.com/danmuck/edgewire/internal/protocol/frame"
	"github.com/danmuck/edgewire/internal/protocol/messages"
	"github.com/danmuck/edgewire/internal/protocol/session"
)

func newSendCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send messages to the controller",
	}
	cmd.AddCommand(newSendOdomCmd(a), newSendControlCmd(a))
	return cmd
}

func newSendOdomCmd(a *app) *cobra.Command {
	var (
		odom     messages.Odom
		count    int
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "odom",
		Short: "Send stamped odometry frames",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if count < 1 {
				return fmt.Errorf("count must be at least 1, got %d", count)
			}
			next := func() frame.Message {
				m := odom
				m.Stamp = clock.Stamp(a.clock)
				return &m
			}
			return a.send(cmd.Context(), cmd.OutOrStdout(), next, count, interval)
		},
	}
	flags := cmd.Flags()
	flags.Float32Var(&odom.LinearX, "linear-x", 0, "linear velocity x (m/s)")
	flags.Float32Var(&odom.LinearY, "linear-y", 0, "linear velocity y (m/s)")
	flags.Float32Var(&odom.Angular, "angular", 0, "angular velocity (rad/s)")
	flags.IntVar(&count, "count", 1, "number of frames to send")
	flags.DurationVar(&interval, "interval", 100*time.Millisecond, "delay between frames")
	return cmd
}

func newSendControlCmd(a *app) *cobra.Command {
	var enable bool
	cmd := &cobra.Command{
		Use:   "control",
		Short: "Enable or release the wheel drives",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			next := func() frame.Message {
				return &messages.RobotControl{EnableWheels: enable}
			}
			return a.send(cmd.Context(), cmd.OutOrStdout(), next, 1, 0)
		},
	}
	cmd.Flags().BoolVar(&enable, "enable", false, "enable the wheel drives")
	return cmd
}

func (a *app) send(ctx context.Context, out io.Writer, next func() frame.Message, count int, interval time.Duration) error {
	conn, cleanup, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer cleanup()
	defer conn.Close()

	link := session.NewLink(conn, a.cfg.Session)
	for i := 0; i < count; i++ {
		if i > 0 && interval > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-a.clock.After(interval):
			}
		}
		m := next()
		if err := link.Send(m); err != nil {
			return err
		}
	}
	fmt.Fprintf(out, "sent %d frame(s)\n", count)
	return nil
}
