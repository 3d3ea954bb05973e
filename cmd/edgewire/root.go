package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/danmuck/edgewire/internal/clock"
	"github.com/danmuck/edgewire/internal/config"
	"github.com/danmuck/edgewire/internal/logging"
)

const defaultConfigPath = "edgewire.toml"

// app is the state shared by every subcommand.
type app struct {
	cfgFile  string
	mode     string
	addr     string
	logLevel string

	cfg   config.LinkConfig
	clock clock.Clock
}

func newApp() *app {
	return &app{clock: clock.RealClock{}}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "edgewire",
		Short: "Framed binary link to a robot base controller",
		Long: `edgewire exchanges tagged, CRC-checked binary frames with an embedded
controller over TCP or a serial port. It can listen for telemetry, send
commands and inspect captured frames.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.loadConfig,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default ./"+defaultConfigPath+" when present)")
	flags.StringVar(&a.mode, "mode", "", "transport mode override: dial, listen or serial")
	flags.StringVar(&a.addr, "addr", "", "TCP address override")
	flags.StringVar(&a.logLevel, "log-level", "", "log level override")

	root.AddCommand(
		newListenCmd(a),
		newSendCmd(a),
		newDecodeCmd(a),
		newConfigCmd(a),
		newPortsCmd(a),
	)
	return root
}

// loadConfig resolves defaults, the config file and flag overrides, in that
// order.
func (a *app) loadConfig(cmd *cobra.Command, _ []string) error {
	cfg := config.Default()
	path := a.cfgFile
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			path = defaultConfigPath
		}
	}
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded
		log.Debug().Str("path", path).Msg("loaded link config")
	}

	if a.mode != "" {
		cfg.Mode = config.Mode(a.mode)
	}
	if a.addr != "" {
		cfg.Addr = a.addr
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.LogLevel != "" && !logging.SetLevel(cfg.LogLevel) {
		return fmt.Errorf("unknown log level %q", cfg.LogLevel)
	}
	a.cfg = cfg
	return nil
}
