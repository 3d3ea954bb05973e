package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/danmuck/edgewire/internal/logging"
	"github.com/danmuck/edgewire/internal/protocol/session"
	"github.com/danmuck/edgewire/internal/transport"
)

// Mode selects how the link transport is opened.
type Mode string

const (
	ModeDial   Mode = "dial"
	ModeListen Mode = "listen"
	ModeSerial Mode = "serial"
)

// LinkConfig is the resolved runtime configuration of one controller link.
// Name also labels the link's metrics through Session.Name.
type LinkConfig struct {
	Name        string
	Mode        Mode
	Addr        string
	SerialPath  string
	Serial      transport.PortOptions
	MetricsAddr string
	LogLevel    string
	Session     session.Config
}

func Default() LinkConfig {
	serial, _ := transport.PortOptions{}.Normalize()
	cfg := LinkConfig{
		Name:        "edgewire",
		Mode:        ModeDial,
		Addr:        "127.0.0.1:9000",
		SerialPath:  "/dev/ttyUSB0",
		Serial:      serial,
		MetricsAddr: "",
		LogLevel:    "info",
		Session:     session.DefaultConfig(),
	}
	cfg.Session.Name = cfg.Name
	return cfg
}

type fileConfig struct {
	Name        string     `toml:"name"`
	Mode        string     `toml:"mode"`
	Addr        string     `toml:"addr"`
	MetricsAddr string     `toml:"metrics_addr"`
	LogLevel    string     `toml:"log_level"`
	Serial      serialFile `toml:"serial"`
	Link        linkFile   `toml:"link"`
}

type serialFile struct {
	Path     string `toml:"path"`
	BaudRate int    `toml:"baud_rate"`
	DataBits int    `toml:"data_bits"`
	StopBits int    `toml:"stop_bits"`
	Parity   string `toml:"parity"`
}

type linkFile struct {
	ReadBufferBytes   int     `toml:"read_buffer_bytes"`
	MaxPayloadBytes   uint32  `toml:"max_payload_bytes"`
	WriteTimeout      string  `toml:"write_timeout"`
	DialTimeout       string  `toml:"dial_timeout"`
	BackoffInitial    string  `toml:"backoff_initial"`
	BackoffMax        string  `toml:"backoff_max"`
	BackoffMultiplier float64 `toml:"backoff_multiplier"`
	BackoffJitter     bool    `toml:"backoff_jitter"`
}

// Load reads path and overlays every key it defines on Default. Unknown keys
// are rejected so typos do not silently fall back to defaults.
func Load(path string) (LinkConfig, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return LinkConfig{}, fmt.Errorf("load link config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return LinkConfig{}, fmt.Errorf("load link config: unknown keys %s", strings.Join(keys, ", "))
	}

	if meta.IsDefined("name") {
		cfg.Name = strings.TrimSpace(raw.Name)
		cfg.Session.Name = cfg.Name
	}
	if meta.IsDefined("mode") {
		cfg.Mode = Mode(strings.ToLower(strings.TrimSpace(raw.Mode)))
	}
	if meta.IsDefined("addr") {
		cfg.Addr = strings.TrimSpace(raw.Addr)
	}
	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}

	if meta.IsDefined("serial", "path") {
		cfg.SerialPath = strings.TrimSpace(raw.Serial.Path)
	}
	if meta.IsDefined("serial", "baud_rate") {
		cfg.Serial.BaudRate = raw.Serial.BaudRate
	}
	if meta.IsDefined("serial", "data_bits") {
		cfg.Serial.DataBits = raw.Serial.DataBits
	}
	if meta.IsDefined("serial", "stop_bits") {
		cfg.Serial.StopBits = raw.Serial.StopBits
	}
	if meta.IsDefined("serial", "parity") {
		cfg.Serial.Parity = raw.Serial.Parity
	}

	link := &cfg.Session
	if meta.IsDefined("link", "read_buffer_bytes") {
		link.ReadBufferBytes = raw.Link.ReadBufferBytes
	}
	if meta.IsDefined("link", "max_payload_bytes") {
		link.Limits.MaxPayloadBytes = raw.Link.MaxPayloadBytes
	}
	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"write_timeout", raw.Link.WriteTimeout, &link.WriteTimeout},
		{"dial_timeout", raw.Link.DialTimeout, &link.DialTimeout},
		{"backoff_initial", raw.Link.BackoffInitial, &link.Backoff.InitialDelay},
		{"backoff_max", raw.Link.BackoffMax, &link.Backoff.MaxDelay},
	}
	for _, d := range durations {
		if !meta.IsDefined("link", d.key) {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.raw))
		if err != nil {
			return LinkConfig{}, fmt.Errorf("parse link.%s: %w", d.key, err)
		}
		*d.dst = v
	}
	if meta.IsDefined("link", "backoff_multiplier") {
		link.Backoff.Multiplier = raw.Link.BackoffMultiplier
	}
	if meta.IsDefined("link", "backoff_jitter") {
		link.Backoff.Jitter = raw.Link.BackoffJitter
	}

	if err := cfg.Validate(); err != nil {
		return LinkConfig{}, err
	}
	return cfg, nil
}

func (c LinkConfig) Validate() error {
	var errs []error
	if c.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	switch c.Mode {
	case ModeDial, ModeListen:
		if c.Addr == "" {
			errs = append(errs, fmt.Errorf("addr is required in %s mode", c.Mode))
		}
	case ModeSerial:
		if c.SerialPath == "" {
			errs = append(errs, errors.New("serial.path is required in serial mode"))
		}
		if _, err := c.Serial.Normalize(); err != nil {
			errs = append(errs, fmt.Errorf("serial: %w", err))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown mode %q: expected dial, listen or serial", c.Mode))
	}
	if c.LogLevel != "" {
		if _, ok := logging.ParseLevel(c.LogLevel); !ok {
			errs = append(errs, fmt.Errorf("unknown log_level %q", c.LogLevel))
		}
	}
	if err := c.Session.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("link config %q invalid: %w", c.Name, errors.Join(errs...))
	}
	return nil
}

// Dialer returns the session dialer for Dial and Serial modes. Listen mode
// needs a listener and is wired by the caller through transport.AcceptDialer.
func (c LinkConfig) Dialer() (session.Dialer, error) {
	switch c.Mode {
	case ModeDial:
		return transport.TCPDialer(c.Addr, c.Session.DialTimeout), nil
	case ModeSerial:
		return transport.SerialDialer(c.SerialPath, c.Serial), nil
	default:
		return nil, fmt.Errorf("mode %q has no dialer", c.Mode)
	}
}
