package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

func toFile(c LinkConfig) fileConfig {
	s := c.Session
	return fileConfig{
		Name:        c.Name,
		Mode:        string(c.Mode),
		Addr:        c.Addr,
		MetricsAddr: c.MetricsAddr,
		LogLevel:    c.LogLevel,
		Serial: serialFile{
			Path:     c.SerialPath,
			BaudRate: c.Serial.BaudRate,
			DataBits: c.Serial.DataBits,
			StopBits: c.Serial.StopBits,
			Parity:   c.Serial.Parity,
		},
		Link: linkFile{
			ReadBufferBytes:   s.ReadBufferBytes,
			MaxPayloadBytes:   s.Limits.MaxPayloadBytes,
			WriteTimeout:      s.WriteTimeout.String(),
			DialTimeout:       s.DialTimeout.String(),
			BackoffInitial:    s.Backoff.InitialDelay.String(),
			BackoffMax:        s.Backoff.MaxDelay.String(),
			BackoffMultiplier: s.Backoff.Multiplier,
			BackoffJitter:     s.Backoff.Jitter,
		},
	}
}

// Render writes c in the file format Load reads.
func Render(c LinkConfig) (string, error) {
	b, err := toml.Marshal(toFile(c))
	if err != nil {
		return "", fmt.Errorf("render link config: %w", err)
	}
	return string(b), nil
}

// Template is the default configuration as TOML.
func Template() (string, error) {
	return Render(Default())
}

func WriteTemplate(path string, overwrite bool) error {
	template, err := Template()
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}
