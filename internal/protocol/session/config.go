package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/danmuck/edgewire/internal/protocol/frame"
)

// BackoffConfig defines retry backoff behavior.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

// DefaultName labels link metrics when a config carries no name.
const DefaultName = "edgewire"

// Config defines link buffering, limits and retry defaults.
type Config struct {
	// Name labels metrics for every link built from this config. It should
	// name the configured endpoint, not a single connection.
	Name string
	// ReadBufferBytes is the size of each transport read.
	ReadBufferBytes int
	Limits          frame.Limits
	WriteTimeout    time.Duration
	DialTimeout     time.Duration
	Backoff         BackoffConfig
}

func DefaultConfig() Config {
	return Config{
		Name:            DefaultName,
		ReadBufferBytes: 4096,
		Limits:          frame.DefaultLimits(),
		WriteTimeout:    5 * time.Second,
		DialTimeout:     5 * time.Second,
		Backoff: BackoffConfig{
			InitialDelay: 250 * time.Millisecond,
			Multiplier:   2.0,
			MaxDelay:     5 * time.Second,
			Jitter:       true,
		},
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.ReadBufferBytes <= 0 {
		errs = append(errs, fmt.Errorf("read buffer must be positive, got %d", c.ReadBufferBytes))
	}
	if c.WriteTimeout < 0 {
		errs = append(errs, fmt.Errorf("write timeout must not be negative, got %s", c.WriteTimeout))
	}
	if c.DialTimeout < 0 {
		errs = append(errs, fmt.Errorf("dial timeout must not be negative, got %s", c.DialTimeout))
	}
	if c.Backoff.InitialDelay < 0 || c.Backoff.MaxDelay < 0 {
		errs = append(errs, errors.New("backoff delays must not be negative"))
	}
	if c.Backoff.MaxDelay > 0 && c.Backoff.InitialDelay > c.Backoff.MaxDelay {
		errs = append(errs, fmt.Errorf("backoff initial delay %s exceeds max %s", c.Backoff.InitialDelay, c.Backoff.MaxDelay))
	}
	if len(errs) > 0 {
		return fmt.Errorf("session config: %w", errors.Join(errs...))
	}
	return nil
}
