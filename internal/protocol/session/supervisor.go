package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/edgewire/internal/observability"
	"github.com/danmuck/edgewire/internal/protocol/frame"
)

var ErrNotConnected = errors.New("session: not connected")

// Dialer opens a fresh transport connection.
type Dialer func(ctx context.Context) (io.ReadWriteCloser, error)

// Supervisor keeps one Link alive, redialing with backoff whenever the
// transport drops.
type Supervisor struct {
	Dial   Dialer
	Config Config
	// Setup registers handlers on every new link before it starts reading.
	Setup func(*Link)
	// Rand drives backoff jitter; nil disables jitter.
	Rand *rand.Rand

	sleep func(context.Context, time.Duration) error

	mu   sync.RWMutex
	link *Link
}

func NewSupervisor(dial Dialer, cfg Config, setup func(*Link)) *Supervisor {
	return &Supervisor{
		Dial:   dial,
		Config: cfg,
		Setup:  setup,
		Rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run dials, runs the link and redials until ctx is done.
func (s *Supervisor) Run(ctx context.Context) error {
	if s.Dial == nil {
		return errors.New("session: supervisor has no dialer")
	}
	sleep := s.sleep
	if sleep == nil {
		sleep = sleepContext
	}

	name := s.Config.Name
	if name == "" {
		name = DefaultName
	}

	attempt := 0
	for {
		conn, err := s.Dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			attempt++
			observability.RecordReconnect(name, false)
			delay := NextBackoffDelay(s.Config.Backoff, attempt, s.Rand)
			log.Warn().Str("name", name).Err(err).Int("attempt", attempt).Dur("retry_in", delay).Msg("dial failed")
			if err := sleep(ctx, delay); err != nil {
				return err
			}
			continue
		}

		link := NewLink(conn, s.Config)
		if s.Setup != nil {
			s.Setup(link)
		}
		observability.RecordReconnect(name, true)
		log.Info().Str("link", link.ID()).Int("after_attempts", attempt).Msg("link connected")
		attempt = 0

		s.setLink(link)
		err = link.Run(ctx)
		s.setLink(nil)

		if ctx.Err() != nil {
			return ctx.Err()
		}
		attempt++
		delay := NextBackoffDelay(s.Config.Backoff, attempt, s.Rand)
		log.Warn().Str("link", link.ID()).Err(err).Dur("retry_in", delay).Msg("link lost")
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
}

func (s *Supervisor) setLink(l *Link) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.link = l
}

// Link returns the live link, or nil between connections.
func (s *Supervisor) Link() *Link {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.link
}

// Send forwards m to the live link.
func (s *Supervisor) Send(m frame.Message) error {
	l := s.Link()
	if l == nil {
		return fmt.Errorf("%w: drop %s", ErrNotConnected, m.Tag())
	}
	return l.Send(m)
}
