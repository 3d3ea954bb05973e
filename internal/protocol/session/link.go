package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/edgewire/internal/observability"
	"github.com/danmuck/edgewire/internal/protocol"
	"github.com/danmuck/edgewire/internal/protocol/frame"
	"github.com/danmuck/edgewire/internal/protocol/framer"
)

var ErrLinkClosed = errors.New("session: link closed")

// HandlerFunc receives one checksum-valid frame. The payload is owned by the
// handler. A returned error is logged and counted; the link keeps running.
type HandlerFunc func(ctx context.Context, f frame.Frame) error

// Decoded adapts a typed handler: the frame is decoded through lookup before
// fn runs.
func Decoded(lookup func(frame.Tag) (frame.Unmarshaler, bool), fn func(context.Context, frame.Unmarshaler) error) HandlerFunc {
	return func(ctx context.Context, f frame.Frame) error {
		m, ok := lookup(f.Header.Tag)
		if !ok {
			return fmt.Errorf("session: no message registered for tag %s", f.Header.Tag)
		}
		if err := frame.DecodePayload(f.Payload, m); err != nil {
			return err
		}
		return fn(ctx, m)
	}
}

type deadlineWriter interface {
	SetWriteDeadline(time.Time) error
}

// Stats is a snapshot of link counters.
type Stats struct {
	FramesReceived uint64
	FramesDropped  uint64
	FramesSent     uint64
	BytesDiscarded uint64
	Unhandled      uint64
	HandlerErrors  uint64
}

// Link exchanges frames over one transport connection. Send is safe for
// concurrent use; Run must be called at most once. The id identifies the
// connection in logs; metrics are labeled by the config name.
type Link struct {
	id  string
	rw  io.ReadWriter
	cfg Config

	writeMu sync.Mutex

	mu       sync.RWMutex
	handlers map[frame.Tag]HandlerFunc
	fallback HandlerFunc
	onDrop   func(framer.Result)

	received  atomic.Uint64
	dropped   atomic.Uint64
	sent      atomic.Uint64
	discarded atomic.Uint64
	unhandled atomic.Uint64
	rejected  atomic.Uint64
}

func NewLink(rw io.ReadWriter, cfg Config) *Link {
	if cfg.ReadBufferBytes <= 0 {
		cfg.ReadBufferBytes = DefaultConfig().ReadBufferBytes
	}
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	return &Link{
		id:       uuid.NewString(),
		rw:       rw,
		cfg:      cfg,
		handlers: make(map[frame.Tag]HandlerFunc),
	}
}

func (l *Link) ID() string   { return l.id }
func (l *Link) Name() string { return l.cfg.Name }

// Handle registers h for frames carrying tag, replacing any previous one.
func (l *Link) Handle(tag frame.Tag, h HandlerFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if h == nil {
		delete(l.handlers, tag)
		return
	}
	l.handlers[tag] = h
}

// HandleDefault receives frames no tag handler claimed.
func (l *Link) HandleDefault(h HandlerFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fallback = h
}

// OnDrop observes every Failed framer result.
func (l *Link) OnDrop(fn func(framer.Result)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onDrop = fn
}

// Send frames m and writes it in one call. Payloads above the configured
// limit are refused since the peer would discard them.
func (l *Link) Send(m frame.Message) error {
	tag := m.Tag().String()
	b, err := frame.Encode(m)
	if err != nil {
		observability.RecordSendError(l.cfg.Name, tag)
		return err
	}
	if limit := l.cfg.Limits.MaxPayloadBytes; limit > 0 && len(b)-frame.HeaderSize > int(limit) {
		observability.RecordSendError(l.cfg.Name, tag)
		return fmt.Errorf("%w: frame %s payload %d > %d", protocol.ErrPayloadTooLarge, tag, len(b)-frame.HeaderSize, limit)
	}
	if err := l.write(b); err != nil {
		observability.RecordSendError(l.cfg.Name, tag)
		return fmt.Errorf("session: link %s send %s: %w", l.id, tag, err)
	}
	l.sent.Add(1)
	observability.RecordFrameSent(l.cfg.Name, tag)
	return nil
}

// SendRaw writes an already encoded frame batch in one call. The batch must
// hold only whole, checksum-valid frames within the limit; each frame counts
// as one send.
func (l *Link) SendRaw(b []byte) error {
	tags, err := l.batchTags(b)
	if err != nil {
		observability.RecordSendError(l.cfg.Name, batchLabel)
		return fmt.Errorf("session: link %s send raw: %w", l.id, err)
	}
	if err := l.write(b); err != nil {
		for _, tag := range tags {
			observability.RecordSendError(l.cfg.Name, tag)
		}
		return fmt.Errorf("session: link %s send raw: %w", l.id, err)
	}
	for _, tag := range tags {
		l.sent.Add(1)
		observability.RecordFrameSent(l.cfg.Name, tag)
	}
	return nil
}

// batchLabel stands in for the tag when a batch is rejected before any frame
// in it could be identified.
const batchLabel = "batch"

func (l *Link) batchTags(b []byte) ([]string, error) {
	p := framer.NewParser(l.cfg.Limits)
	var tags []string
	for len(b) > 0 {
		res := p.Feed(b)
		switch res.Status {
		case framer.Succeeded:
			tags = append(tags, res.Header.Tag.String())
			b = b[res.Consumed:]
		case framer.Failed:
			return nil, fmt.Errorf("frame %d: %w", len(tags), res.Err)
		default:
			return nil, fmt.Errorf("%w: %d bytes of partial frame after %d frames", protocol.ErrTruncated, len(b), len(tags))
		}
	}
	return tags, nil
}

func (l *Link) write(b []byte) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	if dw, ok := l.rw.(deadlineWriter); ok && l.cfg.WriteTimeout > 0 {
		if err := dw.SetWriteDeadline(time.Now().Add(l.cfg.WriteTimeout)); err != nil {
			return err
		}
	}
	for len(b) > 0 {
		n, err := l.rw.Write(b)
		if err != nil {
			return err
		}
		if n == 0 {
			return io.ErrShortWrite
		}
		b = b[n:]
	}
	return nil
}

type readChunk struct {
	b   []byte
	err error
}

// Run reads the transport until ctx is done or the transport fails,
// dispatching frames as they complete. When rw is an io.Closer it is closed
// on return, which also unblocks the pending read. Otherwise the reader
// goroutine stays blocked in Read until the transport returns on its own;
// callers passing a bare io.ReadWriter own that lifetime.
func (l *Link) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if c, ok := l.rw.(io.Closer); ok {
		defer c.Close()
	}

	logger := log.With().Str("link", l.id).Str("name", l.cfg.Name).Logger()
	logger.Info().Msg("link started")

	chunks := make(chan readChunk)
	go func() {
		defer close(chunks)
		for {
			buf := make([]byte, l.cfg.ReadBufferBytes)
			n, err := l.rw.Read(buf)
			select {
			case chunks <- readChunk{b: buf[:n], err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	frames := framer.NewBuffer(l.cfg.Limits)
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("link stopped")
			return ctx.Err()

		case c, ok := <-chunks:
			if !ok {
				return ErrLinkClosed
			}
			if len(c.b) > 0 {
				_, _ = frames.Write(c.b)
				l.drain(ctx, frames)
			}
			if c.err == nil {
				continue
			}
			if pending := frames.Len(); pending > 0 {
				l.discard(pending)
				logger.Warn().Int("bytes", pending).Msg("partial frame lost at end of stream")
			}
			if errors.Is(c.err, io.EOF) {
				logger.Info().Msg("peer closed link")
				return ErrLinkClosed
			}
			logger.Warn().Err(c.err).Msg("link read failed")
			return fmt.Errorf("session: link %s read: %w", l.id, c.err)
		}
	}
}

func (l *Link) drain(ctx context.Context, frames *framer.Buffer) {
	for {
		res, ok := frames.Next()
		if !ok {
			return
		}
		switch res.Status {
		case framer.Failed:
			l.drop(res)
		case framer.Succeeded:
			l.dispatch(ctx, frame.Frame{Header: res.Header, Payload: bytes.Clone(res.Payload)})
		}
	}
}

func (l *Link) drop(res framer.Result) {
	l.dropped.Add(1)
	l.discard(res.Consumed)
	observability.RecordFrameReceived(l.cfg.Name, res.Header.Tag.String(), observability.ResultFailed)
	log.Warn().
		Str("link", l.id).
		Stringer("tag", res.Header.Tag).
		Int("consumed", res.Consumed).
		Err(res.Err).
		Msg("frame dropped")

	l.mu.RLock()
	fn := l.onDrop
	l.mu.RUnlock()
	if fn != nil {
		fn(res)
	}
}

func (l *Link) discard(n int) {
	l.discarded.Add(uint64(n))
	observability.RecordBytesDiscarded(l.cfg.Name, n)
}

func (l *Link) dispatch(ctx context.Context, f frame.Frame) {
	l.received.Add(1)
	tag := f.Header.Tag.String()

	l.mu.RLock()
	h, ok := l.handlers[f.Header.Tag]
	if !ok {
		h = l.fallback
	}
	l.mu.RUnlock()

	if h == nil {
		l.unhandled.Add(1)
		observability.RecordFrameReceived(l.cfg.Name, tag, observability.ResultUnhandled)
		log.Debug().Str("link", l.id).Str("tag", tag).Uint32("len", f.Header.Length).Msg("no handler for frame")
		return
	}
	if err := h(ctx, f); err != nil {
		l.rejected.Add(1)
		observability.RecordFrameReceived(l.cfg.Name, tag, observability.ResultRejected)
		log.Warn().Str("link", l.id).Str("tag", tag).Err(err).Msg("frame handler failed")
		return
	}
	observability.RecordFrameReceived(l.cfg.Name, tag, observability.ResultSucceeded)
}

func (l *Link) Stats() Stats {
	return Stats{
		FramesReceived: l.received.Load(),
		FramesDropped:  l.dropped.Load(),
		FramesSent:     l.sent.Load(),
		BytesDiscarded: l.discarded.Load(),
		Unhandled:      l.unhandled.Load(),
		HandlerErrors:  l.rejected.Load(),
	}
}
