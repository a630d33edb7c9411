// Package publisher emits audit entries to an appender, synchronously by
// default or through a bounded buffer drained by a background worker.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	audit "counsel/pkg/platform/audit"
	"counsel/pkg/platform/audit/worker"
)

var (
	ErrBufferFull = errors.New("audit buffer full")
	ErrClosed     = errors.New("audit publisher closed")
)

type Publisher struct {
	sink   audit.Appender
	logger *slog.Logger
	now    func() time.Time

	bufferSize int
	buffer     chan audit.Entry
	mu         sync.RWMutex
	closed     bool
	done       chan struct{}
}

type Option func(*Publisher)

// WithAsyncBuffer enables async mode with a buffer of n entries.
func WithAsyncBuffer(n int) Option {
	return func(p *Publisher) {
		p.bufferSize = n
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Publisher) {
		if now != nil {
			p.now = now
		}
	}
}

func NewPublisher(sink audit.Appender, opts ...Option) *Publisher {
	p := &Publisher{
		sink:   sink,
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufferSize > 0 {
		p.buffer = make(chan audit.Entry, p.bufferSize)
		p.done = make(chan struct{})
		w := worker.NewWorker(sink, p.buffer, func(e audit.Entry, err error) {
			p.logger.Error("audit append failed",
				"guild_id", e.GuildID,
				"entity_id", e.EntityID,
				"error", err,
			)
		})
		go func() {
			defer close(p.done)
			w.Run(context.Background())
		}()
	}
	return p
}

// Emit stamps the entry with an ID and timestamp when missing and hands it to
// the sink. In async mode it never blocks: a full buffer drops the entry and
// returns ErrBufferFull.
func (p *Publisher) Emit(ctx context.Context, entry audit.Entry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = p.now()
	}
	if p.buffer == nil {
		return p.sink.Append(ctx, entry)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case p.buffer <- entry:
		return nil
	default:
		p.logger.Warn("audit buffer full, dropping entry",
			"guild_id", entry.GuildID,
			"entity_id", entry.EntityID,
		)
		return ErrBufferFull
	}
}

// Close stops accepting entries and waits until buffered ones are written.
func (p *Publisher) Close() error {
	if p.buffer == nil {
		return nil
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.buffer)
	p.mu.Unlock()
	<-p.done
	return nil
}
