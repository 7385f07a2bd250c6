package publisher

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"aquita/pkg/platform/audit"
	"aquita/pkg/requestcontext"
)

// Store is the persistence port for audit events.
type Store interface {
	Append(ctx context.Context, event audit.Event) error
}

// Publisher emits audit events to a Store, synchronously by default or through
// a buffered channel when async mode is enabled.
type Publisher struct {
	store  Store
	logger *slog.Logger

	asyncCh chan audit.Event
	wg      sync.WaitGroup
	closed  chan struct{}
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithAsyncBuffer enables async emission with the given channel capacity.
// Emit drops events (with a log line) when the buffer is full rather than
// blocking message handling.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.asyncCh = make(chan audit.Event, size)
	}
}

// WithLogger sets the logger used for drop/store failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.Default(),
		closed: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.asyncCh != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit records one audit event. The event ID and timestamp are filled in here
// so callers only describe what happened.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.At.IsZero() {
		event.At = requestcontext.Now(ctx)
	}

	if p.asyncCh == nil {
		return p.store.Append(ctx, event)
	}

	select {
	case p.asyncCh <- event:
		return nil
	default:
		p.logger.Warn("audit buffer full, dropping event",
			"action", string(event.Action),
			"subject", event.Subject,
		)
		return nil
	}
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for {
		select {
		case event := <-p.asyncCh:
			if err := p.store.Append(context.Background(), event); err != nil {
				p.logger.Error("audit append failed",
					"action", string(event.Action),
					"error", err.Error(),
				)
			}
		case <-p.closed:
			// Flush whatever is still buffered.
			for {
				select {
				case event := <-p.asyncCh:
					if err := p.store.Append(context.Background(), event); err != nil {
						p.logger.Error("audit append failed during flush", "error", err.Error())
					}
				default:
					return
				}
			}
		}
	}
}

// Close stops the async worker after flushing buffered events.
func (p *Publisher) Close() {
	if p.asyncCh == nil {
		return
	}
	close(p.closed)
	p.wg.Wait()
}
