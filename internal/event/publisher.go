package event

import (
	"context"
	"log/slog"

	"wrldrelief/pkg/requestcontext"
)

// Store is an append-only event sink.
type Store interface {
	Append(ctx context.Context, e Event) error
	List(ctx context.Context) ([]Event, error)
}

// Publisher captures structured platform events. Writes to the primary store
// are synchronous; an optional inbox fans events out to a background worker
// (Kafka sink) without blocking the emitting operation.
type Publisher struct {
	store  Store
	inbox  chan<- Event
	logger *slog.Logger
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithInbox attaches a channel drained by a Worker.
func WithInbox(inbox chan<- Event) Option {
	return func(p *Publisher) { p.inbox = inbox }
}

// WithLogger sets a logger for drop reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit records an event. The timestamp defaults to the request time and the
// request id is taken from context when not already set.
func (p *Publisher) Emit(ctx context.Context, e Event) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = requestcontext.Now(ctx)
	}
	if e.RequestID == "" {
		e.RequestID = requestcontext.RequestID(ctx)
	}
	if err := p.store.Append(ctx, e); err != nil {
		return err
	}
	if p.inbox != nil {
		select {
		case p.inbox <- e:
		default:
			// The sink is best-effort; the store already holds the event.
			if p.logger != nil {
				p.logger.WarnContext(ctx, "event inbox full, dropping sink delivery",
					"action", e.Action,
					"campaign_id", e.CampaignID,
				)
			}
		}
	}
	return nil
}

// List returns all captured events in append order.
func (p *Publisher) List(ctx context.Context) ([]Event, error) {
	return p.store.List(ctx)
}
