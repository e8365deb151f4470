package event

import (
	"context"
	"log/slog"
)

// Sink receives events drained from the worker inbox.
type Sink interface {
	Publish(ctx context.Context, e Event) error
}

// Worker consumes events from a channel and forwards them to a sink. It keeps
// background delivery off the donation/distribution hot path; a failed sink
// write is logged, never surfaced to the emitting operation.
type Worker struct {
	sink   Sink
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(sink Sink, inbox <-chan Event, logger *slog.Logger) *Worker {
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e := <-w.inbox:
			if err := w.sink.Publish(ctx, e); err != nil {
				w.logger.ErrorContext(ctx, "event sink publish failed",
					"action", e.Action,
					"campaign_id", e.CampaignID,
					"error", err,
				)
			}
		}
	}
}
