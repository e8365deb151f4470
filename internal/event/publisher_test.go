package event

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"wrldrelief/pkg/requestcontext"
)

type PublisherSuite struct {
	suite.Suite
	ctx   context.Context
	store *InMemoryStore
}

func TestPublisherSuite(t *testing.T) {
	suite.Run(t, new(PublisherSuite))
}

func (s *PublisherSuite) SetupTest() {
	s.ctx = requestcontext.WithRequestID(
		requestcontext.WithTime(context.Background(), time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
		"req-1",
	)
	s.store = NewInMemoryStore()
}

func (s *PublisherSuite) TestEmit() {
	s.Run("defaults timestamp and request id from context", func() {
		pub := NewPublisher(s.store)
		s.Require().NoError(pub.Emit(s.ctx, Event{Action: ActionDonationReceived, CampaignID: 1}))

		events, err := s.store.List(s.ctx)
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal("req-1", events[0].RequestID)
		s.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), events[0].Timestamp)
	})

	s.Run("preserves explicit timestamp", func() {
		pub := NewPublisher(s.store)
		explicit := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		s.Require().NoError(pub.Emit(s.ctx, Event{Action: ActionStatusChanged, Timestamp: explicit}))

		events, err := s.store.List(s.ctx)
		s.Require().NoError(err)
		s.Equal(explicit, events[len(events)-1].Timestamp)
	})

	s.Run("forwards to the inbox without blocking", func() {
		inbox := make(chan Event, 1)
		pub := NewPublisher(s.store, WithInbox(inbox))
		s.Require().NoError(pub.Emit(s.ctx, Event{Action: ActionDonationReceived}))

		select {
		case e := <-inbox:
			s.Equal(ActionDonationReceived, e.Action)
		default:
			s.Fail("expected event on inbox")
		}
	})

	s.Run("full inbox drops instead of blocking", func() {
		inbox := make(chan Event) // unbuffered, nobody reading
		log := slog.New(slog.NewTextHandler(io.Discard, nil))
		pub := NewPublisher(s.store, WithInbox(inbox), WithLogger(log))

		// Emit must return even though the inbox send cannot proceed.
		s.Require().NoError(pub.Emit(s.ctx, Event{Action: ActionDonationReceived}))

		events, err := s.store.List(s.ctx)
		s.Require().NoError(err)
		s.NotEmpty(events)
	})
}

// recordingSink captures published events for worker tests.
type recordingSink struct {
	ch chan Event
}

func (r *recordingSink) Publish(_ context.Context, e Event) error {
	r.ch <- e
	return nil
}

func (s *PublisherSuite) TestWorker() {
	s.Run("drains the inbox into the sink", func() {
		inbox := make(chan Event, 4)
		sink := &recordingSink{ch: make(chan Event, 4)}
		log := slog.New(slog.NewTextHandler(io.Discard, nil))
		worker := NewWorker(sink, inbox, log)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			_ = worker.Run(ctx)
			close(done)
		}()

		inbox <- Event{Action: ActionFundsDistributed, CampaignID: 7}

		select {
		case e := <-sink.ch:
			s.Equal(ActionFundsDistributed, e.Action)
			s.Equal(uint64(7), e.CampaignID)
		case <-time.After(time.Second):
			s.Fail("sink did not receive the event")
		}

		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			s.Fail("worker did not stop on context cancel")
		}
	})
}
