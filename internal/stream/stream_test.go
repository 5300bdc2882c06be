package stream_test

import (
	"context"
	"testing"
	"time"

	"faithresponders.org/internal/stream"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	s := stream.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch1 := s.Subscribe(ctx)
	ch2 := s.Subscribe(ctx)

	evt := stream.EscalationEvent{EscalationID: "esc-1", WorkgroupID: "wg-1"}
	s.Publish(evt)

	for i, ch := range []<-chan stream.EscalationEvent{ch1, ch2} {
		select {
		case got := <-ch:
			if got.EscalationID != "esc-1" {
				t.Fatalf("subscriber %d: unexpected event %+v", i, got)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d: no event", i)
		}
	}
}

func TestSubscribeClosesOnContextCancel(t *testing.T) {
	s := stream.New()
	ctx, cancel := context.WithCancel(context.Background())

	ch := s.Subscribe(ctx)
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected closed channel, got event")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}

	// publishing after the subscriber left must not panic or block
	s.Publish(stream.EscalationEvent{EscalationID: "esc-2"})
}

func TestPublishDropsWhenSubscriberIsSlow(t *testing.T) {
	s := stream.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := s.Subscribe(ctx)
	// fill the buffer without draining; further publishes must not block
	for i := 0; i < 64; i++ {
		s.Publish(stream.EscalationEvent{EscalationID: "flood"})
	}

	drained := 0
	for {
		select {
		case <-ch:
			drained++
		default:
			if drained == 0 {
				t.Fatal("expected at least one buffered event")
			}
			if drained > 16 {
				t.Fatalf("buffer should cap deliveries, drained %d", drained)
			}
			return
		}
	}
}
