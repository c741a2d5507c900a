package eventbus

import (
	"testing"
	"time"

	"matchengine/domain"
)

func evt(seq uint64) *domain.Event {
	return &domain.Event{Sequence: seq, Kind: domain.EventTradeExecuted, Timestamp: time.Now()}
}

func TestPublishDeliversInOrder(t *testing.T) {
	b := New()
	_, ch := b.Subscribe(4)

	for i := uint64(1); i <= 3; i++ {
		b.Publish(evt(i))
	}

	for i := uint64(1); i <= 3; i++ {
		select {
		case got := <-ch:
			if got.Sequence != i {
				t.Fatalf("expected sequence %d, got %d", i, got.Sequence)
			}
		default:
			t.Fatalf("expected event %d to be buffered", i)
		}
	}
}

func TestPublishDropsOldestWhenFull(t *testing.T) {
	b := New()
	_, ch := b.Subscribe(2)

	b.Publish(evt(1))
	b.Publish(evt(2))
	b.Publish(evt(3)) // buffer full, should evict seq=1

	first := <-ch
	if first.Sequence != 2 {
		t.Fatalf("expected oldest event to be dropped, got seq %d first", first.Sequence)
	}
	second := <-ch
	if second.Sequence != 3 {
		t.Fatalf("expected seq 3 second, got %d", second.Sequence)
	}
}

func TestSingleSlotBufferKeepsNewestEvent(t *testing.T) {
	b := New()
	_, ch := b.Subscribe(1)

	b.Publish(evt(1))
	b.Publish(evt(2)) // evicts 1, sets lagging
	b.Publish(evt(3)) // evicts 2, still lagging

	got := <-ch
	if got.Sequence != 3 {
		t.Fatalf("expected final surviving event seq 3, got %d", got.Sequence)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := New()
	id, ch := b.Subscribe(1)
	b.Unsubscribe(id)

	if _, ok := <-ch; ok {
		t.Fatalf("expected channel closed after unsubscribe")
	}
	if b.SubscriberCount() != 0 {
		t.Fatalf("expected 0 subscribers after unsubscribe")
	}
}

func TestPublishSkipsSubscribersNotRegistered(t *testing.T) {
	b := New()
	if b.SubscriberCount() != 0 {
		t.Fatalf("expected 0 subscribers initially")
	}
	b.Publish(evt(1)) // must not panic with no subscribers
}
