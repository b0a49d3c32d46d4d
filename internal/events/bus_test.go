package events

import (
	"testing"
	"time"
)

func TestSubscribeReceivesPublished(t *testing.T) {
	b := NewBus()
	id, ch := b.Subscribe(4)
	defer b.Unsubscribe(id)

	b.Publish(Event{ID: NewID(), Type: TypePulse, Agent: "0xaa", Timestamp: 100})

	select {
	case e := <-ch:
		if e.Type != TypePulse {
			t.Errorf("event type = %q, want %q", e.Type, TypePulse)
		}
		if e.Agent != "0xaa" {
			t.Errorf("event agent = %q, want 0xaa", e.Agent)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestPublishDropsWhenBufferFull(t *testing.T) {
	b := NewBus()
	id, ch := b.Subscribe(1)
	defer b.Unsubscribe(id)

	b.Publish(Event{Type: TypePulse})
	b.Publish(Event{Type: TypeStake}) // buffer full, dropped

	if got := len(ch); got != 1 {
		t.Errorf("buffered events = %d, want 1", got)
	}

	e := <-ch
	if e.Type != TypePulse {
		t.Errorf("delivered event type = %q, want %q", e.Type, TypePulse)
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := NewBus()
	id, ch := b.Subscribe(1)

	b.Unsubscribe(id)

	if _, ok := <-ch; ok {
		t.Error("channel still open after Unsubscribe")
	}
	if got := b.SubscriberCount(); got != 0 {
		t.Errorf("SubscriberCount = %d, want 0", got)
	}

	// Double unsubscribe must be a no-op.
	b.Unsubscribe(id)
}

func TestPublishFansOut(t *testing.T) {
	b := NewBus()
	id1, ch1 := b.Subscribe(4)
	id2, ch2 := b.Subscribe(4)
	defer b.Unsubscribe(id1)
	defer b.Unsubscribe(id2)

	b.Publish(Event{Type: TypeUnstake})

	if len(ch1) != 1 || len(ch2) != 1 {
		t.Errorf("deliveries = (%d, %d), want (1, 1)", len(ch1), len(ch2))
	}
}
