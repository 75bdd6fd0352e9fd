package bus

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"
)

type recorder struct {
	msgs []Message
}

func (r *recorder) handle(m Message) {
	r.msgs = append(r.msgs, m)
}

func (r *recorder) payloads() string {
	out := make([]any, 0, len(r.msgs))
	for _, m := range r.msgs {
		out = append(out, m.Payload)
	}
	return fmt.Sprint(out)
}

func TestBus_PublishOrder(t *testing.T) {
	tests := map[string]struct {
		publish []any
		polls   int
	}{
		"single message": {
			publish: []any{"a"},
			polls:   1,
		},
		"burst faster than polling": {
			publish: []any{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
			polls:   1,
		},
		"extra polls deliver nothing twice": {
			publish: []any{"x", "y", "z"},
			polls:   3,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			b := NewBus()
			rec := &recorder{}
			b.Subscribe("room.1", rec.handle)

			for _, p := range tt.publish {
				b.Publish("room.1", p)
			}
			for range tt.polls {
				b.Poll()
			}

			testutil.AssertEqual(t, "payloads", rec.payloads(), fmt.Sprint(tt.publish))
			for i, m := range rec.msgs {
				testutil.AssertEqual(t, "seq", m.Seq, uint64(i+1))
				testutil.AssertEqual(t, "topic", m.Topic, "room.1")
			}
		})
	}
}

func TestBus_NothingDeliveredBeforePoll(t *testing.T) {
	b := NewBus()
	rec := &recorder{}
	sub := b.Subscribe("t", rec.handle)

	b.Publish("t", "hello")

	testutil.AssertEqual(t, "delivered", len(rec.msgs), 0)
	testutil.AssertEqual(t, "pending", sub.Pending(), 1)
}

func TestBus_PublishUnknownTopic(t *testing.T) {
	b := NewBus()
	rec := &recorder{}
	b.Subscribe("known", rec.handle)

	b.Publish("unknown", "ignored")
	b.Poll()

	testutil.AssertEqual(t, "delivered", len(rec.msgs), 0)
}

func TestBus_UnsubscribeDrainsFirst(t *testing.T) {
	b := NewBus()
	rec := &recorder{}
	sub := b.Subscribe("t", rec.handle)

	b.Publish("t", 1)
	b.Publish("t", 2)
	b.Unsubscribe(sub)
	b.Publish("t", 3)

	testutil.AssertEqual(t, "active after unsubscribe", sub.Active(), false)
	testutil.AssertEqual(t, "still registered", b.Subscribers("t"), 1)

	b.Poll()

	testutil.AssertEqual(t, "payloads", rec.payloads(), fmt.Sprint([]any{1, 2}))
	testutil.AssertEqual(t, "registered", b.Subscribers("t"), 0)

	b.Publish("t", 4)
	b.Poll()
	testutil.AssertEqual(t, "payloads after removal", rec.payloads(), fmt.Sprint([]any{1, 2}))
}

func TestBus_UnsubscribeTwice(t *testing.T) {
	b := NewBus()
	rec := &recorder{}
	sub := b.Subscribe("t", rec.handle)

	b.Unsubscribe(sub)
	b.Unsubscribe(sub)
	b.Unsubscribe(nil)
	b.Poll()

	testutil.AssertEqual(t, "registered", b.Subscribers("t"), 0)
	testutil.AssertEqual(t, "pending", sub.Pending(), 0)
}

func TestBus_IndependentSubscriptions(t *testing.T) {
	b := NewBus()
	first := &recorder{}
	second := &recorder{}
	subA := b.Subscribe("t", first.handle)
	b.Subscribe("t", second.handle)

	b.Publish("t", "a")
	b.Unsubscribe(subA)
	b.Publish("t", "b")
	b.Poll()

	testutil.AssertEqual(t, "first", first.payloads(), fmt.Sprint([]any{"a"}))
	testutil.AssertEqual(t, "second", second.payloads(), fmt.Sprint([]any{"a", "b"}))
}

func TestBus_HandlerPanicDoesNotStopDelivery(t *testing.T) {
	b := NewBus()
	var got []any
	b.Subscribe("t", func(m Message) {
		if m.Payload == "boom" {
			panic("handler failure")
		}
		got = append(got, m.Payload)
	})

	b.Publish("t", "before")
	b.Publish("t", "boom")
	b.Publish("t", "after")
	b.Poll()

	testutil.AssertEqual(t, "payloads", fmt.Sprint(got), fmt.Sprint([]any{"before", "after"}))
}

func TestBus_ShutdownFlushes(t *testing.T) {
	b := NewBus()
	rec := &recorder{}
	b.Subscribe("a", rec.handle)
	b.Subscribe("b", rec.handle)

	b.Publish("a", 1)
	b.Publish("b", 2)
	b.Shutdown()

	testutil.AssertEqual(t, "delivered", len(rec.msgs), 2)
	testutil.AssertEqual(t, "a subscribers", b.Subscribers("a"), 0)
	testutil.AssertEqual(t, "b subscribers", b.Subscribers("b"), 0)

	// A second shutdown must not panic on the closed stop channel.
	b.Shutdown()
}

func TestBus_ArrivalTimestamp(t *testing.T) {
	stamp := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	b := NewBus(WithClock(func() time.Time { return stamp }))
	rec := &recorder{}
	b.Subscribe("t", rec.handle)

	b.Publish("t", "x")
	b.Poll()

	testutil.AssertEqual(t, "arrived", rec.msgs[0].Arrived, stamp)
}

func TestBus_StartDelivers(t *testing.T) {
	b := NewBus(WithPollInterval(time.Millisecond))
	got := make(chan any, 3)
	b.Subscribe("t", func(m Message) { got <- m.Payload })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Start(ctx) }()

	b.Publish("t", "one")
	b.Publish("t", "two")

	for _, want := range []any{"one", "two"} {
		select {
		case p := <-got:
			testutil.AssertEqual(t, "payload", p, want)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %v", want)
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("delivery loop did not stop")
	}
	testutil.AssertEqual(t, "subscribers after stop", b.Subscribers("t"), 0)
}
