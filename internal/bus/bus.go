package bus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultPollInterval = 10 * time.Millisecond
)

// Message is what a Handler receives for every delivered packet.
type Message struct {
	Topic   string
	Seq     uint64
	Arrived time.Time
	Payload any
}

// Handler is invoked once per delivered message, in publish order for its subscription.
type Handler func(Message)

// Bus is a topic addressed publish/subscribe mechanism with deferred delivery.
// Publish only enqueues; a delivery loop started with Start drains mailboxes on
// a fixed interval.
type Bus struct {
	mu     sync.Mutex
	topics map[string]map[*Subscription]struct{}

	// deliver serializes delivery passes so a mailbox is never drained twice at once.
	deliver sync.Mutex

	pollInterval time.Duration
	now          func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

func NewBus(opts ...BusOpt) *Bus {
	b := &Bus{
		topics:       make(map[string]map[*Subscription]struct{}),
		pollInterval: DefaultPollInterval,
		now:          time.Now,
		stop:         make(chan struct{}),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Subscribe registers handler for topic and returns the live subscription.
func (b *Bus) Subscribe(topic string, handler Handler) *Subscription {
	sub := &Subscription{
		topic:   topic,
		handler: handler,
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.topics[topic]
	if !ok {
		subs = make(map[*Subscription]struct{})
		b.topics[topic] = subs
	}
	subs[sub] = struct{}{}

	return sub
}

// Publish enqueues payload into the mailbox of every live subscription for topic.
// Publishing to a topic nobody subscribes to is a no-op.
func (b *Bus) Publish(topic string, payload any) {
	b.mu.Lock()
	subs := make([]*Subscription, 0, len(b.topics[topic]))
	for sub := range b.topics[topic] {
		subs = append(subs, sub)
	}
	b.mu.Unlock()

	now := b.now()
	for _, sub := range subs {
		sub.enqueue(packetMessage, payload, now)
	}
}

// Unsubscribe schedules sub for removal. Everything published to sub before
// this call is still delivered before the subscription is torn down.
func (b *Bus) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	sub.enqueue(packetTeardown, nil, b.now())
}

// Subscribers returns the number of live subscriptions on topic.
func (b *Bus) Subscribers(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.topics[topic])
}

// Start runs the delivery loop until ctx is cancelled or Shutdown is called.
func (b *Bus) Start(ctx context.Context) error {
	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "message bus started", "poll_interval", b.pollInterval)

	for {
		select {
		case <-ctx.Done():
			b.Shutdown()
			return nil
		case <-b.stop:
			return nil
		case <-ticker.C:
			b.Poll()
		}
	}
}

// Poll runs a single delivery pass over every subscription.
func (b *Bus) Poll() {
	b.deliver.Lock()
	defer b.deliver.Unlock()

	b.mu.Lock()
	var subs []*Subscription
	for _, set := range b.topics {
		for sub := range set {
			subs = append(subs, sub)
		}
	}
	b.mu.Unlock()

	for _, sub := range subs {
		b.drain(sub)
	}
}

// Shutdown stops the delivery loop, tears down every live subscription and
// flushes whatever they still hold. Subsequent calls do nothing.
func (b *Bus) Shutdown() {
	b.stopOnce.Do(func() {
		close(b.stop)

		b.mu.Lock()
		now := b.now()
		for _, set := range b.topics {
			for sub := range set {
				sub.enqueue(packetTeardown, nil, now)
			}
		}
		b.mu.Unlock()

		b.Poll()
	})
}

func (b *Bus) drain(sub *Subscription) {
	for _, p := range sub.take() {
		if p.kind == packetTeardown {
			b.remove(sub)
			return
		}
		b.invoke(sub, p)
	}
}

func (b *Bus) invoke(sub *Subscription, p packet) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("bus handler panicked", "topic", sub.topic, "seq", p.seq, "error", fmt.Sprint(r))
		}
	}()

	sub.handler(Message{
		Topic:   sub.topic,
		Seq:     p.seq,
		Arrived: p.arrived,
		Payload: p.payload,
	})
}

func (b *Bus) remove(sub *Subscription) {
	sub.markRemoved()

	b.mu.Lock()
	defer b.mu.Unlock()

	set, ok := b.topics[sub.topic]
	if !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(b.topics, sub.topic)
	}
}
